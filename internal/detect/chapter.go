package detect

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/vmunix/introskip/internal/timerange"
)

// ChapterAnalyzer resolves segments from chapter names.
type ChapterAnalyzer struct {
	chapters ChapterSource
	store    ResultStore
	settings Settings
	patterns map[Mode]*regexp.Regexp
	log      *slog.Logger
}

// NewChapterAnalyzer compiles the chapter patterns in settings. An empty
// pattern disables chapter matching for that mode.
func NewChapterAnalyzer(chapters ChapterSource, store ResultStore, settings Settings, logger *slog.Logger) (*ChapterAnalyzer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	patterns := make(map[Mode]*regexp.Regexp)
	for mode, expr := range map[Mode]string{
		ModeIntroduction: settings.IntroChapterPattern,
		ModeCredits:      settings.CreditsChapterPattern,
	} {
		if expr == "" {
			continue
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compile %s chapter pattern: %w", mode, err)
		}
		patterns[mode] = re
	}

	return &ChapterAnalyzer{
		chapters: chapters,
		store:    store,
		settings: settings,
		patterns: patterns,
		log:      logger.With("component", "chapters"),
	}, nil
}

// Analyze implements Analyzer.
func (a *ChapterAnalyzer) Analyze(ctx context.Context, episodes []QueuedEpisode, mode Mode) ([]QueuedEpisode, error) {
	if _, ok := a.patterns[mode]; !ok {
		return episodes, nil
	}

	found := make(map[int64]Segment)
	for _, ep := range episodes {
		if ctx.Err() != nil {
			break
		}

		chapters, err := a.chapters.Chapters(context.WithoutCancel(ctx), ep.Path)
		if err != nil {
			a.log.Debug("failed to list chapters", "episode_id", ep.EpisodeID, "path", ep.Path, "error", err)
			continue
		}

		if seg, ok := a.FindMatchingChapter(ep, chapters, mode); ok {
			found[ep.EpisodeID] = seg
		}
	}

	if len(found) > 0 {
		if err := a.store.Merge(mode, found); err != nil {
			return nil, fmt.Errorf("store %s segments: %w", mode, err)
		}
	}
	return unresolved(episodes, found), nil
}

// FindMatchingChapter returns the first chapter whose name matches the
// pattern for mode and whose length is within the configured bounds.
// Credits are searched from the last chapter backwards.
func (a *ChapterAnalyzer) FindMatchingChapter(ep QueuedEpisode, chapters []Chapter, mode Mode) (Segment, bool) {
	re, ok := a.patterns[mode]
	if !ok || len(chapters) == 0 {
		return Segment{}, false
	}
	minimum, maximum := a.settings.durationBounds(mode)

	check := func(i int) (Segment, bool) {
		name := normalizeChapterName(chapters[i].Name)
		if name == "" {
			return Segment{}, false
		}
		if !re.MatchString(name) {
			return Segment{}, false
		}

		end := ep.Duration
		if i+1 < len(chapters) {
			end = chapters[i+1].Start
		}
		r := timerange.New(chapters[i].Start, end)
		// Credits chapters are only bounded above.
		if (mode == ModeIntroduction && r.Duration() < minimum) || r.Duration() > maximum {
			a.log.Debug("chapter length out of bounds", "episode_id", ep.EpisodeID, "chapter", name, "range", r.String())
			return Segment{}, false
		}
		return NewSegment(ep.EpisodeID, r), true
	}

	if mode == ModeCredits {
		for i := len(chapters) - 1; i >= 0; i-- {
			if seg, ok := check(i); ok {
				return seg, true
			}
		}
		return Segment{}, false
	}

	for i := range chapters {
		if seg, ok := check(i); ok {
			return seg, true
		}
	}
	return Segment{}, false
}

// normalizeChapterName strips diacritics and surrounding whitespace.
func normalizeChapterName(name string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, name)
	if err != nil {
		result = name
	}
	return strings.TrimSpace(result)
}
