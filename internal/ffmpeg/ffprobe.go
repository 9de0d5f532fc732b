package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vmunix/introskip/internal/detect"
)

type probeOutput struct {
	Chapters []probeChapter `json:"chapters"`
	Format   struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

type probeChapter struct {
	StartTime string            `json:"start_time"`
	Tags      map[string]string `json:"tags"`
}

func (w *Wrapper) probe(ctx context.Context, path string, section string) (probeOutput, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return probeOutput{}, errors.New("ffprobe: empty path")
	}
	stdout, stderr, err := w.run(ctx, w.ffprobePath, "-v", "error", "-hide_banner", section, "-of", "json", "--", path)
	if err != nil {
		return probeOutput{}, fmt.Errorf("ffprobe %s: %w: %s", path, err, strings.TrimSpace(string(stderr)))
	}
	var out probeOutput
	if err := json.Unmarshal(stdout, &out); err != nil {
		return probeOutput{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return out, nil
}

// Chapters lists the chapter markers of a media file in start order.
func (w *Wrapper) Chapters(ctx context.Context, path string) ([]detect.Chapter, error) {
	out, err := w.probe(ctx, path, "-show_chapters")
	if err != nil {
		return nil, err
	}
	return out.chapters(), nil
}

func (o probeOutput) chapters() []detect.Chapter {
	chapters := make([]detect.Chapter, 0, len(o.Chapters))
	for _, c := range o.Chapters {
		start, err := strconv.ParseFloat(c.StartTime, 64)
		if err != nil {
			continue
		}
		chapters = append(chapters, detect.Chapter{Name: c.Tags["title"], Start: start})
	}
	return chapters
}

// Duration returns the container duration in seconds.
func (w *Wrapper) Duration(ctx context.Context, path string) (float64, error) {
	out, err := w.probe(ctx, path, "-show_format")
	if err != nil {
		return 0, err
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(out.Format.Duration), 64)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("ffprobe %s: invalid duration %q", path, out.Format.Duration)
	}
	return d, nil
}
