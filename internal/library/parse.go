package library

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	seRe = regexp.MustCompile(`(?i)S(\d{1,2})E(\d{1,3})`)
	// Alternative "1x02" numbering.
	xRe = regexp.MustCompile(`(?i)\b(\d{1,2})x(\d{2,3})\b`)
)

var mediaExtensions = map[string]bool{
	".mkv":  true,
	".mp4":  true,
	".m4v":  true,
	".avi":  true,
	".mov":  true,
	".ts":   true,
	".webm": true,
}

// IsMediaFile reports whether path has a known video extension.
func IsMediaFile(path string) bool {
	return mediaExtensions[strings.ToLower(filepath.Ext(path))]
}

// ParsedPath is the series, season and episode encoded in a file path.
type ParsedPath struct {
	Series  string
	Season  int
	Episode int
	Title   string
}

// ParseEpisodePath extracts episode information from a file below root.
// The series is the first directory under root, or the text before the
// episode marker when the file sits directly in root.
func ParseEpisodePath(root, path string) (ParsedPath, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ParsedPath{}, false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	base := strings.TrimSuffix(parts[len(parts)-1], filepath.Ext(rel))

	loc := seRe.FindStringSubmatchIndex(base)
	if loc == nil {
		loc = xRe.FindStringSubmatchIndex(base)
	}
	if loc == nil {
		return ParsedPath{}, false
	}

	season, _ := strconv.Atoi(base[loc[2]:loc[3]])
	episode, _ := strconv.Atoi(base[loc[4]:loc[5]])

	p := ParsedPath{
		Season:  season,
		Episode: episode,
		Title:   cleanName(base[loc[1]:]),
	}
	if len(parts) > 1 {
		p.Series = strings.TrimSpace(parts[0])
	} else {
		p.Series = cleanName(base[:loc[0]])
	}
	if p.Series == "" {
		return ParsedPath{}, false
	}
	return p, true
}

// cleanName turns release-style separators into spaces and trims dashes.
func cleanName(s string) string {
	s = strings.NewReplacer(".", " ", "_", " ").Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, " -")
}
