// Package ffmpeg wraps the ffmpeg and ffprobe executables used to extract
// black frames, audio fingerprints, chapters and durations from media files.
package ffmpeg

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/vmunix/introskip/internal/detect"
	"github.com/vmunix/introskip/internal/timerange"
)

// ErrNoChromaprint indicates ffmpeg was built without the chromaprint muxer.
var ErrNoChromaprint = errors.New("ffmpeg lacks the chromaprint muxer")

// blackframe filter output: "... frame:12 pblack:99 pts:3003 t:0.125125 type:P ..."
var blackFrameRe = regexp.MustCompile(`\st:(\d+(?:\.\d+)?)`)

// runFunc executes a command and returns its stdout and stderr.
type runFunc func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Wrapper runs ffmpeg and ffprobe.
type Wrapper struct {
	ffmpegPath  string
	ffprobePath string
	run         runFunc
	log         *slog.Logger
}

// New creates a Wrapper. Empty paths fall back to the binaries on PATH.
func New(ffmpegPath, ffprobePath string, logger *slog.Logger) *Wrapper {
	if logger == nil {
		logger = slog.Default()
	}
	ffmpegPath = strings.TrimSpace(ffmpegPath)
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	ffprobePath = strings.TrimSpace(ffprobePath)
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Wrapper{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		run:         execRun,
		log:         logger.With("component", "ffmpeg"),
	}
}

// Check verifies that ffmpeg runs and supports chromaprint.
func (w *Wrapper) Check(ctx context.Context) error {
	stdout, stderr, err := w.run(ctx, w.ffmpegPath, "-hide_banner", "-muxers")
	if err != nil {
		return fmt.Errorf("run %s: %w: %s", w.ffmpegPath, err, strings.TrimSpace(string(stderr)))
	}
	if !bytes.Contains(stdout, []byte("chromaprint")) {
		return ErrNoChromaprint
	}
	return nil
}

// BlackFrames returns the timestamps, relative to window.Start, of frames in
// window that are at least minimumPercent black.
func (w *Wrapper) BlackFrames(ctx context.Context, path string, window timerange.Range, minimumPercent int) ([]float64, error) {
	args := []string{
		"-hide_banner",
		"-ss", formatSeconds(window.Start),
		"-t", formatSeconds(window.Duration()),
		"-i", path,
		"-an", "-dn", "-sn",
		"-vf", fmt.Sprintf("blackframe=amount=%d", minimumPercent),
		"-f", "null", "-",
	}
	_, stderr, err := w.run(ctx, w.ffmpegPath, args...)
	if err != nil {
		return nil, fmt.Errorf("blackframe %s: %w", path, err)
	}
	return parseBlackFrames(stderr), nil
}

func parseBlackFrames(output []byte) []float64 {
	var frames []float64
	for _, line := range strings.Split(string(output), "\n") {
		if !strings.Contains(line, "blackframe") {
			continue
		}
		m := blackFrameRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		t, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		frames = append(frames, t)
	}
	return frames
}

// Fingerprint returns the raw chromaprint fingerprint of the audio in window.
func (w *Wrapper) Fingerprint(ctx context.Context, path string, window timerange.Range) ([]uint32, error) {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-ss", formatSeconds(window.Start),
		"-t", formatSeconds(window.Duration()),
		"-i", path,
		"-ac", "2",
		"-f", "chromaprint", "-fp_format", "raw",
		"-",
	}
	stdout, stderr, err := w.run(ctx, w.ffmpegPath, args...)
	if err != nil {
		return nil, fmt.Errorf("chromaprint %s: %w: %s", path, err, strings.TrimSpace(string(stderr)))
	}
	points, err := parseFingerprint(stdout)
	if err != nil {
		return nil, fmt.Errorf("chromaprint %s: %w", path, err)
	}
	w.log.Debug("fingerprinted", "path", path, "window", window.String(), "points", len(points))
	return points, nil
}

func parseFingerprint(raw []byte) ([]uint32, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty fingerprint")
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("fingerprint length %d is not a multiple of 4", len(raw))
	}
	points := make([]uint32, len(raw)/4)
	for i := range points {
		points[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}
	return points, nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

var _ detect.Decoder = (*Wrapper)(nil)
var _ detect.ChapterSource = (*Wrapper)(nil)
