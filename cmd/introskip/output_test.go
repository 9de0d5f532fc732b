package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/introskip/internal/detect"
	"github.com/vmunix/introskip/internal/library"
	"github.com/vmunix/introskip/internal/scan"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		want    string
	}{
		{"zero", 0, "0:00.0"},
		{"seconds", 16, "0:16.0"},
		{"rounds to tenths", 45.184, "0:45.2"},
		{"minutes", 600, "10:00.0"},
		{"hours", 3725.5, "1:02:05.5"},
		{"negative clamps", -3, "0:00.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatTimestamp(tt.seconds))
		})
	}
}

func TestEpisodeCode(t *testing.T) {
	assert.Equal(t, "S01E02", episodeCode(1, 2))
	assert.Equal(t, "S00E112", episodeCode(0, 112))
}

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"Name", "Count"},
		[][]string{{"Futurama", "7"}, {"short row"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	assert.Contains(t, out, "Name")
	assert.Contains(t, out, "Futurama")
	assert.Contains(t, out, "short row")
	assert.Empty(t, renderTable(nil, nil, nil))
}

func TestSegmentTableRows(t *testing.T) {
	ep := &library.EpisodeDetail{
		Episode:      library.Episode{ID: 3, Episode: 4, Title: "Fear of a Bot Planet"},
		SeasonNumber: 1,
		SeriesTitle:  "Futurama",
	}
	rows := segmentTableRows([]segmentRow{
		newSegmentRow(detect.Segment{EpisodeID: 3, Start: 16, End: 45.2}, detect.ModeIntroduction, ep),
		newSegmentRow(detect.Segment{EpisodeID: 9, Start: 1200, End: 1290}, detect.ModeCredits, nil),
	})

	assert.Equal(t, []string{"3", "introduction", "Futurama", "S01E04", "Fear of a Bot Planet", "0:16.0", "0:45.2", "0:29.2"}, rows[0])
	assert.Equal(t, []string{"9", "credits", "", "", "", "20:00.0", "21:30.0", "1:30.0"}, rows[1])
}

func TestScanResultRows(t *testing.T) {
	rows := scanResultRows([]*library.ScanResult{{Library: "TV", Found: 10, Added: 2, Updated: 8, Removed: 1, Skipped: 3}})
	assert.Equal(t, [][]string{{"TV", "10", "2", "8", "1", "3"}}, rows)
}

func TestLogProgress_Steps(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	progress := logProgress(log, 10)
	for _, pct := range []int{5, 10, 15, 35, 100} {
		progress(scan.Progress{Processed: int64(pct), Queued: 100, Percent: pct})
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "percent=10")
	assert.Contains(t, lines[1], "percent=35")
	assert.Contains(t, lines[2], "percent=100")
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, &scan.Report{
		RunID:          "run-1",
		Queued:         1200,
		Processed:      1200,
		SeasonsSkipped: 2,
		SeasonsFailed:  1,
		Diagnostics:    scan.DiagInvalidFingerprint,
		Failures:       []scan.SeasonFailure{{Series: "Futurama", Season: 2, Mode: "introduction", Reason: "no fingerprint"}},
	})

	out := buf.String()
	assert.Contains(t, out, "1,200 of 1,200 processed")
	assert.Contains(t, out, "0 analyzed, 2 skipped, 1 failed")
	assert.Contains(t, out, "InvalidFingerprint")
	assert.Contains(t, out, "Futurama season 2 (introduction): no fingerprint")
}

func TestPrintReport_BothModesClamped(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, &scan.Report{RunID: "run-2", Queued: 100, Processed: 200})

	assert.Contains(t, buf.String(), "100 of 100 processed")
}

func TestClampProgress(t *testing.T) {
	assert.Equal(t, scan.Progress{Processed: 100, Queued: 100, Percent: 100},
		clampProgress(scan.Progress{Processed: 200, Queued: 100, Percent: 200}))
	assert.Equal(t, scan.Progress{Processed: 40, Queued: 100, Percent: 40},
		clampProgress(scan.Progress{Processed: 40, Queued: 100, Percent: 40}))
	assert.Equal(t, scan.Progress{}, clampProgress(scan.Progress{}))
}

func TestLogProgress_ClampsPercent(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	progress := logProgress(log, 50)
	progress(scan.Progress{Processed: 150, Queued: 100, Percent: 150})
	progress(scan.Progress{Processed: 200, Queued: 100, Percent: 200})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "processed=100")
	assert.Contains(t, lines[0], "percent=100")
}

func TestScanError(t *testing.T) {
	report := &scan.Report{Queued: 10, Processed: 4}

	err := scanError(report, fmt.Errorf("%w: library \"Anime\" not found (did you mean \"anime\"?)", detect.ErrNothingQueued))
	require.Error(t, err)
	assert.ErrorIs(t, err, detect.ErrNothingQueued)
	assert.Contains(t, err.Error(), "did you mean")

	err = scanError(report, context.Canceled)
	require.EqualError(t, err, "scan cancelled after 4 of 10 episodes")

	assert.NoError(t, scanError(report, nil))
}
