package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/vmunix/introskip/internal/detect"
	"github.com/vmunix/introskip/internal/scan"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Analyze queued episodes for intro and credits segments",
	Long: `Catalogue the configured libraries and analyze every season that is
missing segments. Progress is shown as a bar on a terminal and as log
lines otherwise.

Examples:
  introskip scan                 # Both introductions and credits
  introskip scan --mode credits  # Credits only
  introskip scan --skip-refresh  # Use the catalogue as it is`,
	Args: cobra.NoArgs,
	RunE: runScanCmd,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().String("mode", "all", "Segment type: intro, credits or all")
	scanCmd.Flags().Bool("skip-refresh", false, "Do not re-catalogue libraries first")
}

func runScanCmd(cmd *cobra.Command, _ []string) error {
	modeFlag, _ := cmd.Flags().GetString("mode")
	skipRefresh, _ := cmd.Flags().GetBool("skip-refresh")

	modes, err := detect.ParseModes(modeFlag)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !skipRefresh {
		if err := a.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
		if _, err := a.PruneSegments(); err != nil {
			return err
		}
	}

	var progress scan.ProgressFunc
	if isTerminal(os.Stderr) && !jsonOutput {
		bar := newScanBar(os.Stderr)
		defer func() { _ = bar.Finish() }()
		progress = barProgress(bar)
	} else {
		progress = logProgress(slog.Default(), 10)
	}

	report, err := a.Scanner.Run(ctx, modes, progress)
	if report == nil {
		return err
	}

	if jsonOutput {
		if perr := printJSON(os.Stdout, report); perr != nil {
			return perr
		}
	} else {
		printReport(os.Stdout, report)
	}

	return scanError(report, err)
}

// scanError turns the result of a finished scan into the command error.
// Every failure, including an empty queue, exits non-zero.
func scanError(report *scan.Report, err error) error {
	if errors.Is(err, context.Canceled) {
		done := clampProgress(scan.Progress{Processed: report.Processed, Queued: report.Queued})
		return fmt.Errorf("scan cancelled after %d of %d episodes", done.Processed, done.Queued)
	}
	return err
}

func newScanBar(w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions64(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("analyzing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
}

func barProgress(bar *progressbar.ProgressBar) scan.ProgressFunc {
	var mu sync.Mutex
	return func(p scan.Progress) {
		mu.Lock()
		defer mu.Unlock()
		p = clampProgress(p)
		if bar.GetMax64() != p.Queued {
			bar.ChangeMax64(p.Queued)
		}
		_ = bar.Set64(p.Processed)
	}
}

// logProgress logs whenever progress crosses another step percent.
func logProgress(log *slog.Logger, step int) scan.ProgressFunc {
	var mu sync.Mutex
	next := step
	return func(p scan.Progress) {
		mu.Lock()
		defer mu.Unlock()
		p = clampProgress(p)
		if p.Percent < next {
			return
		}
		log.Info("scan progress", "processed", p.Processed, "queued", p.Queued, "percent", p.Percent)
		for next <= p.Percent {
			next += step
		}
	}
}

// clampProgress caps a snapshot at the queue size. Processed counts each
// analyzed mode, so a scan of both modes can pass Queued.
func clampProgress(p scan.Progress) scan.Progress {
	if p.Queued > 0 && p.Processed > p.Queued {
		p.Processed = p.Queued
	}
	p.Percent = min(p.Percent, 100)
	return p
}

func printReport(w io.Writer, r *scan.Report) {
	done := clampProgress(scan.Progress{Processed: r.Processed, Queued: r.Queued})
	fmt.Fprintf(w, "Scan %s\n", r.RunID)
	fmt.Fprintf(w, "  Episodes:  %s of %s processed\n", humanize.Comma(done.Processed), humanize.Comma(done.Queued))
	fmt.Fprintf(w, "  Seasons:   %d analyzed, %d skipped, %d failed\n", r.SeasonsAnalyzed, r.SeasonsSkipped, r.SeasonsFailed)
	fmt.Fprintf(w, "  Duration:  %s\n", r.Duration().Round(time.Second))
	if r.Diagnostics != 0 {
		fmt.Fprintf(w, "  Warnings:  %s\n", r.Diagnostics)
	}
	for _, f := range r.Failures {
		fmt.Fprintf(w, "    %s season %d (%s): %s\n", f.Series, f.Season, f.Mode, f.Reason)
	}
	if r.Error != "" {
		fmt.Fprintf(w, "  Result:    %s\n", r.Error)
	}
}
