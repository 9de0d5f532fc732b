package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vmunix/introskip/internal/detect"
	"github.com/vmunix/introskip/internal/events"
	"github.com/vmunix/introskip/internal/library"
)

var segmentsCmd = &cobra.Command{
	Use:   "segments",
	Short: "Inspect and erase detected segments",
}

var segmentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List detected segments of one type",
	Args:  cobra.NoArgs,
	RunE:  runSegmentsList,
}

var segmentsGetCmd = &cobra.Command{
	Use:   "get <episode-id>",
	Short: "Show the segments of one episode",
	Args:  cobra.ExactArgs(1),
	RunE:  runSegmentsGet,
}

var segmentsEraseCmd = &cobra.Command{
	Use:   "erase",
	Short: "Erase every segment of one type and its cached fingerprints",
	Long: `Erase every stored segment of the given type and the cached
fingerprints used to find them. The next scan analyzes those episodes again.`,
	Args: cobra.NoArgs,
	RunE: runSegmentsErase,
}

func init() {
	rootCmd.AddCommand(segmentsCmd)
	segmentsCmd.AddCommand(segmentsListCmd)
	segmentsCmd.AddCommand(segmentsGetCmd)
	segmentsCmd.AddCommand(segmentsEraseCmd)

	segmentsListCmd.Flags().String("mode", "intro", "Segment type: intro or credits")
	segmentsEraseCmd.Flags().String("mode", "", "Segment type: intro or credits")
	_ = segmentsEraseCmd.MarkFlagRequired("mode")
}

// segmentRow is a segment joined with its episode.
type segmentRow struct {
	EpisodeID int64   `json:"episode_id"`
	Mode      string  `json:"mode"`
	Series    string  `json:"series,omitempty"`
	Season    int     `json:"season,omitempty"`
	Episode   int     `json:"episode,omitempty"`
	Title     string  `json:"title,omitempty"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
}

func newSegmentRow(seg detect.Segment, mode detect.Mode, ep *library.EpisodeDetail) segmentRow {
	row := segmentRow{EpisodeID: seg.EpisodeID, Mode: mode.String(), Start: seg.Start, End: seg.End}
	if ep != nil {
		row.Series = ep.SeriesTitle
		row.Season = ep.SeasonNumber
		row.Episode = ep.Episode.Episode
		row.Title = ep.Title
	}
	return row
}

// lookupEpisode returns nil for an episode missing from the catalogue.
func lookupEpisode(store *library.Store, id int64) (*library.EpisodeDetail, error) {
	ep, err := store.GetEpisode(id)
	if errors.Is(err, library.ErrNotFound) {
		return nil, nil
	}
	return ep, err
}

func segmentTableRows(rows []segmentRow) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		code := ""
		if r.Series != "" {
			code = episodeCode(r.Season, r.Episode)
		}
		out[i] = []string{
			strconv.FormatInt(r.EpisodeID, 10),
			r.Mode,
			r.Series,
			code,
			r.Title,
			formatTimestamp(r.Start),
			formatTimestamp(r.End),
			formatTimestamp(r.End - r.Start),
		}
	}
	return out
}

func printSegments(rows []segmentRow) error {
	if jsonOutput {
		return printJSON(os.Stdout, rows)
	}
	if len(rows) == 0 {
		fmt.Println("No segments found")
		return nil
	}
	fmt.Println(renderTable(
		[]string{"ID", "Type", "Series", "Episode", "Title", "Start", "End", "Length"},
		segmentTableRows(rows),
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
	))
	return nil
}

func runSegmentsList(cmd *cobra.Command, _ []string) error {
	modeFlag, _ := cmd.Flags().GetString("mode")
	mode, err := detect.ParseMode(modeFlag)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	segs := a.Segments.All(mode)
	rows := make([]segmentRow, 0, len(segs))
	for _, seg := range segs {
		ep, err := lookupEpisode(a.Library, seg.EpisodeID)
		if err != nil {
			return err
		}
		rows = append(rows, newSegmentRow(seg, mode, ep))
	}
	return printSegments(rows)
}

func runSegmentsGet(_ *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid episode ID: %s", args[0])
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ep, err := lookupEpisode(a.Library, id)
	if err != nil {
		return err
	}

	var rows []segmentRow
	for _, mode := range detect.AllModes {
		if seg, ok := a.Segments.Get(id, mode); ok {
			rows = append(rows, newSegmentRow(seg, mode, ep))
		}
	}
	if rows == nil && ep == nil {
		return fmt.Errorf("episode %d: %w", id, library.ErrNotFound)
	}
	return printSegments(rows)
}

func runSegmentsErase(cmd *cobra.Command, _ []string) error {
	modeFlag, _ := cmd.Flags().GetString("mode")
	mode, err := detect.ParseMode(modeFlag)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	count := a.Segments.Count(mode)
	if err := a.Segments.Erase(mode); err != nil {
		return err
	}
	if err := a.Cache.Remove(mode); err != nil {
		return err
	}
	_ = a.Bus.Publish(context.Background(), &events.SegmentsErased{
		BaseEvent: events.NewBaseEvent(events.EventSegmentsErased, events.EntityScan, 0),
		Mode:      mode.String(),
	})

	if jsonOutput {
		return printJSON(os.Stdout, map[string]any{"mode": mode.String(), "erased": count})
	}
	fmt.Printf("Erased %d %s segments\n", count, mode)
	return nil
}
