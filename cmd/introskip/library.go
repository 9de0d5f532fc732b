package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vmunix/introskip/internal/library"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Library catalogue",
}

var libraryScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Refresh the catalogue from the configured library roots",
	Args:  cobra.NoArgs,
	RunE:  runLibraryScan,
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalogued libraries",
	Args:  cobra.NoArgs,
	RunE:  runLibraryList,
}

func init() {
	rootCmd.AddCommand(libraryCmd)
	libraryCmd.AddCommand(libraryScanCmd)
	libraryCmd.AddCommand(libraryListCmd)
}

func runLibraryScan(_ *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	results, err := a.RefreshLibraries(ctx)
	if err == nil {
		_, err = a.PruneSegments()
	}
	if jsonOutput {
		if perr := printJSON(os.Stdout, results); perr != nil {
			return perr
		}
		return err
	}

	fmt.Println(renderTable(
		[]string{"Library", "Found", "Added", "Updated", "Removed", "Skipped"},
		scanResultRows(results),
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
	))
	return err
}

func scanResultRows(results []*library.ScanResult) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.Library,
			strconv.Itoa(r.Found),
			strconv.Itoa(r.Added),
			strconv.Itoa(r.Updated),
			strconv.Itoa(r.Removed),
			strconv.Itoa(r.Skipped),
		})
	}
	return rows
}

type libraryRow struct {
	Name     string `json:"name"`
	Root     string `json:"root"`
	Series   int    `json:"series"`
	Seasons  int    `json:"seasons"`
	Episodes int    `json:"episodes"`
	Added    string `json:"added"`
}

func runLibraryList(_ *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	libs, err := a.Library.ListLibraries()
	if err != nil {
		return err
	}

	items := make([]libraryRow, 0, len(libs))
	for _, l := range libs {
		stats, err := a.Library.GetStats(&l.ID)
		if err != nil {
			return err
		}
		items = append(items, libraryRow{
			Name:     l.Name,
			Root:     l.RootPath,
			Series:   stats.Series,
			Seasons:  stats.Seasons,
			Episodes: stats.Episodes,
			Added:    humanize.Time(l.AddedAt),
		})
	}

	if jsonOutput {
		return printJSON(os.Stdout, items)
	}

	rows := make([][]string, len(items))
	for i, it := range items {
		rows[i] = []string{it.Name, it.Root, strconv.Itoa(it.Series), strconv.Itoa(it.Seasons), humanize.Comma(int64(it.Episodes)), it.Added}
	}
	fmt.Println(renderTable(
		[]string{"Name", "Root", "Series", "Seasons", "Episodes", "Added"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))
	return nil
}
