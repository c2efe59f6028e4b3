package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/MeKo-Tech/interop/internal/common"
	"github.com/MeKo-Tech/interop/internal/rendezvous"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var reportFormat string

// reportEntry is one timing record with its derived interval.
type reportEntry struct {
	File     string        `json:"file"`
	Start    uint64        `json:"start"`
	End      uint64        `json:"end"`
	Interval time.Duration `json:"interval_ns"`
}

var reportCmd = &cobra.Command{
	Use:   "report <file>...",
	Short: "Summarize timing records written by the client",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var entries []reportEntry
		for _, path := range args {
			records, err := readRecordFile(path)
			if err != nil {
				return err
			}
			for _, r := range records {
				entries = append(entries, reportEntry{File: path, Start: r.Start, End: r.End, Interval: r.Interval()})
			}
		}

		switch reportFormat {
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		case "table":
			return renderReport(cmd.OutOrStdout(), entries)
		default:
			return fmt.Errorf("invalid format: %s (must be one of: table, json)", reportFormat)
		}
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportFormat, "format", "table", "output format: table or json")
}

func readRecordFile(path string) ([]rendezvous.Record, error) {
	f, err := os.Open(path) //nolint:gosec // G304: operator supplied record file
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	records, err := rendezvous.ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

func renderReport(w io.Writer, entries []reportEntry) error {
	table := tablewriter.NewWriter(w)
	table.Header("File", "Start", "End", "Interval")
	intervals := make([]time.Duration, 0, len(entries))
	for _, e := range entries {
		intervals = append(intervals, e.Interval)
		if err := table.Append([]string{
			e.File,
			strconv.FormatUint(e.Start, 10),
			strconv.FormatUint(e.End, 10),
			e.Interval.String(),
		}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, common.Summarize(intervals))
	return err
}
