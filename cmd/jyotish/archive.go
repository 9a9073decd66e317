package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/seenimoa/jyotish/internal/chart"
	"github.com/seenimoa/jyotish/internal/storage"
	"github.com/seenimoa/jyotish/pkg/utils"
)

// --- Chart Commands (snapshots + archive) ---

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Save, load and browse chart snapshots",
	Long: `Chart snapshots hold metadata, planetary positions, divisional placements
and strengths. They are written as JSON files (zstd-compressed when the path
ends in .zst) or kept in the SQLite archive.

Examples:
  jyotish chart save --name Asha --at 1990-05-12T06:45 asha.json
  jyotish chart save --name Asha --at 1990-05-12T06:45          # into the archive
  jyotish chart load asha.json --archive
  jyotish chart list
  jyotish chart show 6f1c...`,
}

var chartSaveCmd = &cobra.Command{
	Use:   "save [file]",
	Short: "Compute a chart and save it to a file, or to the archive without one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := observerFrom(cmd)
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		n, err := chart.Compute(eph, o, nil)
		if err != nil {
			return err
		}
		rec := n.Record(name)

		if len(args) == 1 {
			if err := storage.Save(rec, args[0]); err != nil {
				return err
			}
			size := "?"
			if fi, err := os.Stat(args[0]); err == nil {
				size = humanize.Bytes(uint64(fi.Size()))
			}
			fmt.Printf("✅ Chart %q saved to %s (%s)\n", name, args[0], size)
			return nil
		}
		return archiveRecord(cmd, rec)
	},
}

var chartLoadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Read a snapshot file and print it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := storage.Load(args[0])
		if err != nil {
			return err
		}
		if add, _ := cmd.Flags().GetBool("archive"); add {
			if err := archiveRecord(cmd, rec); err != nil {
				return err
			}
		}
		return printRecord(cmd, rec)
	},
}

var chartListCmd = &cobra.Command{
	Use:   "list [name]",
	Short: "List archived charts, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := storage.OpenArchive(cfg.Storage.ArchivePath, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		entries, err := a.List(cmd.Context(), name)
		if err != nil {
			return err
		}
		if wantJSON(cmd) {
			return printJSON(entries)
		}
		if len(entries) == 0 {
			fmt.Println("No archived charts.")
			return nil
		}
		fmt.Printf("%-36s  %-16s %-20s %16s  %-14s %8s\n", "ID", "Name", "Birth", "Location", "Saved", "Size")
		for _, e := range entries {
			fmt.Printf("%-36s  %-16.16s %-20s %7.3f,%8.3f  %-14s %8s\n",
				e.ID, e.Name, e.Birth.Format("2006-01-02 15:04"), e.Latitude, e.Longitude,
				humanize.Time(e.CreatedAt), humanize.Bytes(uint64(e.Size)))
		}
		fmt.Printf("\n%s charts\n", humanize.Comma(int64(len(entries))))
		return nil
	},
}

var chartShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print an archived chart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := storage.OpenArchive(cfg.Storage.ArchivePath, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if out, _ := cmd.Flags().GetString("out"); out != "" {
			if err := storage.Save(rec, out); err != nil {
				return err
			}
			logger.Info("chart exported", "id", args[0], "path", out)
		}
		return printRecord(cmd, rec)
	},
}

var chartDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a chart from the archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := storage.OpenArchive(cfg.Storage.ArchivePath, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("🗑️  Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	addObserverFlags(chartSaveCmd)
	chartSaveCmd.Flags().String("name", "", "chart name")
	chartLoadCmd.Flags().Bool("archive", false, "also store the snapshot in the archive")
	chartShowCmd.Flags().String("out", "", "also write the snapshot to this file")

	chartCmd.AddCommand(chartSaveCmd)
	chartCmd.AddCommand(chartLoadCmd)
	chartCmd.AddCommand(chartListCmd)
	chartCmd.AddCommand(chartShowCmd)
	chartCmd.AddCommand(chartDeleteCmd)
}

func archiveRecord(cmd *cobra.Command, rec *storage.Record) error {
	a, err := storage.OpenArchive(cfg.Storage.ArchivePath, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.Put(cmd.Context(), rec)
	if err != nil {
		return err
	}
	fmt.Printf("✅ Chart %q archived as %s\n", rec.Name(), id)
	return nil
}

func printRecord(cmd *cobra.Command, rec *storage.Record) error {
	if wantJSON(cmd) {
		return printJSON(rec)
	}
	lat, lon := rec.Location()
	when := "unknown"
	if t, err := rec.DateTime(); err == nil {
		when = utils.FormatDateTime(t)
	}

	fmt.Println("═══════════════════════════════════════")
	fmt.Printf("  %s\n", rec.Name())
	fmt.Println("═══════════════════════════════════════")
	fmt.Printf("  Born:      %s\n", when)
	fmt.Printf("  Location:  %.4f, %.4f\n", lat, lon)
	fmt.Printf("  Divisions: %d\n", len(rec.DivisionalPositions))
	fmt.Println()
	for _, r := range rec.PlanetaryPositions {
		fmt.Printf("  %-9s %-20s", r.Planet, signDegree(r.Longitude))
		if r.Retrograde {
			fmt.Print(" R")
		}
		fmt.Println()
	}
	if len(rec.Strengths.Shadbala) > 0 {
		fmt.Println("\n  Shadbala totals:")
		for _, s := range rec.Strengths.Shadbala {
			fmt.Printf("    %-8s %8.2f\n", s.Planet, s.Total)
		}
	}
	return nil
}
