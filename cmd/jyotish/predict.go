package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/jyotish/internal/calendar"
	"github.com/seenimoa/jyotish/internal/chart"
	"github.com/seenimoa/jyotish/internal/dasha"
	"github.com/seenimoa/jyotish/internal/predictor"
)

// --- Predict Command ---

var predictCmd = &cobra.Command{
	Use:   "predict [activity]",
	Short: "Rank time windows for an activity",
	Long: `Scan a time range in fixed intervals and rank them for an activity.

Known activities: ` + strings.Join(predictor.ActivityNames(), ", ") + `.
Unknown activities are scored on Jupiter alone.

Examples:
  jyotish predict Business --at 2024-03-15 --hours 24
  jyotish predict Marriage --at 2024-06-01 --hours 72 --interval 120 --top 5
  jyotish predict Travel --birth 1990-05-12T06:45 --ics travel.ics`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		req, err := predictRequest(cmd, args[0])
		if err != nil {
			return err
		}
		windows, err := runPrediction(ctx, req)
		if err != nil {
			return err
		}

		top := cfg.Predictor.Top
		if cmd.Flags().Changed("top") {
			top, _ = cmd.Flags().GetInt("top")
		}
		shown := windows
		if top > 0 && top < len(shown) {
			shown = shown[:top]
		}

		if path, _ := cmd.Flags().GetString("ics"); path != "" {
			b := calendar.New(req.Activity + " windows")
			b.AddWindows(req.Activity, windows, top)
			if err := writeCalendar(b, path); err != nil {
				return err
			}
			logger.Info("prediction exported", "path", path, "events", b.Len())
		}

		if wantJSON(cmd) {
			return printJSON(shown)
		}
		fmt.Printf("%s: %d intervals from %s to %s\n\n", req.Activity, len(windows),
			req.Start.Format("2006-01-02 15:04"), req.End.Format("2006-01-02 15:04 -07:00"))
		for i, w := range shown {
			fmt.Printf("%3d. %s – %s  score %8.2f", i+1, w.Start.Format("Jan 02 15:04"), w.End.Format("15:04"), w.Score)
			if w.Multiplier != 1 {
				fmt.Printf("  (raw %.2f × %.2f)", w.RawScore, w.Multiplier)
			}
			fmt.Println()
			fmt.Printf("     %s\n", w.Explanation)
		}
		return nil
	},
}

func init() {
	addObserverFlags(predictCmd)
	predictCmd.Flags().Int("hours", 24, "length of the scanned range from --at")
	predictCmd.Flags().Int("interval", 0, "interval width in minutes (default from config)")
	predictCmd.Flags().Int("top", 0, "windows to show, 0 = all (default from config)")
	predictCmd.Flags().String("birth", "", "birth instant for dasha and Ashtakavarga scoring")
	predictCmd.Flags().Float64("birth-lat", 0, "birth latitude (default: --lat)")
	predictCmd.Flags().Float64("birth-lon", 0, "birth longitude (default: --lon)")
	predictCmd.Flags().String("ics", "", "also write the ranked windows to this iCalendar file")
}

// predictRequest builds the scan request from flags. --at defaults to the
// start of the current local day.
func predictRequest(cmd *cobra.Command, activity string) (predictor.Request, error) {
	o, err := observerFrom(cmd)
	if err != nil {
		return predictor.Request{}, err
	}
	start := o.At
	if !cmd.Flags().Changed("at") {
		start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	}
	hours, _ := cmd.Flags().GetInt("hours")
	interval, _ := cmd.Flags().GetInt("interval")

	req := predictor.Request{
		Activity:        activity,
		Start:           start,
		End:             start.Add(time.Duration(hours) * time.Hour),
		Latitude:        o.Latitude,
		Longitude:       o.Longitude,
		TZOffsetHours:   o.TZ(),
		IntervalMinutes: interval,
	}

	if s, _ := cmd.Flags().GetString("birth"); s != "" {
		bt, err := chart.ParseInstant(s, o.TZOffsetHours)
		if err != nil {
			return req, fmt.Errorf("birth: %w", err)
		}
		lat, lon := o.Latitude, o.Longitude
		if cmd.Flags().Changed("birth-lat") {
			lat, _ = cmd.Flags().GetFloat64("birth-lat")
		}
		if cmd.Flags().Changed("birth-lon") {
			lon, _ = cmd.Flags().GetFloat64("birth-lon")
		}
		if req.Birth, err = predictor.NewBirth(eph, bt, lat, lon); err != nil {
			return req, fmt.Errorf("birth chart: %w", err)
		}
	}
	return req, nil
}

func runPrediction(ctx context.Context, req predictor.Request) ([]predictor.Window, error) {
	p := predictor.New(eph, predictor.Config{
		Workers:         cfg.Predictor.Workers,
		IntervalMinutes: cfg.Predictor.IntervalMinutes,
		DashaLevels:     cfg.Predictor.DashaLevels,
		NatalThreshold:  cfg.Predictor.NatalThreshold,
		MaxIntervals:    cfg.Predictor.MaxIntervals,
	}, logger)
	return p.Predict(ctx, req)
}

// --- Export Command ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export charts and timelines to other formats",
}

var exportICSCmd = &cobra.Command{
	Use:   "ics [file]",
	Short: "Write the dasha timeline from a birth instant (--at) as iCalendar",
	Long: `Write Vimshottari dasha periods as iCalendar events.

Event UIDs are stable, so re-importing an updated export replaces events
rather than duplicating them.

Examples:
  jyotish export ics dasha.ics --at 1990-05-12T06:45 --levels 2
  jyotish export ics - --at 1990-05-12T06:45 > dasha.ics`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := observerFrom(cmd)
		if err != nil {
			return err
		}
		levels := cfg.Dasha.Levels
		if cmd.Flags().Changed("levels") {
			levels, _ = cmd.Flags().GetInt("levels")
		}
		tl, err := timelineFor(o, levels)
		if err != nil {
			return err
		}

		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			name = "Vimshottari dasha " + o.At.Format("2006-01-02")
		}
		b := calendar.New(name)
		n := b.AddDasha(tl, levels)
		if err := writeCalendar(b, args[0]); err != nil {
			return err
		}
		if args[0] != "-" {
			fmt.Printf("✅ %d %s events written to %s\n", n, levelSummary(levels), args[0])
		}
		return nil
	},
}

func init() {
	addObserverFlags(exportICSCmd)
	exportICSCmd.Flags().Int("levels", 0, "depth 1-5 (default from config)")
	exportICSCmd.Flags().String("name", "", "calendar name")
	exportCmd.AddCommand(exportICSCmd)
}

func levelSummary(levels int) string {
	if levels < 1 || levels > len(dasha.LevelNames) {
		return "dasha"
	}
	return strings.Join(dasha.LevelNames[:levels], "/")
}

// writeCalendar writes b to path, or stdout for "-".
func writeCalendar(b *calendar.Builder, path string) error {
	if path == "-" {
		return b.Encode(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := b.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
