// Command jyotish is the Vedic chart computation engine.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/jyotish/internal/chart"
	"github.com/seenimoa/jyotish/internal/config"
	"github.com/seenimoa/jyotish/internal/ephemeris"
	"github.com/seenimoa/jyotish/internal/logging"
	"github.com/seenimoa/jyotish/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Process-wide state set up by the root command.
var (
	cfg    *config.Config
	logger *slog.Logger
	eph    ephemeris.Provider
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "jyotish",
	Short: "jyotish — Vedic chart computation engine",
	Long: `jyotish computes sidereal planetary positions, divisional charts,
Ashtakavarga, Vimshottari dasha, Shadbala and Panchang, detects yogas,
and ranks time windows for activities.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err = logging.Setup(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return err
		}

		p, err := ephemeris.New(cfg.EphemerisSettings(), logger)
		if err != nil {
			return fmt.Errorf("ephemeris: %w", err)
		}
		eph = ephemeris.NewCached(p, 0)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("json", false, "print JSON instead of tables")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(positionsCmd)
	rootCmd.AddCommand(housesCmd)
	rootCmd.AddCommand(vargaCmd)
	rootCmd.AddCommand(dashaCmd)
	rootCmd.AddCommand(strengthCmd)
	rootCmd.AddCommand(ashtakavargaCmd)
	rootCmd.AddCommand(panchangCmd)
	rootCmd.AddCommand(yogaCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(chartCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("jyotish %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show ephemeris strategy and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		ec := eph.Config()
		houses, _ := ephemeris.HouseSystemName(ec.HouseSystem)

		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  jyotish — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Time (IST):    %s\n", utils.FormatDateTimeIST(utils.NowIST()))
		fmt.Println()

		fmt.Println("  Ephemeris:")
		fmt.Printf("    Strategy:      %s\n", eph.Name())
		fmt.Printf("    Ayanamsa:      %s (%.4f°)\n", ec.Ayanamsa, ephemeris.AyanamsaAt(ec.Ayanamsa, time.Now()))
		fmt.Printf("    House system:  %s (%s)\n", ec.HouseSystem, houses)
		fmt.Printf("    Backends:      %s\n", listOrNone(ephemeris.BackendNames()))
		fmt.Println()
		fmt.Printf("  API Server:      %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Printf("  Archive:         %s\n", cfg.Storage.ArchivePath)
		fmt.Println()

		fmt.Println("  Settings:")
		for _, s := range config.Sources(cfg) {
			src := string(s.Source)
			if s.Source == config.SourceEnv {
				src = "env: " + s.EnvVar
			}
			fmt.Printf("    %-25s %-22s (%s)\n", s.Key+":", s.Value, src)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

// --- shared flag handling ---

// addObserverFlags registers --at/--lat/--lon/--tz on cmd.
func addObserverFlags(cmd *cobra.Command) {
	cmd.Flags().String("at", "", "instant, e.g. 2024-03-15T10:30 or RFC3339 (default: now)")
	cmd.Flags().Float64("lat", 0, "latitude in degrees, north positive (default from config)")
	cmd.Flags().Float64("lon", 0, "longitude in degrees, east positive (default from config)")
	cmd.Flags().Float64("tz", 0, "UTC offset in hours (default from config)")
}

// observerFrom resolves the observer flags against the configured location.
func observerFrom(cmd *cobra.Command) (chart.Observer, error) {
	o := chart.Observer{
		Latitude:      cfg.Location.Latitude,
		Longitude:     cfg.Location.Longitude,
		TZOffsetHours: cfg.Location.TZOffsetHours,
	}
	if cmd.Flags().Changed("lat") {
		o.Latitude, _ = cmd.Flags().GetFloat64("lat")
	}
	if cmd.Flags().Changed("lon") {
		o.Longitude, _ = cmd.Flags().GetFloat64("lon")
	}
	if cmd.Flags().Changed("tz") {
		o.TZOffsetHours, _ = cmd.Flags().GetFloat64("tz")
	}
	if err := o.Validate(); err != nil {
		return o, err
	}

	at, _ := cmd.Flags().GetString("at")
	t, err := chart.ParseInstant(at, o.TZOffsetHours)
	if err != nil {
		return o, err
	}
	o.At = t
	return o, nil
}

func wantJSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func listOrNone(names []string) string {
	if len(names) == 0 {
		return "none (approximate formulas)"
	}
	return fmt.Sprint(names)
}
