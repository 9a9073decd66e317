package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/jyotish/internal/ashtakavarga"
	"github.com/seenimoa/jyotish/internal/chart"
	"github.com/seenimoa/jyotish/internal/dasha"
	"github.com/seenimoa/jyotish/internal/ephemeris"
	"github.com/seenimoa/jyotish/internal/panchang"
	"github.com/seenimoa/jyotish/internal/varga"
	"github.com/seenimoa/jyotish/internal/yoga"
	"github.com/seenimoa/jyotish/pkg/models"
)

func signDegree(lon float64) string {
	s := models.SignOf(lon)
	d := lon - float64(s.Index())*30
	deg := int(d)
	mins := int((d - float64(deg)) * 60)
	return fmt.Sprintf("%-11s %2d°%02d'", s, deg, mins)
}

// --- Positions Command ---

var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "Sidereal positions of the planets, nodes and upagrahas",
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := observerFrom(cmd)
		if err != nil {
			return err
		}
		n, err := chart.Compute(eph, o, []varga.Division{varga.Rasi})
		if err != nil {
			return err
		}
		rows := n.Rows()
		if wantJSON(cmd) {
			return printJSON(rows)
		}

		fmt.Printf("Positions at %s (%s, %s)\n\n", o.At.Format(time.RFC3339), eph.Name(), eph.Config().Ayanamsa)
		fmt.Printf("%-9s %10s  %-20s %9s  %s\n", "Planet", "Longitude", "Sign", "Speed", "")
		for _, r := range rows {
			retro := ""
			if r.Retrograde {
				retro = "R"
			}
			fmt.Printf("%-9s %10.4f  %-20s %9.4f  %s\n", r.Planet, r.Longitude, signDegree(r.Longitude), r.Speed, retro)
		}
		return nil
	},
}

// --- Houses Command ---

var housesCmd = &cobra.Command{
	Use:   "houses",
	Short: "House cusps, Ascendant and Midheaven",
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := observerFrom(cmd)
		if err != nil {
			return err
		}
		cusps, err := eph.HouseCusps(o.At, o.Latitude, o.Longitude)
		if err != nil {
			return err
		}
		if wantJSON(cmd) {
			return printJSON(cusps)
		}

		code := eph.Config().HouseSystem
		name, _ := ephemeris.HouseSystemName(code)
		fmt.Printf("Houses (%s, %s) at %s\n\n", code, name, o.At.Format(time.RFC3339))
		for h := 1; h <= 12; h++ {
			fmt.Printf("  %2d  %9.4f  %-20s lord %s\n", h, cusps.House(h), signDegree(cusps.House(h)), cusps.Lord(h))
		}
		fmt.Printf("\n  Asc %9.4f  %s\n", cusps.Asc, signDegree(cusps.Asc))
		fmt.Printf("  MC  %9.4f  %s\n", cusps.MC, signDegree(cusps.MC))
		return nil
	},
}

// --- Varga Command ---

var vargaCmd = &cobra.Command{
	Use:   "varga",
	Short: "Divisional chart placements",
	Long: `Compute divisional (varga) charts.

Examples:
  jyotish varga --div D9
  jyotish varga --div D1,D9,D10 --at 1990-05-12T06:45
  jyotish varga --all --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := observerFrom(cmd)
		if err != nil {
			return err
		}
		var divs []varga.Division
		if all, _ := cmd.Flags().GetBool("all"); !all {
			names, _ := cmd.Flags().GetStringSlice("div")
			if divs, err = varga.ParseDivisions(names); err != nil {
				return err
			}
		}
		n, err := chart.Compute(eph, o, divs)
		if err != nil {
			return err
		}
		if wantJSON(cmd) {
			return printJSON(n.Vargas.Table())
		}

		var last varga.Division
		for _, p := range n.Vargas.Rows() {
			if p.Division != last {
				fmt.Printf("\n%s\n", p.Division)
				last = p.Division
			}
			fmt.Printf("  %-9s %-11s %6.2f°  ruler %s\n", p.Planet, p.Sign, p.Degree, p.Ruler)
		}
		return nil
	},
}

func init() {
	vargaCmd.Flags().StringSlice("div", []string{"D1", "D9"}, "divisions to compute")
	vargaCmd.Flags().Bool("all", false, "compute every supported division")
}

// --- Dasha Command ---

var dashaCmd = &cobra.Command{
	Use:   "dasha",
	Short: "Vimshottari dasha timeline from a birth instant (--at)",
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

		if on, _ := cmd.Flags().GetString("on"); on != "" {
			t, err := chart.ParseInstant(on, o.TZOffsetHours)
			if err != nil {
				return err
			}
			return printActive(cmd, tl, t)
		}

		sorted := tl.Sorted()
		if wantJSON(cmd) {
			return printJSON(sorted)
		}
		for _, p := range sorted {
			fmt.Printf("%-16s %-8s %-8s %s  →  %s\n",
				dasha.LevelNames[p.Level-1], p.Lord, p.Parent,
				p.Start.Format("2006-01-02 15:04"), p.End.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	dashaCmd.Flags().Int("levels", 0, "depth 1-5 (default from config)")
	dashaCmd.Flags().String("on", "", "show only the periods active at this instant")
}

func timelineFor(o chart.Observer, levels int) (dasha.Timeline, error) {
	n, err := chart.Compute(eph, o, []varga.Division{varga.Rasi})
	if err != nil {
		return nil, err
	}
	return n.Dasha(levels)
}

func printActive(cmd *cobra.Command, tl dasha.Timeline, t time.Time) error {
	var chain []dasha.Period
	for level := 1; level <= tl.MaxLevel(); level++ {
		if p, ok := tl.Active(t, level); ok {
			chain = append(chain, p)
		}
	}
	if wantJSON(cmd) {
		return printJSON(chain)
	}
	if len(chain) == 0 {
		fmt.Println("No dasha period covers", t.Format(time.RFC3339))
		return nil
	}
	lords := make([]string, len(chain))
	for i, p := range chain {
		lords[i] = string(p.Lord)
	}
	fmt.Printf("%s: %s\n", t.Format(time.RFC3339), strings.Join(lords, " / "))
	for _, p := range chain {
		fmt.Printf("  %-16s %-8s until %s\n", dasha.LevelNames[p.Level-1], p.Lord, p.End.Format("2006-01-02"))
	}
	return nil
}

// --- Strength Command ---

var strengthCmd = &cobra.Command{
	Use:   "strength",
	Short: "Shadbala, Bhavabala and Ishta/Kashta",
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := observerFrom(cmd)
		if err != nil {
			return err
		}
		n, err := chart.Compute(eph, o, nil)
		if err != nil {
			return err
		}
		calc := n.Strength()
		shad, bhava, ishta := calc.Shadbala(), calc.Bhavabala(), calc.IshtaKashta()
		if wantJSON(cmd) {
			return printJSON(map[string]any{"shadbala": shad, "bhavabala": bhava, "ishta_kashta": ishta})
		}

		fmt.Println("Shadbala")
		fmt.Printf("  %-8s %8s %8s %8s %8s %8s %8s %8s %9s\n",
			"Planet", "Sthana", "Dig", "Kala", "Ayana", "Cheshta", "Naisarg", "Drig", "Total")
		for _, s := range shad {
			fmt.Printf("  %-8s %8.2f %8.2f %8.2f %8.2f %8.2f %8.2f %8.2f %9.2f\n",
				s.Planet, s.Sthana, s.Dig, s.Kala, s.Ayana, s.Cheshta, s.Naisargika, s.Drig, s.Total)
		}
		fmt.Println("\nBhavabala")
		for _, h := range bhava {
			fmt.Printf("  %2d  %-8s %9.2f\n", h.House, h.Lord, h.Strength)
		}
		fmt.Println("\nIshta / Kashta")
		for _, ik := range ishta {
			fmt.Printf("  %-8s %7.2f %7.2f  ratio %.3f\n", ik.Planet, ik.Ishta, ik.Kashta, ik.Ratio)
		}
		return nil
	},
}

// --- Ashtakavarga Command ---

var ashtakavargaCmd = &cobra.Command{
	Use:   "ashtakavarga",
	Short: "Bhinnashtakavarga and Sarvashtakavarga bindu tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := observerFrom(cmd)
		if err != nil {
			return err
		}
		n, err := chart.Compute(eph, o, []varga.Division{varga.Rasi})
		if err != nil {
			return err
		}
		bav, sav := n.Ashtakavarga()

		planet, _ := cmd.Flags().GetString("planet")
		if planet != "" {
			b, err := models.ParseBody(planet)
			if err != nil {
				return err
			}
			c, ok := bav[b]
			if !ok {
				return fmt.Errorf("no Bhinnashtakavarga for %s", b)
			}
			if wantJSON(cmd) {
				return printJSON(c)
			}
			printBinduRows(string(b)+" Bhinnashtakavarga", c.Rows, c.Total)
			return nil
		}

		if wantJSON(cmd) {
			return printJSON(sav)
		}
		printBinduRows("Sarvashtakavarga", sav.Rows, sav.Total)
		return nil
	},
}

func init() {
	ashtakavargaCmd.Flags().String("planet", "", "show one planet's Bhinnashtakavarga")
}

func printBinduRows(title string, rows []ashtakavarga.Row, total [12]int) {
	fmt.Println(title)
	fmt.Printf("  %-8s", "")
	for s := models.Aries; s <= models.Pisces; s++ {
		fmt.Printf(" %3.3s", s)
	}
	fmt.Printf(" %5s\n", "Sum")
	line := func(name string, b [12]int) {
		fmt.Printf("  %-8s", name)
		n := 0
		for _, v := range b {
			fmt.Printf(" %3d", v)
			n += v
		}
		fmt.Printf(" %5d\n", n)
	}
	for _, r := range rows {
		line(string(r.Body), r.Bindus)
	}
	line("Total", total)
}

// --- Panchang Command ---

var panchangCmd = &cobra.Command{
	Use:   "panchang",
	Short: "Tithi, nakshatra, yoga, karana and daily periods",
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := observerFrom(cmd)
		if err != nil {
			return err
		}
		d, err := panchang.New(eph).Compute(o.At, o.Latitude, o.Longitude, o.TZ())
		if err != nil {
			return err
		}
		if wantJSON(cmd) {
			return printJSON(d)
		}
		fmt.Printf("Panchang for %s (%.4f, %.4f)\n\n", o.At.Format("2006-01-02 15:04 -07:00"), o.Latitude, o.Longitude)
		for _, r := range d.Rows() {
			fmt.Printf("  %-16s %s\n", r.Metric, r.Value)
		}
		return nil
	},
}

// --- Yoga Command ---

var yogaCmd = &cobra.Command{
	Use:   "yoga",
	Short: "Detect yogas from the configured rule file",
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := observerFrom(cmd)
		if err != nil {
			return err
		}
		rules := cfg.Yoga.RulesFile
		if cmd.Flags().Changed("rules") {
			rules, _ = cmd.Flags().GetString("rules")
		}
		det, err := yoga.LoadFile(rules, logger)
		if err != nil {
			return err
		}
		n, err := chart.Compute(eph, o, []varga.Division{varga.Rasi})
		if err != nil {
			return err
		}
		matches := n.Yogas(det)
		if wantJSON(cmd) {
			return printJSON(matches)
		}
		if len(matches) == 0 {
			fmt.Printf("No yogas among %d rules\n", len(det.Yogas()))
			return nil
		}
		for _, m := range matches {
			fmt.Printf("  ✅ %-22s %s\n", m.Yoga, m.Description)
		}
		return nil
	},
}

func init() {
	yogaCmd.Flags().String("rules", "", "yoga rule file, YAML or JSON (default from config)")

	for _, c := range []*cobra.Command{
		positionsCmd, housesCmd, vargaCmd, dashaCmd, strengthCmd,
		ashtakavargaCmd, panchangCmd, yogaCmd,
	} {
		addObserverFlags(c)
	}
}
