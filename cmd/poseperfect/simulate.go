package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-poseperfect/pkg/game"
	"github.com/teslashibe/go-poseperfect/pkg/pose"
	"github.com/teslashibe/go-poseperfect/pkg/sim"
	"github.com/teslashibe/go-poseperfect/pkg/track"
)

var simOpts struct {
	sessions  int
	accuracy  float64
	preset    string
	tolerance float64
	maxPlay   time.Duration
	missEnds  bool
	seed      uint64
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Play headless sessions with a scripted player",
	Long:  "Plays sessions on a simulated clock to compare difficulty presets and tolerances.",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		cfg := sim.DefaultConfig()
		if cfg.Track, err = track.Preset(simOpts.preset); err != nil {
			return err
		}
		cfg.Rules.Tolerance = simOpts.tolerance
		cfg.Rules.MissEndsGame = simOpts.missEnds
		cfg.Accuracy = simOpts.accuracy
		cfg.MaxPlayTime = simOpts.maxPlay
		cfg.Seed = simOpts.seed

		s, err := sim.New(cfg, catalog)
		if err != nil {
			return err
		}

		bar := progressbar.NewOptions(simOpts.sessions,
			progressbar.OptionSetDescription("Simulating"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
		)
		sum, err := s.Run(cmd.Context(), simOpts.sessions, func(game.Stats) {
			bar.Add(1)
		})
		bar.Finish()
		fmt.Fprintln(os.Stderr)
		if sum.Sessions == 0 {
			return err
		}

		fmt.Printf("Sessions:      %d\n", sum.Sessions)
		fmt.Printf("Average score: %.2f\n", sum.MeanScore)
		fmt.Printf("Best score:    %d\n", sum.BestScore)

		reasons := make([]string, 0, len(sum.Reasons))
		for r := range sum.Reasons {
			reasons = append(reasons, r)
		}
		sort.Strings(reasons)
		for _, r := range reasons {
			fmt.Printf("  %-14s %d\n", r, sum.Reasons[r])
		}
		return err
	},
}

func init() {
	f := simulateCmd.Flags()
	f.IntVarP(&simOpts.sessions, "sessions", "n", 100, "Number of sessions")
	f.Float64Var(&simOpts.accuracy, "accuracy", 0.9, "Chance the player holds the right pose at contact")
	f.StringVar(&simOpts.preset, "preset", "default", "Difficulty preset (default, casual, arcade)")
	f.Float64Var(&simOpts.tolerance, "tolerance", pose.DefaultTolerance, "Max per-feature angle error in degrees")
	f.DurationVar(&simOpts.maxPlay, "max-play", 10*time.Minute, "Stop sessions that last longer than this")
	f.BoolVar(&simOpts.missEnds, "miss-ends-game", false, "End the session when an obstacle passes untouched")
	f.Uint64Var(&simOpts.seed, "seed", 0, "Random seed (0 = random)")
	rootCmd.AddCommand(simulateCmd)
}
