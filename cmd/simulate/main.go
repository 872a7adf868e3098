package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/choozi/internal/simulate"
	"github.com/okian/choozi/pkg/logger"
)

func main() {
	def := simulate.DefaultConfig()
	var (
		rounds  = flag.Int("rounds", def.Rounds, "Number of rounds to play")
		seed    = flag.Uint64("seed", def.Seed, "Seed for the script generator")
		fingers = flag.Int("fingers", def.MaxFingers, "Maximum fingers per round")
		lift    = flag.Float64("lift", def.EarlyLiftRate, "Probability of an early lift per round")
		late    = flag.Float64("late", def.LateArrivalRate, "Probability of a late arrival per round")
		moves   = flag.Int("moves", def.MaxMoves, "Maximum moves per finger")
		sound   = flag.Bool("sound", def.Sound, "Reveal sound preference")
		output  = flag.String("output", "", "Write the full JSON report to this file")
		logFile = flag.String("log", "", "Also write logs to this file")
		format  = flag.String("format", string(logger.FormatText), "Log format: text or json")
		verbose = flag.Bool("verbose", false, "Log every round")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp()
		return
	}

	if err := simulate.SetupLogging(*logFile, logger.Format(*format)); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := &simulate.Config{
		Rounds:          *rounds,
		Seed:            *seed,
		MaxFingers:      *fingers,
		Width:           def.Width,
		Height:          def.Height,
		EarlyLiftRate:   *lift,
		LateArrivalRate: *late,
		MaxMoves:        *moves,
		Sound:           *sound,
		OutputFile:      *output,
		Verbose:         *verbose,
	}

	if _, err := simulate.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
