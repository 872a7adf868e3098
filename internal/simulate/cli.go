package simulate

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/okian/choozi/pkg/logger"
)

// SetupLogging initializes the global logger on stdout and, when logFile
// is set, on that file too.
func SetupLogging(logFile string, format logger.Format) error {
	var w io.Writer = os.Stdout
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermission)
		if err != nil {
			return fmt.Errorf("failed to create log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, file)
	}
	if err := logger.InitWith(w, format); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if logFile != "" {
		logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	}
	return nil
}

// ShowHelp prints usage information for the simulator.
func ShowHelp() {
	os.Stdout.WriteString(`choozi round simulator
======================

Plays scripted rounds against a game session on a virtual clock and checks
each winner and the reveal timing.

Usage:
  go run ./cmd/simulate [options]

Options:
  -rounds int
        Number of rounds to play (default 100)
  -seed uint
        Seed for the script generator (default 1)
  -fingers int
        Maximum fingers per round (default 6)
  -lift float
        Probability of an early lift per round (default 0.25)
  -late float
        Probability of a late arrival per round (default 0.25)
  -moves int
        Maximum moves per finger (default 3)
  -sound
        Reveal sound preference (default true)
  -output string
        Write the full JSON report to this file
  -log string
        Also write logs to this file
  -format string
        Log format: text or json (default "text")
  -verbose
        Log every round
  -help
        Show this help message

Examples:
  # Reproduce a run
  go run ./cmd/simulate -seed 42 -rounds 1000

  # Keep the timelines for inspection
  go run ./cmd/simulate -rounds 10 -output out/report.json -verbose
`)
}
