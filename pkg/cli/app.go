package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mchmarny/shortlist/pkg/logging"
	urfave "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	appName = "shortlist"

	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""

	// ErrUsage is returned when the command is not given exactly the funding
	// and signal source paths.
	ErrUsage = errors.New("usage: shortlist <funding-source-path> <signal-source-path>")

	debugFlag = &urfave.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs (optional, default: false)",
	}

	configFlag = &urfave.StringFlag{
		Name:  "config",
		Usage: "Path to a YAML file overriding investor tiers, scoring rules and column names",
	}

	outputFlag = &urfave.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Path of the xlsx report (default: Ranking.xlsx)",
	}

	formatFlag = &urfave.StringFlag{
		Name:  "format",
		Usage: "Run summary format [json, yaml]",
		Value: formatJSON,
	}

	explainFlag = &urfave.BoolFlag{
		Name:  "explain",
		Usage: "Adds the per-company scoring breakdown to the run summary",
	}

	metricsFlag = &urfave.StringFlag{
		Name:  "metrics-file",
		Usage: "Write Prometheus run metrics to this file (textfile collector format)",
	}
)

// Execute creates and runs the CLI application.
func Execute() {
	initLogging(false)

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func newApp() *urfave.Command {
	return &urfave.Command{
		Name:            appName,
		Version:         fmt.Sprintf("%s (%s - %s)", version, commit, date),
		Usage:           "Rank startups by investor tier and talent signal into a top-quartile shortlist",
		ArgsUsage:       "<funding-source-path> <signal-source-path>",
		HideHelpCommand: true,
		Flags: []urfave.Flag{
			debugFlag,
			configFlag,
			outputFlag,
			formatFlag,
			explainFlag,
			metricsFlag,
		},
		Before: func(ctx context.Context, cmd *urfave.Command) (context.Context, error) {
			if cmd.Bool(debugFlag.Name) {
				initLogging(true)
			}
			return ctx, nil
		},
		Action: cmdRank,
	}
}

func initLogging(debug bool) {
	level := "info"
	if debug {
		level = "debug"
	}
	logging.SetDefaultCLILogger(level)
}

func getWriter(cmd *urfave.Command) io.Writer {
	if cmd.Writer != nil {
		return cmd.Writer
	}
	return os.Stdout
}

func encode(w io.Writer, format string, v any) error {
	if format == formatYAML || format == "yml" {
		return yaml.NewEncoder(w).Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
