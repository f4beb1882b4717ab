package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mchmarny/shortlist/pkg/config"
	"github.com/mchmarny/shortlist/pkg/data"
	"github.com/mchmarny/shortlist/pkg/logging"
	"github.com/mchmarny/shortlist/pkg/metrics"
	"github.com/mchmarny/shortlist/pkg/net"
	"github.com/mchmarny/shortlist/pkg/rank"
	"github.com/mchmarny/shortlist/pkg/report"
	"github.com/mchmarny/shortlist/pkg/score"
	"github.com/mchmarny/shortlist/pkg/source"
	urfave "github.com/urfave/cli/v3"
)

const (
	mapFull  = "full"
	mapEarly = "early"
)

// RankResult is the run summary printed after the report is written.
type RankResult struct {
	FundingPath string        `json:"funding_path" yaml:"fundingPath"`
	SignalPath  string        `json:"signal_path" yaml:"signalPath"`
	Output      string        `json:"output" yaml:"output"`
	FundingRows int           `json:"funding_rows" yaml:"fundingRows"`
	SignalRows  int           `json:"signal_rows" yaml:"signalRows"`
	Companies   int           `json:"companies" yaml:"companies"`
	EarlyStage  int           `json:"early_stage" yaml:"earlyStage"`
	Full        []rank.Ranked `json:"full" yaml:"full"`
	Early       []rank.Ranked `json:"early" yaml:"early"`
	Duration    string        `json:"duration" yaml:"duration"`

	// Decisions explains the score of every company, set with --explain.
	Decisions []score.Decision `json:"decisions,omitempty" yaml:"decisions,omitempty"`
}

type rankOptions struct {
	fundingPath string
	signalPath  string
	metricsPath string
	explain     bool
	cfg         *config.Config
}

func cmdRank(ctx context.Context, cmd *urfave.Command) error {
	if n := cmd.Args().Len(); n != 2 {
		return fmt.Errorf("%w: expected 2 arguments, got %d", ErrUsage, n)
	}

	cfg, err := config.Load(cmd.String(configFlag.Name))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if out := cmd.String(outputFlag.Name); out != "" {
		cfg.Output.Path = out
	}

	if !cmd.Bool(debugFlag.Name) && cfg.Logging.Level != "" {
		logging.SetDefaultCLILogger(cfg.Logging.Level)
	}

	res, err := runRank(ctx, &rankOptions{
		fundingPath: cmd.Args().Get(0),
		signalPath:  cmd.Args().Get(1),
		metricsPath: cmd.String(metricsFlag.Name),
		explain:     cmd.Bool(explainFlag.Name),
		cfg:         cfg,
	})
	if err != nil {
		return err
	}

	if err := encode(getWriter(cmd), cmd.String(formatFlag.Name), res); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}

	return nil
}

func runRank(ctx context.Context, opts *rankOptions) (*RankResult, error) {
	start := time.Now()
	cfg := opts.cfg
	m := metrics.NewRun()

	fundingPath, cleanup, err := resolveSource(ctx, opts.fundingPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch funding source: %w", err)
	}
	defer cleanup()

	slog.Info("reading funding source", "path", opts.fundingPath)
	funding, err := source.ReadFunding(ctx, fundingPath, fundingColumns(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to read funding source: %w", err)
	}
	m.ObserveRows("funding", len(funding.Rows))

	store, err := data.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open row store: %w", err)
	}
	defer store.Close()

	if err := store.SaveHeader(funding.Header); err != nil {
		return nil, fmt.Errorf("failed to save funding header: %w", err)
	}
	if err := store.SaveRows(funding.Rows); err != nil {
		return nil, fmt.Errorf("failed to save funding rows: %w", err)
	}

	signalPath, cleanupSignal, err := resolveSource(ctx, opts.signalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch signal source: %w", err)
	}
	defer cleanupSignal()

	slog.Info("reading signal source", "path", opts.signalPath)
	signals, err := source.ReadSignals(ctx, signalPath, signalColumns(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to read signal source: %w", err)
	}
	m.ObserveRows("signal", len(signals))

	in := score.Build(funding.Companies, signals, scoreRules(cfg))

	slog.Info("scoring companies", "companies", in.Full().Len(), "early_stage", in.Early().Len())
	full := score.Score(in, in.Full())
	early := score.Score(in, in.Early())

	res := &RankResult{
		FundingPath: opts.fundingPath,
		SignalPath:  opts.signalPath,
		Output:      cfg.Output.Path,
		FundingRows: len(funding.Rows),
		SignalRows:  len(signals),
		Companies:   full.Len(),
		EarlyStage:  early.Len(),
		Full:        rank.Rank(full),
		Early:       rank.Rank(early),
	}
	if opts.explain {
		res.Decisions = score.Explain(in, in.Full())
	}

	m.ObserveMap(mapFull, full.Len(), len(res.Full))
	m.ObserveMap(mapEarly, early.Len(), len(res.Early))

	header, err := store.Header()
	if err != nil {
		return nil, fmt.Errorf("failed to load funding header: %w", err)
	}

	sheets := []report.Sheet{
		{Name: cfg.Output.FullSheet, Ranking: res.Full},
		{Name: cfg.Output.EarlySheet, Ranking: res.Early},
	}

	slog.Info("writing report", "path", cfg.Output.Path, "full", len(res.Full), "early", len(res.Early))
	if err := report.Write(cfg.Output.Path, header, sheets, store, in.RowIndex); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	d := time.Since(start)
	res.Duration = d.String()
	m.Done(d, time.Now())

	if opts.metricsPath != "" {
		if err := m.WriteFile(opts.metricsPath); err != nil {
			return nil, fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	return res, nil
}

// resolveSource returns a local path for a source argument, downloading URLs
// to a temporary file removed by cleanup.
func resolveSource(ctx context.Context, path string) (local string, cleanup func(), err error) {
	if !net.IsURL(path) {
		return path, func() {}, nil
	}

	slog.Info("downloading source", "url", path)
	local, err = net.Download(ctx, path)
	if err != nil {
		return "", nil, err
	}

	return local, func() {
		if err := os.Remove(local); err != nil {
			slog.Debug("error removing downloaded source", "path", local, "error", err)
		}
	}, nil
}

func fundingColumns(cfg *config.Config) source.FundingColumns {
	return source.FundingColumns{
		Company:       cfg.Columns.Company,
		Investors:     cfg.Columns.Investors,
		FinancingSize: cfg.Columns.FinancingSize,
	}
}

func signalColumns(cfg *config.Config) source.SignalColumns {
	return source.SignalColumns{
		Position: cfg.Columns.Position,
		Score:    cfg.Columns.SignalScore,
		Tags:     cfg.Columns.Tags,
	}
}

func scoreRules(cfg *config.Config) score.Rules {
	return score.Rules{
		Tiers: score.Tiers{
			Top:   cfg.Tiers.Top,
			Tier1: cfg.Tiers.Tier1,
			Tier2: cfg.Tiers.Tier2,
		},
		TopScore:         cfg.Scoring.TopScore,
		Tier1MultiScore:  cfg.Scoring.Tier1MultiScore,
		Tier1SingleScore: cfg.Scoring.Tier1SingleScore,
		Tier2Score:       cfg.Scoring.Tier2Score,
		SignalWeight:     cfg.Scoring.SignalWeight,
		EarlyStageMax:    cfg.Scoring.EarlyStageMax,
		AcceleratorTag:   cfg.Scoring.AcceleratorTag,
	}
}
