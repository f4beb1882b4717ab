package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultOutputPath = "Ranking.xlsx"
	defaultFullSheet  = "Full Ranking"
	defaultEarlySheet = "Early Stage Ranking"
)

// Config represents the ranking configuration. Every field has a built-in
// default, so a run without a config file uses Default().
type Config struct {
	Tiers   Tiers   `yaml:"tiers"`
	Scoring Scoring `yaml:"scoring"`
	Columns Columns `yaml:"columns"`
	Output  Output  `yaml:"output"`
	Logging Logging `yaml:"logging"`
}

// Tiers lists investor names per weight class.
type Tiers struct {
	Top   []string `yaml:"top"`
	Tier1 []string `yaml:"tier1"`
	Tier2 []string `yaml:"tier2"`
}

// Scoring holds the numeric rules of the scoring pass.
type Scoring struct {
	TopScore         float64 `yaml:"top_score"`
	Tier1MultiScore  float64 `yaml:"tier1_multi_score"`
	Tier1SingleScore float64 `yaml:"tier1_single_score"`
	Tier2Score       float64 `yaml:"tier2_score"`
	SignalWeight     float64 `yaml:"signal_weight"` // share of the signal score in the blend
	EarlyStageMax    float64 `yaml:"early_stage_max_financing"`
	AcceleratorTag   string  `yaml:"accelerator_tag"`
}

// Columns maps source headers to the fields the ranking reads.
type Columns struct {
	Company       string `yaml:"company"`
	Investors     string `yaml:"investors"`
	FinancingSize string `yaml:"financing_size"`
	Position      string `yaml:"position"`
	SignalScore   string `yaml:"signal_score"`
	Tags          string `yaml:"tags"`
}

// Output holds report settings.
type Output struct {
	Path       string `yaml:"path"`
	FullSheet  string `yaml:"full_sheet"`
	EarlySheet string `yaml:"early_sheet"`
}

// Logging holds logging settings.
type Logging struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Tiers: Tiers{
			Top: []string{
				"Y Combinator",
				"Andreessen Horowitz",
				"Sequoia Capital",
			},
			Tier1: []string{
				"Swisscom Ventures",
				"Redalpine Venture Partners",
				"HV Capital",
				"Wingman Ventures",
				"btov Partners",
				"Lakestar",
				"VI Partners",
				"Techstars",
				"EPFL Innovation Park",
				"Global Founders Capital",
			},
			Tier2: []string{
				"F10",
				"Venture Kick",
				"EIC Accelerator",
				"Fongit",
				"ESA BIC Switzerland",
				"Fondation pour l'Innovation Technologique",
			},
		},
		Scoring: Scoring{
			TopScore:         30,
			Tier1MultiScore:  9,
			Tier1SingleScore: 8,
			Tier2Score:       7,
			SignalWeight:     0.5,
			EarlyStageMax:    15,
			AcceleratorTag:   "YC",
		},
		Columns: Columns{
			Company:       "Companies",
			Investors:     "Active Investors",
			FinancingSize: "Last Financing Size",
			Position:      "New Position",
			SignalScore:   "Signal Score",
			Tags:          "Tags",
		},
		Output: Output{
			Path:       defaultOutputPath,
			FullSheet:  defaultFullSheet,
			EarlySheet: defaultEarlySheet,
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path on top of Default(). An empty path returns
// the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return c, nil
}

// Validate checks the values Load cannot fill in by itself.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config required")
	}

	s := c.Scoring
	if s.SignalWeight < 0 || s.SignalWeight > 1 {
		return fmt.Errorf("scoring.signal_weight must be within [0, 1], got %v", s.SignalWeight)
	}
	if s.TopScore < 0 || s.Tier1MultiScore < 0 || s.Tier1SingleScore < 0 || s.Tier2Score < 0 {
		return errors.New("scoring tier scores must not be negative")
	}
	if strings.TrimSpace(s.AcceleratorTag) == "" {
		return errors.New("scoring.accelerator_tag is required")
	}

	cols := map[string]string{
		"company":        c.Columns.Company,
		"investors":      c.Columns.Investors,
		"financing_size": c.Columns.FinancingSize,
		"position":       c.Columns.Position,
		"signal_score":   c.Columns.SignalScore,
		"tags":           c.Columns.Tags,
	}
	for k, v := range cols {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("columns.%s is required", k)
		}
	}

	if c.Output.Path == "" {
		return errors.New("output.path is required")
	}
	if c.Output.FullSheet == "" || c.Output.EarlySheet == "" {
		return errors.New("output sheet names are required")
	}
	if c.Output.FullSheet == c.Output.EarlySheet {
		return fmt.Errorf("output sheet names must differ, both are %q", c.Output.FullSheet)
	}

	return nil
}
