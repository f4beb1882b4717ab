package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/mchmarny/shortlist/pkg/score"
	"github.com/mchmarny/shortlist/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

const (
	testFunding = `Companies,Active Investors,Last Financing Size,Website
Acme AG,"Sequoia Capital, F10",20,acme.ch
Beta (Switzerland),Lakestar,5,beta.ch
Gamma: Robotics,"HV Capital, Lakestar",,gamma.ch
Delta SA,F10,,delta.ch
Epsilon,Unknown Fund,100,eps.ch
Zeta,Unknown Fund,1,zeta.ch
`
	testSignals = `New Position,Signal Score,Tags
Beta,60,Fintech
Delta AG,20,"YC W22, Health"
Epsilon: CEO,90,AI
Zeta (YC),10,YC S21
Omega,99,YC
`
)

func TestMain(m *testing.M) {
	initLogging(false)
	os.Exit(m.Run())
}

type testEnv struct {
	dir     string
	funding string
	signals string
	output  string
}

func setupTestEnv(t *testing.T, funding, signals string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	e := &testEnv{
		dir:     dir,
		funding: filepath.Join(dir, "funding.csv"),
		signals: filepath.Join(dir, "signals.csv"),
		output:  filepath.Join(dir, "Ranking.xlsx"),
	}
	require.NoError(t, os.WriteFile(e.funding, []byte(funding), 0600))
	require.NoError(t, os.WriteFile(e.signals, []byte(signals), 0600))
	return e
}

func runApp(t *testing.T, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	var buf bytes.Buffer
	app := newApp()
	app.Writer = &buf
	err := app.Run(context.Background(), append([]string{appName}, args...))
	return &buf, err
}

func TestRank_EndToEnd(t *testing.T) {
	e := setupTestEnv(t, testFunding, testSignals)

	out, err := runApp(t, "--output", e.output, e.funding, e.signals)
	require.NoError(t, err)

	var res RankResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))

	assert.Equal(t, 6, res.FundingRows)
	assert.Equal(t, 5, res.SignalRows)
	assert.Equal(t, 6, res.Companies)
	assert.Equal(t, 4, res.EarlyStage)

	// Epsilon 45, Beta 34, Acme 30, Zeta 30, Delta 13.5, Gamma 9
	require.Len(t, res.Full, 2)
	assert.Equal(t, "Epsilon", res.Full[0].Company)
	assert.InDelta(t, 45.0, res.Full[0].Score, 1e-9)
	assert.Equal(t, 1, res.Full[0].Rank)
	assert.Equal(t, "Beta", res.Full[1].Company)
	assert.InDelta(t, 34.0, res.Full[1].Score, 1e-9)
	assert.Equal(t, 2, res.Full[1].Rank)

	// Beta 34, Zeta 30, Delta 13.5, Gamma 9
	require.Len(t, res.Early, 1)
	assert.Equal(t, "Beta", res.Early[0].Company)

	f, err := excelize.OpenFile(e.output)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Full Ranking", "Early Stage Ranking"}, f.GetSheetList())

	header := []string{"Companies", "Active Investors", "Last Financing Size", "Website"}

	full, err := f.GetRows("Full Ranking")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		header,
		{"Epsilon", "Unknown Fund", "100", "eps.ch"},
		{"Beta (Switzerland)", "Lakestar", "5", "beta.ch"},
	}, full)

	early, err := f.GetRows("Early Stage Ranking")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		header,
		{"Beta (Switzerland)", "Lakestar", "5", "beta.ch"},
	}, early)
}

func TestRank_YAMLFormat(t *testing.T) {
	e := setupTestEnv(t, testFunding, testSignals)

	out, err := runApp(t, "--output", e.output, "--format", "yaml", e.funding, e.signals)
	require.NoError(t, err)

	var res RankResult
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, 6, res.Companies)
	require.Len(t, res.Full, 2)
	assert.Equal(t, "Epsilon", res.Full[0].Company)
}

func TestRank_Config(t *testing.T) {
	e := setupTestEnv(t, testFunding, testSignals)
	cfgPath := filepath.Join(e.dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
tiers:
  top: ["Unknown Fund"]
output:
  full_sheet: All
  early_sheet: Early
`), 0600))

	out, err := runApp(t, "--config", cfgPath, "--output", e.output, e.funding, e.signals)
	require.NoError(t, err)

	var res RankResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))

	// Beta 34, Epsilon 30, Zeta 30, Delta 13.5, Gamma 9, Acme 7
	require.Len(t, res.Full, 2)
	assert.Equal(t, "Beta", res.Full[0].Company)
	assert.Equal(t, "Epsilon", res.Full[1].Company)
	assert.Equal(t, 30.0, res.Full[1].Score)

	f, err := excelize.OpenFile(e.output)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"All", "Early"}, f.GetSheetList())
}

func TestRank_Explain(t *testing.T) {
	e := setupTestEnv(t, testFunding, testSignals)

	out, err := runApp(t, "--output", e.output, e.funding, e.signals)
	require.NoError(t, err)
	assert.NotContains(t, out.String(), "decisions")

	out, err = runApp(t, "--output", e.output, "--explain", e.funding, e.signals)
	require.NoError(t, err)

	var res RankResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	require.Len(t, res.Decisions, 6)

	byName := make(map[string]score.Decision, len(res.Decisions))
	for _, d := range res.Decisions {
		byName[d.Company] = d
	}

	acme := byName["Acme"]
	assert.Equal(t, score.TierTop, acme.Tier)
	assert.True(t, acme.Pinned)
	assert.InDelta(t, 30.0, acme.Score, 1e-9)

	// accelerator pin lost to the tier-2 rule, so the signal is blended
	delta := byName["Delta"]
	assert.Equal(t, score.TierTwo, delta.Tier)
	assert.False(t, delta.Pinned)
	assert.True(t, delta.Blended)
	require.NotNil(t, delta.Signal)
	assert.Equal(t, 20, *delta.Signal)
	assert.InDelta(t, 13.5, delta.Score, 1e-9)

	zeta := byName["Zeta"]
	assert.Equal(t, score.TierAccelerator, zeta.Tier)
	assert.True(t, zeta.Pinned)
	assert.False(t, zeta.Blended)

	gamma := byName["Gamma"]
	assert.Equal(t, 2, gamma.Tier1Count)
	assert.Nil(t, gamma.Signal)

	for _, r := range res.Full {
		assert.InDelta(t, r.Score, byName[r.Company].Score, 1e-9)
	}
}

func TestRank_MetricsFile(t *testing.T) {
	e := setupTestEnv(t, testFunding, testSignals)
	metricsPath := filepath.Join(e.dir, "shortlist.prom")

	_, err := runApp(t, "--output", e.output, "--metrics-file", metricsPath, e.funding, e.signals)
	require.NoError(t, err)

	b, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), `shortlist_source_rows_total{source="funding"} 6`)
	assert.Contains(t, string(b), `shortlist_companies_ranked{map="full"} 2`)
}

func TestRank_UsageError(t *testing.T) {
	e := setupTestEnv(t, testFunding, testSignals)

	tests := []struct {
		name string
		args []string
	}{
		{"no args", []string{}},
		{"one arg", []string{e.funding}},
		{"three args", []string{e.funding, e.signals, e.funding}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runApp(t, append([]string{"--output", e.output}, tt.args...)...)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUsage)
			assert.NoFileExists(t, e.output)
		})
	}
}

func TestRank_FormatError(t *testing.T) {
	funding := "Companies,Active Investors,Last Financing Size\nAcme,F10,lots\n"
	e := setupTestEnv(t, funding, testSignals)

	_, err := runApp(t, "--output", e.output, e.funding, e.signals)
	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrFormat)
	assert.NoFileExists(t, e.output)
}

func TestRank_MissingSignalColumn(t *testing.T) {
	e := setupTestEnv(t, testFunding, "New Position,Tags\nBeta,YC\n")

	_, err := runApp(t, "--output", e.output, e.funding, e.signals)
	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrFormat)
	assert.NoFileExists(t, e.output)
}

func TestRank_InvalidConfig(t *testing.T) {
	e := setupTestEnv(t, testFunding, testSignals)

	_, err := runApp(t, "--config", filepath.Join(e.dir, "missing.yaml"), "--output", e.output, e.funding, e.signals)
	assert.Error(t, err)
	assert.NoFileExists(t, e.output)
}

func TestEncode(t *testing.T) {
	v := map[string]int{"a": 1}

	var buf bytes.Buffer
	require.NoError(t, encode(&buf, formatJSON, v))
	assert.JSONEq(t, `{"a":1}`, buf.String())

	buf.Reset()
	require.NoError(t, encode(&buf, "yml", v))
	assert.Equal(t, "a: 1\n", buf.String())
}

func TestRank_RemoteSources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/funding.csv":
			_, _ = w.Write([]byte(testFunding))
		case "/signals.csv":
			_, _ = w.Write([]byte(testSignals))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	output := filepath.Join(t.TempDir(), "Ranking.xlsx")

	out, err := runApp(t, "--output", output, srv.URL+"/funding.csv", srv.URL+"/signals.csv")
	require.NoError(t, err)

	var res RankResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	require.Len(t, res.Full, 2)
	assert.Equal(t, "Epsilon", res.Full[0].Company)
	assert.FileExists(t, output)

	_, err = runApp(t, "--output", output+".missing", srv.URL+"/nope.csv", srv.URL+"/signals.csv")
	assert.Error(t, err)
	assert.NoFileExists(t, output+".missing")
}
