// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/fabsolve/fabsolve/internal/provider"
	"github.com/fabsolve/fabsolve/internal/security"
)

// TestMatrixTotality verifies every mode/tier/task combination has a
// route. The workflow can produce all of them.
func TestMatrixTotality(t *testing.T) {
	for _, mode := range []RuntimeMode{ModeDev, ModeRuntime} {
		for _, tier := range security.AllTiers() {
			for _, task := range AllTaskTypes() {
				r := New(mode, map[string]string{}, nil)
				cfg, err := r.Config(task, tier)
				if err != nil {
					t.Errorf("Config(%s, %s) in %s mode: %v", task, tier, mode, err)
					continue
				}
				if cfg.ModelID == "" || cfg.Provider == "" || cfg.MaxTokens <= 0 {
					t.Errorf("Config(%s, %s) in %s mode: incomplete config %+v", task, tier, mode, cfg)
				}
			}
		}
	}
}

func TestTierRoutesToProvider(t *testing.T) {
	cases := []struct {
		tier     security.Tier
		provider string
	}{
		{security.TierGeneralLLM, ProviderAnthropic},
		{security.TierConfidentialFab, ProviderFactory},
		{security.TierTopSecret, ProviderOnPrem},
	}
	for _, mode := range []RuntimeMode{ModeDev, ModeRuntime} {
		r := New(mode, map[string]string{}, nil)
		for _, tc := range cases {
			for _, task := range AllTaskTypes() {
				cfg, err := r.Config(task, tc.tier)
				if err != nil {
					t.Fatalf("Config(%s, %s): %v", task, tc.tier, err)
				}
				if cfg.Provider != tc.provider {
					t.Errorf("Config(%s, %s) provider = %s, want %s", task, tc.tier, cfg.Provider, tc.provider)
				}
			}
		}
	}
}

func TestRuntimeModeUpgradesModels(t *testing.T) {
	dev := New(ModeDev, map[string]string{}, nil)
	rt := New(ModeRuntime, map[string]string{}, nil)

	devCfg, _ := dev.Config(TaskDeepAnalysis, security.TierGeneralLLM)
	rtCfg, _ := rt.Config(TaskDeepAnalysis, security.TierGeneralLLM)

	if devCfg.ModelID != "claude-haiku-4" {
		t.Errorf("dev deep_analysis model = %s, want claude-haiku-4", devCfg.ModelID)
	}
	if rtCfg.ModelID != "claude-opus-4-5" {
		t.Errorf("runtime deep_analysis model = %s, want claude-opus-4-5", rtCfg.ModelID)
	}
	if rtCfg.MaxTokens != 16000 {
		t.Errorf("runtime deep_analysis max tokens = %d, want 16000", rtCfg.MaxTokens)
	}
}

func TestInternalTiersCarryNoCost(t *testing.T) {
	r := New(ModeRuntime, map[string]string{}, nil)
	for _, tier := range []security.Tier{security.TierConfidentialFab, security.TierTopSecret} {
		for _, task := range AllTaskTypes() {
			cfg, _ := r.Config(task, tier)
			if cfg.CostPer1KInput != 0 || cfg.CostPer1KOutput != 0 {
				t.Errorf("Config(%s, %s) has nonzero cost rates", task, tier)
			}
		}
	}
}

func TestComputeCost(t *testing.T) {
	cfg := ModelConfig{CostPer1KInput: 3.0, CostPer1KOutput: 15.0}
	got := cfg.ComputeCost(1000, 1000)
	if math.Abs(got-18.0) > 1e-9 {
		t.Errorf("ComputeCost(1000, 1000) = %f, want 18.0", got)
	}

	got = cfg.ComputeCost(500, 200)
	want := 0.5*3.0 + 0.2*15.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("ComputeCost(500, 200) = %f, want %f", got, want)
	}

	free := ModelConfig{}
	if c := free.ComputeCost(100000, 100000); c != 0 {
		t.Errorf("zero-rate ComputeCost = %f, want 0", c)
	}
}

func TestConfigErrorOnMissingRoute(t *testing.T) {
	r := New(ModeDev, map[string]string{}, nil)
	_, err := r.Config(TaskReasoning, security.Tier(99))
	if err == nil {
		t.Fatal("Config with invalid tier = nil error, want *ConfigError")
	}
	var cerr *ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("error is %T, want *ConfigError", err)
	}
}

type stubHandle struct{ text string }

func (s stubHandle) Generate(ctx context.Context, prompt, system string, maxTokens int) (provider.Result, error) {
	return provider.Result{Text: s.text, InputTokens: 1, OutputTokens: 1}, nil
}

func TestWithHandleOverridesClient(t *testing.T) {
	r := New(ModeDev, map[string]string{}, nil)
	r.WithHandle(ProviderAnthropic, stubHandle{text: "stubbed"})

	h, cfg, err := r.Client(TaskReasoning, security.TierGeneralLLM)
	if err != nil {
		t.Fatalf("Client: %v", err)
	}
	if cfg.Provider != ProviderAnthropic {
		t.Errorf("provider = %s", cfg.Provider)
	}
	res, err := h.Generate(context.Background(), "p", "", 0)
	if err != nil || res.Text != "stubbed" {
		t.Errorf("Generate = %+v, %v", res, err)
	}
}

func TestRecordUsageFlowsToLedger(t *testing.T) {
	r := New(ModeDev, map[string]string{}, nil)
	r.RecordUsage(TaskReasoning, 100, 50, 0.0875)
	r.RecordUsage(TaskSynthesis, 200, 100, 0.175)

	totals := r.Ledger().Totals()
	if totals.Requests != 2 || totals.InputTokens != 300 || totals.OutputTokens != 150 {
		t.Errorf("totals = %+v", totals)
	}
	if math.Abs(totals.CostUSD-0.2625) > 1e-6 {
		t.Errorf("CostUSD = %f, want 0.2625", totals.CostUSD)
	}
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		in      string
		want    RuntimeMode
		wantErr bool
	}{
		{"dev", ModeDev, false},
		{"runtime", ModeRuntime, false},
		{"production", ModeRuntime, false},
		{"", ModeDev, false},
		{"turbo", ModeDev, true},
	}
	for _, tc := range cases {
		got, err := ParseMode(tc.in)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Errorf("ParseMode(%q) = %v, %v", tc.in, got, err)
		}
	}
}
