// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fabsolve/fabsolve/internal/router"
	"github.com/fabsolve/fabsolve/internal/security"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Show the model routing table",
	RunE: func(cmd *cobra.Command, args []string) error {
		type route struct {
			Mode      string  `json:"mode"`
			Tier      string  `json:"tier"`
			Task      string  `json:"task"`
			Provider  string  `json:"provider"`
			Model     string  `json:"model"`
			MaxTokens int     `json:"max_tokens"`
			In1K      float64 `json:"cost_per_1k_input"`
			Out1K     float64 `json:"cost_per_1k_output"`
		}

		var routes []route
		for _, mode := range []router.RuntimeMode{router.ModeDev, router.ModeRuntime} {
			r := router.New(mode, map[string]string{}, nil)
			for _, tier := range security.AllTiers() {
				for _, task := range router.AllTaskTypes() {
					cfg, err := r.Config(task, tier)
					if err != nil {
						return err
					}
					routes = append(routes, route{
						Mode:      mode.String(),
						Tier:      tier.String(),
						Task:      task.String(),
						Provider:  cfg.Provider,
						Model:     cfg.ModelID,
						MaxTokens: cfg.MaxTokens,
						In1K:      cfg.CostPer1KInput,
						Out1K:     cfg.CostPer1KOutput,
					})
				}
			}
		}

		if flagJSON {
			encoded, err := json.MarshalIndent(routes, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(encoded))
			return nil
		}

		fmt.Println(TitleStyle.Render("Model Routes"))
		lastMode := ""
		for _, rt := range routes {
			if rt.Mode != lastMode {
				fmt.Println(SectionStyle.Render("mode: " + rt.Mode))
				lastMode = rt.Mode
			}
			line := fmt.Sprintf("  %-17s %-14s -> %-18s (%d tokens", rt.Tier, rt.Task, rt.Model, rt.MaxTokens)
			if rt.In1K > 0 || rt.Out1K > 0 {
				line += fmt.Sprintf(", $%.2f/$%.2f per 1K", rt.In1K, rt.Out1K)
			}
			line += ")"
			fmt.Println(ValueStyle.Render(line))
		}
		return nil
	},
}
