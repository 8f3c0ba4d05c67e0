// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fabsolve/fabsolve/internal/security"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Show which tools each security tier may use",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagJSON {
			out := make(map[string][]string, 3)
			for _, tier := range security.AllTiers() {
				out[tier.String()] = security.NewEnforcer(tier, nil).AllowedTools()
			}
			encoded, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(encoded))
			return nil
		}

		fmt.Println(TitleStyle.Render("Security Tiers"))
		for _, tier := range security.AllTiers() {
			enforcer := security.NewEnforcer(tier, nil)
			fmt.Println(tier.Banner(TerminalWidth()))
			for _, tool := range enforcer.AllowedTools() {
				fmt.Println("  " + ValueStyle.Render(tool))
			}
			fmt.Println()
		}
		return nil
	},
}
