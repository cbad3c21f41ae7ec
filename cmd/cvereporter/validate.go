package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"cvereporter/internal/config"
	"cvereporter/internal/filtering"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and keyword policy without polling",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		out := cmd.OutOrStdout()

		var errs []error
		if err := config.Validate(cfg); err != nil {
			errs = append(errs, err)
		}

		policy, err := filtering.LoadPolicy(cfg.KeywordsFile)
		if err != nil {
			errs = append(errs, err)
		} else {
			fmt.Fprintf(out, "Keyword policy %s: %d keywords, accept all: %t\n",
				cfg.KeywordsFile, policy.KeywordCount(), policy.AcceptAll())
		}

		if len(errs) > 0 {
			return errors.Join(errs...)
		}

		fmt.Fprintf(out, "Store: %s\n", cfg.StoreType)
		fmt.Fprintf(out, "Interval: %s\n", cfg.Interval)
		fmt.Fprintln(out, "Configuration OK")
		return nil
	},
}
