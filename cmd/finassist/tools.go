package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/olegkh/finassist/tools"
	"github.com/olegkh/finassist/tools/builtin"
)

// registryFromViper builds the tool set handed to an external agent loop.
// The doc_search retriever is nil here; embedders wire their own retrieval
// subsystem before running an agent.
func registryFromViper(logger *slog.Logger) *tools.Registry {
	reg := tools.NewRegistry()
	_ = reg.Register(builtin.NewDocSearchTool(nil, logger))
	_ = reg.Register(builtin.NewCurrencyTool(
		viper.GetString("tools.currency.api_key"),
		viper.GetString("tools.currency.base_url"),
		viper.GetDuration("tools.currency.timeout"),
		logger,
	))
	return reg
}

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the agent tools this build provides",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := loggerFromViper()
			if err != nil {
				return err
			}
			reg := registryFromViper(logger)
			fmt.Print(reg.Describe())
			return nil
		},
	}
}
