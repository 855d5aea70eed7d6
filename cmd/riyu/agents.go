package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cyberwithvishal/riyu/runtime/agents"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the available agents",
	RunE: func(cmd *cobra.Command, args []string) error {
		active, err := agents.Lookup(viper.GetString(flagAgent))
		if err != nil {
			return err
		}
		newConsole(cmd.OutOrStdout()).Agents(active.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(agentsCmd)
}
