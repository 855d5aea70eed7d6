// Command riyu runs the Riyu assistant: a Gemini Live voice session, a text
// chat, and the HTTP backend for offline commands.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cyberwithvishal/riyu/runtime/logger"
	"github.com/cyberwithvishal/riyu/runtime/version"
)

const (
	flagConfig  = "config"
	flagVerbose = "verbose"
	flagAgent   = "agent"
)

var rootCmd = &cobra.Command{
	Use:           "riyu",
	Short:         "Riyu - voice and text assistant for the CWV desktop",
	Version:       version.GetVersion(),
	SilenceUsage:  true,
	SilenceErrors: false,
	Long: `Riyu talks to Gemini Live over a microphone and speaker, answers
text chat, and serves a small HTTP backend for offline commands.

Settings come from an optional RiyuConfig manifest (--config), then from
RIYU_* environment variables and flags. GEMINI_API_KEY (or API_KEY) supplies
the model key; a .env file in the working directory is read first.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadDotEnv(".env"); err != nil {
			return err
		}
		if cmd.Flags().Changed(flagVerbose) {
			verbose, err := cmd.Flags().GetBool(flagVerbose)
			if err != nil {
				return err
			}
			logger.SetVerbose(verbose)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringP(flagConfig, "c", "", "RiyuConfig manifest (YAML)")
	rootCmd.PersistentFlags().BoolP(flagVerbose, "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().String(flagAgent, "", "Agent to start with (riyu, cyber-red, cyber-blue, code-master, auto-sys)")

	_ = viper.BindPFlag(flagConfig, rootCmd.PersistentFlags().Lookup(flagConfig))
	_ = viper.BindPFlag(flagAgent, rootCmd.PersistentFlags().Lookup(flagAgent))
	_ = viper.BindPFlag(flagVerbose, rootCmd.PersistentFlags().Lookup(flagVerbose))
	configureViper(viper.GetViper())
}

// setupVersion configures the version display
func setupVersion() {
	rootCmd.SetVersionTemplate(version.Get().String() + "\n")
}

func Execute() {
	setupVersion()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
