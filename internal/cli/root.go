// Package cli implements the interviewd command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/soyeahso/interviewd/internal/config"
	"github.com/soyeahso/interviewd/internal/logging"
)

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	cfgPath string
	log     *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interviewd",
		Short: "interviewd — automated interview session orchestrator",
		Long: "interviewd runs live, time-boxed voice interview sessions: it bounds the conversational\n" +
			"context, fails over between redundant speech and language providers, and keeps an\n" +
			"ordered, durable transcript.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfgPath, err = config.DefaultPath()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				cfgPath = cfgFile
			}
			level := logLevel
			if level == "" {
				level = "info"
			}
			log = logging.New(nil, level)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.interviewd/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newTranscriptCmd())
	cmd.AddCommand(newBookingCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
