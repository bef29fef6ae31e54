package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"portfoliochat/pkg/logger"
)

var (
	serverURL   string
	sessionFile string
	logFile     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chat-console",
		Short: "Terminal client for the portfolio live chat",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Setup(os.Getenv("ENVIRONMENT"), logFile)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "chat server base URL")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file")

	rootCmd.AddCommand(newVisitorCmd(), newAdminCmd(), newGrantAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
