/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dronewars",
	Short: "Host-authoritative drone battle server and tools",
	Long: `dronewars runs the match host for the drone battle card game:
a websocket server where two players (or one player and a bot) fight
through drafting, deployment, action and combat phases.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Missing .env is fine; the environment itself still applies.
		_ = godotenv.Load()
		if level, err := logrus.ParseLevel(os.Getenv("DRONEWARS_LOG_LEVEL")); err == nil {
			logrus.SetLevel(level)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
