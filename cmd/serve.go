/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/voidrun/dronewars/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the match host server",
	Long: `Starts the websocket match host. Clients register or log in over
HTTP, then connect to /ws with their token to join rooms and play.
Configuration comes from DRONEWARS_* environment variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logrus.StandardLogger()
		cfg, err := server.LoadConfig()
		if err != nil {
			return err
		}
		if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
			log.SetLevel(level)
		}
		db, err := server.OpenDatabase(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()
		repo, err := server.NewRepository(db)
		if err != nil {
			return err
		}
		auth := server.NewAuth(cfg.TokenSecret, cfg.TokenTTL)
		broker := server.NewChannelBroker()
		defer broker.Close()
		wsServer := server.NewWebsocketServer(cfg, broker, repo, log)
		router := server.NewRouter(cfg, auth, repo, wsServer, log)
		return router.Run()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
