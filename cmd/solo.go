/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/voidrun/dronewars/bot"
	"github.com/voidrun/dronewars/game"
)

var soloRounds int

// soloCmd represents the solo command
var soloCmd = &cobra.Command{
	Use:   "solo",
	Short: "Run a headless bot-versus-bot match",
	Long: `Plays one full match between two scripted policies and prints the
event stream. Useful for smoke-testing rule changes without a client.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logrus.StandardLogger()
		m := game.NewMatch("alpha", "beta", game.WithInterceptTimeout(time.Second))
		m.On(game.AllEvents, func(e *game.Event) {
			fmt.Printf("%-20s player=%s phase=%s\n", e.Type, e.Player, e.Phase)
		})
		a := bot.New("alpha", m, log)
		b := bot.New("beta", m, log)
		go m.Run()
		go a.Run()
		go b.Run()
		defer func() {
			a.Stop()
			b.Stop()
			m.Stop()
		}()

		deadline := time.After(time.Duration(soloRounds) * 30 * time.Second)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if over, winner := m.Over(); over {
					fmt.Printf("winner: %s\n", winner)
					return nil
				}
				snap, err := m.Snapshot("alpha")
				if err == nil && snap.Round > soloRounds {
					fmt.Println("round limit reached, draw")
					return nil
				}
			case <-deadline:
				return fmt.Errorf("match did not finish in time")
			}
		}
	},
}

func init() {
	soloCmd.Flags().IntVar(&soloRounds, "rounds", 20, "round limit before calling a draw")
	rootCmd.AddCommand(soloCmd)
}
