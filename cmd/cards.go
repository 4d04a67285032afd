/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/voidrun/dronewars/game"
)

// cardsCmd represents the cards command
var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "List the built-in cards and drone chassis",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("drones:")
		for _, t := range game.BuiltinDrones() {
			kw := ""
			if len(t.Keywords) > 0 {
				kw = " [" + strings.Join(t.Keywords, ", ") + "]"
			}
			fmt.Printf("  %-10s cost=%d atk=%d hull=%d spd=%d sh=%d %s%s\n",
				t.Name, t.Cost, t.Attack, t.Hull, t.Speed, t.Shields, t.Class, kw)
		}
		fmt.Println("cards:")
		for _, c := range game.BuiltinCards() {
			rules := c.Text
			if _, after, ok := strings.Cut(rules, "\n"); ok {
				rules = after
			}
			fmt.Printf("  %-16s {%d} %s\n", c.Name, c.Cost.Number, rules)
		}
	},
}

func init() {
	rootCmd.AddCommand(cardsCmd)
}
