/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/voidrun/dronewars/cmd"

func main() {
	cmd.Execute()
}
