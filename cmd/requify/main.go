package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "requify",
	Short:   "Conversational requirements intake and expansion",
	Version: version,
}

func main() {
	rootCmd.AddCommand(serveCmd, expandCmd, questionsCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
