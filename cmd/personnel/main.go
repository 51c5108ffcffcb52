package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// @title Personnel API
// @version 1.0.0
// @description Person and candidate records with linked item tables.
// @BasePath /routes
// @schemes http

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "personnel",
		Short:         "Personnel records server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCommand(), migrateCommand())
	return root
}
