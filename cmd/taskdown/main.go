package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskdown/server/cmd/taskdown/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "taskdown",
		Short: "Taskdown API Server",
		Long:  `Taskdown is a task tracking backend with checklists, task relationships, analytics and markdown export.`,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewUserCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
