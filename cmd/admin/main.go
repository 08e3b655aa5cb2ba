package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "scoreboard",
		Short: "Admin CLI tool for the programme.lv score cache",
	}

	var logLevel string
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level [debug, info, warn, error]")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return InitializeLogger(logLevel)
	}

	var scoreCmd = &cobra.Command{
		Use:   "score",
		Short: "Inspect & repair cached scores",
	}

	var participationID int64
	var taskID int64
	var contestID int64

	var scoreShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the cached score entry and history of a pair",
		Run: func(cmd *cobra.Command, args []string) {
			if err := showScore(participationID, taskID); err != nil {
				log.Fatal(err)
			}
		},
	}
	scoreShowCmd.Flags().Int64VarP(&participationID, "participation", "p", 0, "Participation id (required)")
	scoreShowCmd.Flags().Int64VarP(&taskID, "task", "t", 0, "Task id (required)")
	scoreShowCmd.MarkFlagRequired("participation")
	scoreShowCmd.MarkFlagRequired("task")

	var scoreRebuildCmd = &cobra.Command{
		Use:   "rebuild",
		Short: "Recompute a pair's cached score from its submissions",
		Run: func(cmd *cobra.Command, args []string) {
			if err := rebuildScore(participationID, taskID); err != nil {
				log.Fatal(err)
			}
		},
	}
	scoreRebuildCmd.Flags().Int64VarP(&participationID, "participation", "p", 0, "Participation id (required)")
	scoreRebuildCmd.Flags().Int64VarP(&taskID, "task", "t", 0, "Task id (required)")
	scoreRebuildCmd.MarkFlagRequired("participation")
	scoreRebuildCmd.MarkFlagRequired("task")

	var scoreInvalidateCmd = &cobra.Command{
		Use:   "invalidate",
		Short: "Mark cached scores stale so they get rebuilt on next lookup",
		Run: func(cmd *cobra.Command, args []string) {
			err := invalidateScores(
				flagValue(cmd, "participation", participationID),
				flagValue(cmd, "task", taskID),
				flagValue(cmd, "contest", contestID),
			)
			if err != nil {
				log.Fatal(err)
			}
		},
	}
	scoreInvalidateCmd.Flags().Int64VarP(&participationID, "participation", "p", 0, "Participation id")
	scoreInvalidateCmd.Flags().Int64VarP(&taskID, "task", "t", 0, "Task id")
	scoreInvalidateCmd.Flags().Int64VarP(&contestID, "contest", "c", 0, "Contest id")

	var ensureHistoryCmd = &cobra.Command{
		Use:   "ensure-history",
		Short: "Rebuild every invalid entry or history timeline of a contest",
		Run: func(cmd *cobra.Command, args []string) {
			if err := ensureValidHistory(contestID); err != nil {
				log.Fatal(err)
			}
		},
	}
	ensureHistoryCmd.Flags().Int64VarP(&contestID, "contest", "c", 0, "Contest id (required)")
	ensureHistoryCmd.MarkFlagRequired("contest")

	rootCmd.AddCommand(scoreCmd)
	scoreCmd.AddCommand(scoreShowCmd)
	scoreCmd.AddCommand(scoreRebuildCmd)
	scoreCmd.AddCommand(scoreInvalidateCmd)
	scoreCmd.AddCommand(ensureHistoryCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// flagValue returns a pointer to the flag's value, or nil if it was not set
// on the command line.
func flagValue(cmd *cobra.Command, name string, value int64) *int64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}
