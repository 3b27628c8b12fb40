package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove a plan and all of its allocations",
	Long: `Deactivates a plan, deletes all of its allocations and resets its
cumulative total. This can not be undone.

Income allocated to the plan is not allocated to other plans again.`,
	Args: cobra.NoArgs,
	RunE: runPurge,
}

func init() {
	purgeCmd.Flags().StringVarP(&flagPlan, "plan", "p", "", "ID of the plan")
	_ = purgeCmd.MarkFlagRequired("plan")
	rootCmd.AddCommand(purgeCmd)
}

func runPurge(cmd *cobra.Command, _ []string) error {
	id, err := planID()
	if err != nil {
		return err
	}

	engine, closeStore, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	deleted, err := engine.PurgePlan(cmd.Context(), id)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "  Deleted %d allocation(s) of plan %s.\n", deleted, id)
	return nil
}
