package cmd

import (
	"fmt"

	"github.com/nestegg-finance/backend/internal/cli"
	"github.com/spf13/cobra"
)

var flagUser string

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "List the savings plans of a user",
	Args:  cobra.NoArgs,
	RunE:  runPlans,
}

func init() {
	plansCmd.Flags().StringVarP(&flagUser, "user", "u", "", "ID of the user")
	_ = plansCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(plansCmd)
}

func runPlans(cmd *cobra.Command, _ []string) error {
	engine, closeStore, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	plans, err := engine.Registry.List(cmd.Context(), flagUser)
	if err != nil {
		return err
	}

	if len(plans) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "  No plans found.")
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), cli.RenderTable(cli.PlanTable(plans)))
	return nil
}
