package cmd

import (
	"fmt"

	"github.com/nestegg-finance/backend/internal/cli"
	"github.com/spf13/cobra"
)

var flagUsers []string

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Allocate unallocated income of users to their active plans",
	Args:  cobra.NoArgs,
	RunE:  runProcess,
}

func init() {
	processCmd.Flags().StringSliceVarP(&flagUsers, "user", "u", nil, "User to process. Can be repeated")
	_ = processCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, _ []string) error {
	engine, closeStore, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	results := engine.Allocator.ProcessAll(cmd.Context(), flagUsers)

	out := cmd.OutOrStdout()
	for _, user := range flagUsers {
		result, ok := results[user]
		if !ok {
			return fmt.Errorf("allocation run for %s failed", user)
		}

		fmt.Fprint(out, cli.RenderTable(cli.ProcessTable(user, result)))
	}

	return nil
}
