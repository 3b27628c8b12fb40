package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/nestegg-finance/backend/internal/cli"
	"github.com/nestegg-finance/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	flagPlan       string
	flagPercentage string
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Show projection, health and recommendations of a plan",
	Long: `Shows the projection, the health score and the recommendations of a
plan. The health score is stored with the plan.`,
	Args: cobra.NoArgs,
	RunE: runForecast,
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Project a plan with a different percentage of income",
	Long:  "Projects a plan as if it received a different percentage of income. Nothing is stored.",
	Args:  cobra.NoArgs,
	RunE:  runSimulate,
}

func init() {
	forecastCmd.Flags().StringVarP(&flagPlan, "plan", "p", "", "ID of the plan")
	_ = forecastCmd.MarkFlagRequired("plan")
	rootCmd.AddCommand(forecastCmd)

	simulateCmd.Flags().StringVarP(&flagPlan, "plan", "p", "", "ID of the plan")
	simulateCmd.Flags().StringVar(&flagPercentage, "percentage", "", "Percentage of income to simulate, e.g. 12.5")
	_ = simulateCmd.MarkFlagRequired("plan")
	_ = simulateCmd.MarkFlagRequired("percentage")
	rootCmd.AddCommand(simulateCmd)
}

func planID() (uuid.UUID, error) {
	id, err := uuid.Parse(flagPlan)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid plan ID %q: %w", flagPlan, err)
	}

	return id, nil
}

func runForecast(cmd *cobra.Command, _ []string) error {
	id, err := planID()
	if err != nil {
		return err
	}

	engine, closeStore, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	report, err := engine.Advisor.Report(cmd.Context(), id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.RenderTitle(report.Plan.Name))
	fmt.Fprint(out, cli.RenderTable(cli.PlanTable([]models.Plan{report.Plan})))
	fmt.Fprint(out, cli.RenderTable(cli.ProjectionTable(report.Projection)))
	fmt.Fprintf(out, "  %s\n\n", report.Projection.Message)
	fmt.Fprint(out, cli.RenderTable(cli.HealthTable(report.Health)))
	fmt.Fprintln(out)
	fmt.Fprint(out, cli.RenderRecommendations(report.Recommendations))

	return nil
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	id, err := planID()
	if err != nil {
		return err
	}

	percentage, err := decimal.NewFromString(flagPercentage)
	if err != nil {
		return fmt.Errorf("invalid percentage %q: %w", flagPercentage, err)
	}

	engine, closeStore, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	result, err := engine.Advisor.Simulate(cmd.Context(), id, percentage)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), cli.RenderTable(cli.ProjectionTable(result)))
	fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", result.Message)
	return nil
}
