package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/talentmatch"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Compare scores with labeled expectations",
	Long:  "Scores the labeled pairs and reports mean absolute error, RMSE, band agreement and the share of scores within tolerance of the label.",
	RunE:  runEvaluate,
}

var (
	evalCandidates string
	evalPositions  string
	evalLabels     string
	evalOutput     string
	evalTolerance  float64
	evalMaxMAE     float64
)

func init() {
	evaluateCmd.Flags().StringVarP(&evalCandidates, "candidates", "c", "", "Path to a JSON array of candidates (required)")
	evaluateCmd.Flags().StringVarP(&evalPositions, "positions", "p", "", "Path to a JSON array of positions (required)")
	evaluateCmd.Flags().StringVarP(&evalLabels, "labels", "l", "", "Path to a JSON array of labels (required)")
	evaluateCmd.Flags().StringVarP(&evalOutput, "out", "o", "-", "Output path for the evaluation (default stdout)")
	evaluateCmd.Flags().Float64Var(&evalTolerance, "tolerance", 0, "Absolute score tolerance (0 = default)")
	evaluateCmd.Flags().Float64Var(&evalMaxMAE, "max-mae", 0, "Fail when the mean absolute error exceeds this value (0 = never)")

	for _, name := range []string{"candidates", "positions", "labels"} {
		if err := evaluateCmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}

	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	req := talentmatch.EvaluationRequest{Tolerance: evalTolerance}
	if err := readJSON(evalCandidates, &req.Candidates); err != nil {
		return err
	}
	if err := readJSON(evalPositions, &req.Positions); err != nil {
		return err
	}
	if err := readJSON(evalLabels, &req.Labels); err != nil {
		return err
	}

	engine, _, err := newEngine(0)
	if err != nil {
		return err
	}
	defer engine.Close()

	ev, err := engine.Evaluate(cmd.Context(), req)
	if err != nil {
		return err
	}
	if err := writeJSON(evalOutput, cmd.OutOrStdout(), ev); err != nil {
		return err
	}

	if evalMaxMAE > 0 && ev.MAE > evalMaxMAE {
		return fmt.Errorf("mean absolute error %.4f exceeds %.4f", ev.MAE, evalMaxMAE)
	}
	return nil
}
