package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Score candidates against positions",
	Long:  "Scores every candidate against every position (or only the given pairs) and writes a report sorted by score, with statistics and per-pair failures.",
	RunE:  runBatch,
}

var (
	batchCandidates string
	batchPositions  string
	batchPairs      string
	batchOutput     string
	batchLimit      int
	batchMinScore   float64
	batchWorkers    int
	batchTimeout    time.Duration
	batchMode       string
)

func init() {
	batchCmd.Flags().StringVarP(&batchCandidates, "candidates", "c", "", "Path to a JSON array of candidates (required)")
	batchCmd.Flags().StringVarP(&batchPositions, "positions", "p", "", "Path to a JSON array of positions (required)")
	batchCmd.Flags().StringVar(&batchPairs, "pairs", "", "Path to a JSON array of {candidate_id, position_id} pairs (default: cross product)")
	batchCmd.Flags().StringVarP(&batchOutput, "out", "o", "-", "Output path for the report (default stdout)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "Keep only the N best results (0 = all)")
	batchCmd.Flags().Float64Var(&batchMinScore, "min-score", 0, "Drop results scoring below this value")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "Concurrent scorings (0 = default)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 0, "Stop scheduling new pairs after this long (0 = none)")
	batchCmd.Flags().StringVar(&batchMode, "mode", "", "Aggregation mode: baseline, extended, extended-partial (default: adaptive)")

	for _, name := range []string{"candidates", "positions"} {
		if err := batchCmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	req := talentmatch.BatchRequest{
		Options: talentmatch.BatchOptions{
			Limit:     batchLimit,
			MinScore:  batchMinScore,
			Workers:   batchWorkers,
			TimeoutMS: batchTimeout.Milliseconds(),
			Mode:      talentmatch.Mode(batchMode),
		},
	}
	if err := readJSON(batchCandidates, &req.Candidates); err != nil {
		return err
	}
	if err := readJSON(batchPositions, &req.Positions); err != nil {
		return err
	}
	if batchPairs != "" {
		if err := readJSON(batchPairs, &req.Pairs); err != nil {
			return err
		}
	}

	engine, logger, err := newEngine(batchWorkers)
	if err != nil {
		return err
	}
	defer engine.Close()

	report, err := engine.BatchMatch(cmd.Context(), req)
	if err != nil {
		return err
	}
	logger.Info("Batch finished",
		zap.String("batch_id", report.BatchID),
		zap.Int("scored", report.Stats.Count),
		zap.Int("failures", len(report.Failures)),
		zap.Bool("truncated", report.Truncated),
	)

	return writeJSON(batchOutput, cmd.OutOrStdout(), report)
}
