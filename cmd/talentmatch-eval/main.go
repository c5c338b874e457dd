// Package main provides talentmatch-eval, an offline batch matching and
// ground-truth evaluation tool over JSON files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch"
	logpkg "github.com/kailas-cloud/talentmatch/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:          "talentmatch-eval",
	Short:        "Offline candidate/position matching",
	Long:         "talentmatch-eval scores candidates against positions from JSON files and evaluates scores against labeled expectations.",
	SilenceUsage: true,
}

var (
	redisAddr     string
	redisPassword string
	routingURL    string
	routingKey    string
	logLevel      string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis", "", "Redis/Valkey address for a shared cache (optional)")
	rootCmd.PersistentFlags().StringVar(&redisPassword, "redis-password", "", "Redis/Valkey password")
	rootCmd.PersistentFlags().StringVar(&routingURL, "routing-url", "", "Geocode/route service base URL (optional, offline estimates otherwise)")
	rootCmd.PersistentFlags().StringVar(&routingKey, "routing-key", "", "Geocode/route service API key")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
}

// newEngine builds an Engine from the persistent flags.
func newEngine(workers int) (*talentmatch.Engine, *zap.Logger, error) {
	logger, err := logpkg.NewLogger("local", logLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	opts := []talentmatch.Option{
		talentmatch.WithLogger(logger),
		talentmatch.WithBatchLimits(workers, 0, 0),
	}
	if redisAddr != "" {
		opts = append(opts, talentmatch.WithRedis(redisAddr, redisPassword))
	}
	if routingURL != "" {
		opts = append(opts, talentmatch.WithRouting(routingURL, routingKey, 0))
	}

	engine, err := talentmatch.New(opts...)
	if err != nil {
		return nil, nil, err
	}
	return engine, logger, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
