package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reposcout/internal/corpus"
	logpkg "github.com/kailas-cloud/reposcout/internal/logger"
)

func newNormalizeCmd() *cobra.Command {
	var (
		input string
		org   string
		limit int
		out   string
	)

	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Normalize a CSV or Parquet repository export into canonical records",
		RunE: func(_ *cobra.Command, _ []string) error {
			logger, err := logpkg.NewLogger("local", "")
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			n := corpus.NewNormalizer(corpus.Options{Org: org, Limit: limit}, logger)
			res, err := n.NormalizeFile(input)
			if err != nil {
				return fmt.Errorf("normalize %s: %w", input, err)
			}

			if err := corpus.WriteRecords(out, org, res.Records); err != nil {
				return fmt.Errorf("write records: %w", err)
			}

			logger.Info("Records written",
				zap.String("path", out),
				zap.Int("records", len(res.Records)),
				zap.Int("dropped", res.Dropped),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "CSV or Parquet export to normalize")
	cmd.Flags().StringVar(&org, "org", "", "GitHub organization the export came from")
	cmd.Flags().IntVar(&limit, "limit", 0, "keep at most N records (0 keeps all)")
	cmd.Flags().StringVar(&out, "out", "records.json", "output records file")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("org")

	return cmd
}
