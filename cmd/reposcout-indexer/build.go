package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reposcout/internal/blob"
	blobFS "github.com/kailas-cloud/reposcout/internal/blob/fs"
	blobValkey "github.com/kailas-cloud/reposcout/internal/blob/valkey"
	"github.com/kailas-cloud/reposcout/internal/config"
	"github.com/kailas-cloud/reposcout/internal/corpus"
	"github.com/kailas-cloud/reposcout/internal/domain"
	"github.com/kailas-cloud/reposcout/internal/index"
	logpkg "github.com/kailas-cloud/reposcout/internal/logger"
	"github.com/kailas-cloud/reposcout/internal/repository/artifact"
	openaiTransport "github.com/kailas-cloud/reposcout/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/reposcout/internal/usecase/embedding"
	"github.com/kailas-cloud/reposcout/internal/usecase/indexbuild"
)

type buildParams struct {
	recordsPath string
	org         string
	limit       int
	outDir      string
	publish     bool
	resume      bool
}

func newBuildCmd() *cobra.Command {
	var p buildParams

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Embed normalized records and assemble the index artifact pair",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env := config.GetEnv()
			cfg, err := config.Load(env)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			return runBuild(cmd.Context(), cfg, p, logger)
		},
	}

	cmd.Flags().StringVar(&p.recordsPath, "records", "", "normalized records file from the normalize command")
	cmd.Flags().StringVar(&p.org, "org", "", "organization stamped into the manifest (defaults to the records file org)")
	cmd.Flags().IntVar(&p.limit, "limit", 0, "build from at most N records (0 builds all)")
	cmd.Flags().StringVar(&p.outDir, "out", "artifacts", "directory for the local artifact pair")
	cmd.Flags().BoolVar(&p.publish, "publish", false, "upload the pair to the configured blob location")
	cmd.Flags().BoolVar(&p.resume, "resume", false, "continue an interrupted build from its checkpoint")
	_ = cmd.MarkFlagRequired("records")

	return cmd
}

func runBuild(ctx context.Context, cfg config.Config, p buildParams, logger *zap.Logger) error {
	fileOrg, records, err := corpus.ReadRecords(p.recordsPath)
	if err != nil {
		return fmt.Errorf("read records: %w", err)
	}

	org := fileOrg
	if p.org != "" {
		if fileOrg != "" && p.org != fileOrg {
			return fmt.Errorf("org %q does not match records file org %q", p.org, fileOrg)
		}
		org = p.org
	}
	if org == "" {
		return errors.New("org is required, pass --org or use a records file that carries one")
	}

	if p.limit > 0 && p.limit < len(records) {
		records = records[:p.limit]
	}

	base := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Logger:     logger,
	})
	embedder := embeddinguc.NewInstrumentedEmbedder(
		embeddinguc.NewRetryingEmbedder(
			base,
			cfg.Embedding.MaxRetries,
			time.Duration(cfg.Embedding.RetryBaseMs)*time.Millisecond,
			"openai", cfg.Embedding.Model, logger,
		),
		"openai", cfg.Embedding.Model, logger,
	)

	var checkpoint *indexbuild.Checkpoint
	if p.resume {
		checkpoint = indexbuild.NewCheckpoint(
			filepath.Join(p.outDir, "checkpoint"),
			cfg.Embedding.Dimensions,
			cfg.Embedding.Model,
		)
	}

	svc := indexbuild.New(embedder, checkpoint, indexbuild.Config{
		Org:        org,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		BatchSize:  cfg.Embedding.BatchSize,
	}, logger)

	res, err := svc.Build(ctx, records)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	indexPath, metaPath, err := writeArtifacts(cfg, p.outDir, res, records)
	if err != nil {
		return err
	}
	logger.Info("Artifacts written",
		zap.String("index", indexPath),
		zap.String("metadata", metaPath),
		zap.String("build_id", res.Manifest.BuildID.String()),
		zap.Int("vectors", res.Index.Count()),
	)

	if !p.publish {
		return nil
	}
	if err := publishArtifacts(ctx, cfg, res, records); err != nil {
		return err
	}
	logger.Info("Artifacts published",
		zap.String("bucket", cfg.Storage.Bucket),
		zap.String("build_id", res.Manifest.BuildID.String()),
	)
	return nil
}

// writeArtifacts encodes the pair into the output directory under the same
// key names the server is configured to load.
func writeArtifacts(
	cfg config.Config, outDir string, res *indexbuild.Result, records []domain.Record,
) (indexPath, metaPath string, err error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", "", fmt.Errorf("create output dir: %w", err)
	}

	indexData, err := index.EncodeFlat(res.Index, res.Manifest.BuildID)
	if err != nil {
		return "", "", fmt.Errorf("encode index: %w", err)
	}
	metaData, err := artifact.EncodeMetadata(res.Manifest, records)
	if err != nil {
		return "", "", fmt.Errorf("encode metadata: %w", err)
	}

	indexPath = filepath.Join(outDir, cfg.Storage.IndexKey)
	metaPath = filepath.Join(outDir, cfg.Storage.MetadataKey)
	if err := os.WriteFile(indexPath, indexData, 0o644); err != nil {
		return "", "", fmt.Errorf("write index: %w", err)
	}
	if err := os.WriteFile(metaPath, metaData, 0o644); err != nil {
		return "", "", fmt.Errorf("write metadata: %w", err)
	}
	return indexPath, metaPath, nil
}

func publishArtifacts(
	ctx context.Context, cfg config.Config, res *indexbuild.Result, records []domain.Record,
) error {
	store, err := newStore(cfg)
	if err != nil {
		return fmt.Errorf("create artifact store: %w", err)
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Storage.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("artifact storage not ready: %w", err)
	}

	repo := artifact.NewRepository(store, artifact.Location{
		Bucket:      cfg.Storage.Bucket,
		IndexKey:    cfg.Storage.IndexKey,
		MetadataKey: cfg.Storage.MetadataKey,
	})
	if err := repo.Publish(ctx, res.Index, records, res.Manifest); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func newStore(cfg config.Config) (blob.Store, error) {
	switch cfg.Storage.Driver {
	case "valkey", "redis":
		return blobValkey.NewStore(blobValkey.Config{
			Addrs:    cfg.Storage.Addrs,
			Password: cfg.Storage.Password,
		})
	case "fs":
		return blobFS.NewStore(cfg.Storage.Root)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
