package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"teahouse.bot/internal/config"
	"teahouse.bot/internal/persistence/r2s3"
)

// mirrorRuntime is a no-op when the mirror is not configured.
type mirrorRuntime struct {
	mirror *r2s3.Mirror
}

func buildMirror(cfg *config.Config, logger zerolog.Logger) (*mirrorRuntime, error) {
	mc := cfg.Ledger.Mirror
	if !cfg.Ledger.Enabled || !mc.Enabled() {
		return &mirrorRuntime{}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := r2s3.New(ctx, mc.Endpoint, mc.Bucket, mc.AccessKeyID, mc.SecretAccessKey)
	if err != nil {
		return nil, err
	}
	m := r2s3.NewMirror(client, mc.Prefix, logger.With().Str("component", "mirror").Logger(), r2s3.WithQueue(256))
	return &mirrorRuntime{mirror: m}, nil
}

// Backfill queues segments a previous run left unshipped.
func (r *mirrorRuntime) Backfill(ctx context.Context, dir string) (int, error) {
	if r == nil || r.mirror == nil {
		return 0, nil
	}
	return r.mirror.Backfill(ctx, dir, time.Now())
}

func (r *mirrorRuntime) Enqueue(localPath string) {
	if r == nil || r.mirror == nil {
		return
	}
	r.mirror.Enqueue(localPath)
}

func (r *mirrorRuntime) Close() {
	if r == nil || r.mirror == nil {
		return
	}
	r.mirror.Close()
}

func (r *mirrorRuntime) Stats() (r2s3.Stats, bool) {
	if r == nil || r.mirror == nil {
		return r2s3.Stats{}, false
	}
	return r.mirror.Stats(), true
}
