package media

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"

	"github.com/hibiken/asynq"

	"github.com/storykeep/storykeep/jobs"
)

// Deriver produces a derivative (thumbnail, preview clip) for an attachment
// and returns the path of the generated file.
type Deriver interface {
	Derive(ctx context.Context, a Attachment) (string, error)
}

// pathDeriver is the default deriver: it only computes where the derivative
// will live, leaving generation to the external media pipeline.
type pathDeriver struct{}

func (pathDeriver) Derive(ctx context.Context, a Attachment) (string, error) {
	ext := path.Ext(a.StoragePath)
	return a.StoragePath[:len(a.StoragePath)-len(ext)] + ".derived" + ext, nil
}

// NewPathDeriver returns the default deriver.
func NewPathDeriver() Deriver {
	return pathDeriver{}
}

// DeriveTaskHandler processes queued derivative-generation tasks.
func DeriveTaskHandler(logger *slog.Logger, repo RepositoryPort, deriver Deriver) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload jobs.MediaDerivePayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("media derive payload: %w: %w", err, asynq.SkipRetry)
		}
		attachment, err := repo.Get(ctx, payload.MediaID)
		if err != nil {
			return fmt.Errorf("load attachment %d: %w", payload.MediaID, err)
		}
		derivedPath, err := deriver.Derive(ctx, attachment)
		if err != nil {
			if markErr := repo.SetDerived(ctx, attachment.ID, "", StatusFailed); markErr != nil {
				logger.Error("mark attachment failed", slog.Int64("media_id", attachment.ID), slog.Any("error", markErr))
			}
			return fmt.Errorf("derive attachment %d: %w", attachment.ID, err)
		}
		if err := repo.SetDerived(ctx, attachment.ID, derivedPath, StatusReady); err != nil {
			return fmt.Errorf("store derivative %d: %w", attachment.ID, err)
		}
		logger.Info("media derivative ready",
			slog.Int64("media_id", attachment.ID),
			slog.String("derived_path", derivedPath))
		return nil
	}
}
