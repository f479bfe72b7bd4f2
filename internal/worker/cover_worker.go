package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
	"github.com/songforge/api/internal/model"
	"github.com/songforge/api/internal/service"
)

// CoverWorker processes cover enrichment tasks. It runs independently of
// the generation pipeline; a failed cover never touches a job's outcome.
type CoverWorker struct {
	coverService *service.CoverService
}

func NewCoverWorker(coverService *service.CoverService) *CoverWorker {
	return &CoverWorker{coverService: coverService}
}

// ProcessTask handles one cover:generate task
func (w *CoverWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var req model.CoverRequest
	if err := json.Unmarshal(t.Payload(), &req); err != nil {
		return fmt.Errorf("failed to unmarshal cover payload: %w", err)
	}

	url, err := w.coverService.GenerateCover(ctx, &req)
	if err != nil {
		log.Printf("Cover generation for song %s failed: %v", req.SongID, err)
		return err
	}

	log.Printf("Cover generated for song %s: %s", req.SongID, url)
	return nil
}
