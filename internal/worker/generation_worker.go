package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"github.com/songforge/api/internal/apperr"
	"github.com/songforge/api/internal/client"
	"github.com/songforge/api/internal/config"
	"github.com/songforge/api/internal/model"
	"github.com/songforge/api/internal/pipeline"
	"github.com/songforge/api/internal/service"
	"github.com/songforge/api/internal/websocket"
)

// GenerationWorker drives one job's polling loop to a terminal state and
// persists its results. One asynq task equals one job; the loop is the
// only writer of the job's status.
type GenerationWorker struct {
	generationService *service.GenerationService
	suno              pipeline.StatusFetcher
	persister         *pipeline.Persister
	queue             service.Enqueuer
	pollCfg           *config.PollConfig
	hub               *websocket.Hub
}

func NewGenerationWorker(
	generationService *service.GenerationService,
	suno pipeline.StatusFetcher,
	persister *pipeline.Persister,
	queue service.Enqueuer,
	pollCfg *config.PollConfig,
	hub *websocket.Hub,
) *GenerationWorker {
	return &GenerationWorker{
		generationService: generationService,
		suno:              suno,
		persister:         persister,
		queue:             queue,
		pollCfg:           pollCfg,
		hub:               hub,
	}
}

// ProcessTask handles one generate:poll task
func (w *GenerationWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload struct {
		JobID string `json:"jobId"`
	}
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	job, err := w.generationService.GetJob(ctx, payload.JobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", payload.JobID, err)
	}

	log.Printf("Polling %s job %s (task=%s)", job.Kind, job.ID, job.TaskID)

	poller := pipeline.NewPoller(w.suno, w.pollCfg)
	poller.OnPoll = func(status model.JobStatus, attempt int) {
		if err := w.generationService.UpdateJobStatus(ctx, job.ID, status, attempt); err != nil {
			log.Printf("Failed to update job %s status: %v", job.ID, err)
		}
		w.hub.BroadcastProgress(job.TaskID, status, attempt)
	}
	poller.Cancelled = func(ctx context.Context) bool {
		current, err := w.generationService.GetJob(ctx, job.ID)
		return err == nil && current.Status.IsTerminal()
	}

	st, err := poller.Run(ctx, job.TaskID)
	if err != nil {
		return w.finish(ctx, job, err)
	}

	return w.persistResult(ctx, job, st)
}

// finish records the terminal state for an unsuccessful polling run
func (w *GenerationWorker) finish(ctx context.Context, job *model.Job, err error) error {
	if err == pipeline.ErrCancelled {
		// CancelJob already wrote the terminal state
		return nil
	}

	if e, ok := apperr.As(err); ok && e.Kind == apperr.KindTimeout {
		if ferr := w.generationService.TimeoutJob(ctx, job.ID, e.Message); ferr != nil {
			log.Printf("Failed to mark job %s timed out: %v", job.ID, ferr)
		}
		w.hub.BroadcastError(job.TaskID, "TIMEOUT", e.Message)
		return err
	}

	msg := err.Error()
	if ferr := w.generationService.FailJob(ctx, job.ID, msg); ferr != nil {
		log.Printf("Failed to mark job %s failed: %v", job.ID, ferr)
	}
	w.hub.BroadcastError(job.TaskID, "GENERATION_FAILED", msg)
	return err
}

// persistResult turns the provider's transient tracks into the durable
// outcome for the job's kind, then fires cover enrichment.
func (w *GenerationWorker) persistResult(ctx context.Context, job *model.Job, st *client.GenerationStatus) error {
	if job.Kind == model.JobKindStems {
		assets := w.persister.PersistStems(ctx, job, st.Songs)
		if err := w.generationService.CompleteJob(ctx, job.ID, assets); err != nil {
			return w.finish(ctx, job, err)
		}
		w.hub.BroadcastComplete(job.TaskID, assets)
		log.Printf("Job %s completed with %d stem(s)", job.ID, len(assets))
		return nil
	}

	records, err := w.persister.PersistSongs(ctx, job, st.Songs)
	if err != nil {
		return w.finish(ctx, job, err)
	}

	if err := w.generationService.CompleteJob(ctx, job.ID, records); err != nil {
		return w.finish(ctx, job, err)
	}
	w.hub.BroadcastComplete(job.TaskID, records)
	log.Printf("Job %s completed with %d record(s)", job.ID, len(records))

	w.dispatchCovers(job, records)
	return nil
}

// dispatchCovers enqueues one cover task per new record. Enrichment is
// fire-and-forget: any failure here is logged and the job stays done.
func (w *GenerationWorker) dispatchCovers(job *model.Job, records []model.SongRecord) {
	for _, record := range records {
		task, err := service.NewCoverTask(&model.CoverRequest{
			SongID: record.ID,
			Title:  record.Title,
			Genre:  record.Params.Genre,
			Mood:   record.Params.Mood,
			UserID: record.OwnerID,
		})
		if err != nil {
			log.Printf("Failed to build cover task for song %s: %v", record.ID, err)
			continue
		}
		if _, err := w.queue.Enqueue(task,
			asynq.Queue("cover"),
			asynq.MaxRetry(2),
			asynq.Retention(24*time.Hour),
		); err != nil {
			log.Printf("Failed to enqueue cover task for song %s: %v", record.ID, err)
		}
	}
}
