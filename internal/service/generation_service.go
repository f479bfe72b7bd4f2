package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/songforge/api/internal/apperr"
	"github.com/songforge/api/internal/client"
	"github.com/songforge/api/internal/model"
	"github.com/songforge/api/internal/prompt"
)

const (
	TaskTypePoll  = "generate:poll"
	TaskTypeCover = "cover:generate"
)

// Enqueuer is the slice of the asynq client used here; *asynq.Client
// satisfies it directly.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// GenerationService validates submissions per job kind, performs the
// one-shot tier fallback and hands the accepted job to the polling worker.
type GenerationService struct {
	jobs  JobStore
	songs SongStore
	queue Enqueuer
	suno  client.MusicGenerator
}

func NewGenerationService(jobs JobStore, songs SongStore, queue Enqueuer, suno client.MusicGenerator) *GenerationService {
	return &GenerationService{
		jobs:  jobs,
		songs: songs,
		queue: queue,
		suno:  suno,
	}
}

// StartGeneration submits a primary generation job
func (s *GenerationService) StartGeneration(ctx context.Context, ownerID string, req *model.GenerateRequest) (*model.Job, error) {
	if req.CustomPrompt == "" && req.Genre == "" {
		return nil, apperr.Validation("style descriptor must not be empty")
	}

	tier := req.Model
	if tier == "" {
		tier = model.ModelV5
	}
	if !model.IsValidTier(tier) {
		return nil, apperr.Validation("unknown model tier %q", tier)
	}

	instrumental := req.MakeInstrumental || req.VoiceType == model.VoiceInstrumental

	descriptor := req.CustomPrompt
	if descriptor == "" {
		descriptor = prompt.Build(prompt.Params{
			Genre:     req.Genre,
			Mood:      req.Mood,
			Tempo:     req.Tempo,
			Energy:    req.Energy,
			VoiceType: req.VoiceType,
			Language:  req.Language,
			Theme:     req.Prompt,
		})
	}

	params := model.GenerationParams{
		Prompt:       descriptor,
		Theme:        req.Prompt,
		Title:        req.Title,
		Genre:        req.Genre,
		Mood:         req.Mood,
		Tempo:        req.Tempo,
		Energy:       req.Energy,
		VoiceType:    req.VoiceType,
		Language:     req.Language,
		Instrumental: instrumental,
		Model:        tier,
	}

	taskID, usedTier, err := s.submitWithFallback(tier, func(t model.ModelTier) (string, error) {
		return s.suno.GenerateMusic(ctx, &client.GenerateMusicRequest{
			Prompt:       descriptor,
			Style:        string(req.Genre),
			Title:        req.Title,
			CustomMode:   req.CustomPrompt != "",
			Instrumental: instrumental,
			Model:        t,
		})
	})
	if err != nil {
		return nil, err
	}
	params.Model = usedTier

	return s.createJob(ctx, model.JobKindGenerate, ownerID, taskID, params)
}

// StartExtension submits a continuation of an existing track. The offset
// must lie strictly inside the source track's duration; this is checked
// against the stored record before any provider call.
func (s *GenerationService) StartExtension(ctx context.Context, ownerID string, req *model.ExtendRequest) (*model.Job, error) {
	source, err := s.songs.GetSong(ctx, req.AudioID)
	if err != nil {
		if err == ErrNotFound {
			return nil, apperr.Validation("unknown source track %q", req.AudioID)
		}
		return nil, err
	}

	if req.ContinueAt <= 0 {
		return nil, apperr.Validation("continueAt must be greater than zero")
	}
	if source.Duration > 0 && req.ContinueAt >= source.Duration {
		return nil, apperr.Validation("continueAt %.1fs is beyond the source track duration %.1fs", req.ContinueAt, source.Duration)
	}

	tier := req.Model
	if tier == "" {
		tier = source.Params.Model
	}
	if tier == "" {
		tier = model.ModelV5
	}

	params := model.GenerationParams{
		Prompt:        req.Prompt,
		Title:         req.Title,
		Genre:         model.Genre(req.Style),
		Model:         tier,
		SourceAudioID: req.AudioID,
		ContinueAt:    req.ContinueAt,
	}

	taskID, usedTier, err := s.submitWithFallback(tier, func(t model.ModelTier) (string, error) {
		return s.suno.ExtendMusic(ctx, &client.ExtendMusicRequest{
			AudioID:    req.AudioID,
			Prompt:     req.Prompt,
			ContinueAt: req.ContinueAt,
			Style:      req.Style,
			Title:      req.Title,
			Model:      t,
		})
	})
	if err != nil {
		return nil, err
	}
	params.Model = usedTier

	return s.createJob(ctx, model.JobKindExtend, ownerID, taskID, params)
}

// StartStemSeparation submits a vocal/instrumental split for one track
func (s *GenerationService) StartStemSeparation(ctx context.Context, ownerID, audioID string) (*model.Job, error) {
	if audioID == "" {
		return nil, apperr.Validation("audioId is required")
	}

	taskID, err := s.suno.SeparateStems(ctx, audioID)
	if err != nil {
		return nil, submissionError(err)
	}

	params := model.GenerationParams{SourceAudioID: audioID}
	return s.createJob(ctx, model.JobKindStems, ownerID, taskID, params)
}

// StartConcatenation submits an ordered merge of two or more clips
func (s *GenerationService) StartConcatenation(ctx context.Context, ownerID string, clipIDs []string) (*model.Job, error) {
	if len(clipIDs) < 2 {
		return nil, apperr.Validation("at least 2 clip ids are required")
	}
	for _, id := range clipIDs {
		if id == "" {
			return nil, apperr.Validation("clip ids must not be empty")
		}
	}

	taskID, err := s.suno.ConcatMusic(ctx, clipIDs)
	if err != nil {
		return nil, submissionError(err)
	}

	params := model.GenerationParams{ClipIDs: clipIDs}
	return s.createJob(ctx, model.JobKindConcat, ownerID, taskID, params)
}

// submitWithFallback issues one submission with the requested tier and,
// if the provider rejects it or the call times out, retries exactly once
// with the deterministic fallback tier. Any further failure is terminal.
func (s *GenerationService) submitWithFallback(tier model.ModelTier, submit func(model.ModelTier) (string, error)) (string, model.ModelTier, error) {
	taskID, err := submit(tier)
	if err == nil {
		return taskID, tier, nil
	}
	if apperr.Is(err, apperr.KindValidation) {
		return "", tier, err
	}

	fallback, ok := model.FallbackTier(tier)
	if !ok {
		return "", tier, submissionError(err)
	}

	log.Printf("[Submitter] tier %s rejected (%v), retrying once with %s", tier, err, fallback)
	taskID, err = submit(fallback)
	if err != nil {
		return "", fallback, submissionError(err)
	}
	return taskID, fallback, nil
}

// submissionError keeps provider categories (credits, rate limit) visible
// to callers and wraps everything else as a terminal submission failure.
func submissionError(err error) error {
	if e, ok := apperr.As(err); ok && e.Kind == apperr.KindProvider && e.Code != 0 {
		return err
	}
	return apperr.Submission("provider rejected the job", err)
}

func (s *GenerationService) createJob(ctx context.Context, kind model.JobKind, ownerID, taskID string, params model.GenerationParams) (*model.Job, error) {
	job := &model.Job{
		ID:        uuid.New().String(),
		Kind:      kind,
		TaskID:    taskID,
		OwnerID:   ownerID,
		Status:    model.JobStatusSubmitted,
		Params:    params,
		CreatedAt: time.Now(),
	}

	if err := s.jobs.SaveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	task, err := NewPollTask(job.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create poll task: %w", err)
	}
	// polling must not be re-run by the queue: the loop owns its own budget
	_, err = s.queue.Enqueue(task,
		asynq.Queue("generate"),
		asynq.MaxRetry(0),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue poll task: %w", err)
	}

	return job, nil
}

// GetStatus performs one poll of the provider task and shapes the result
func (s *GenerationService) GetStatus(ctx context.Context, taskID string) (*model.StatusData, error) {
	st, err := s.suno.GetGenerationStatus(ctx, taskID)
	if err != nil {
		return nil, err
	}

	songs := make([]model.SongInfo, 0, len(st.Songs))
	for _, item := range st.Songs {
		songs = append(songs, model.SongInfo{
			ID:        item.ID,
			Title:     item.Title,
			AudioURL:  item.AudioURL,
			ImageURL:  item.ImageURL,
			Status:    "complete",
			Duration:  item.Duration,
			Tags:      item.Tags,
			Prompt:    item.Prompt,
			ModelName: item.ModelName,
		})
	}

	return &model.StatusData{
		Status:     st.Status.String(),
		Songs:      songs,
		TaskID:     taskID,
		CreateTime: st.CreateTime,
	}, nil
}

// CancelJob stops local polling for a task. The provider side is not
// cancelled and may still finish the work unobserved.
func (s *GenerationService) CancelJob(ctx context.Context, taskID string) (*model.Job, error) {
	job, err := s.jobs.GetJobByTaskID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if job.Status.IsTerminal() {
		return nil, apperr.Validation("job already completed")
	}

	msg := "cancelled by user"
	job.Status = model.JobStatusFailed
	job.Error = &msg
	now := time.Now()
	job.CompletedAt = &now

	if err := s.jobs.SaveJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// GetJob exposes job lookup to workers and handlers
func (s *GenerationService) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	return s.jobs.GetJob(ctx, jobID)
}

// UpdateJobStatus records a lifecycle transition (called by the worker)
func (s *GenerationService) UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus, attempt int) error {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.IsTerminal() {
		return nil
	}

	job.Status = status
	job.Attempts = attempt
	if job.StartedAt == nil {
		now := time.Now()
		job.StartedAt = &now
	}
	return s.jobs.SaveJob(ctx, job)
}

// CompleteJob marks a job done and stores its result (called by the worker)
func (s *GenerationService) CompleteJob(ctx context.Context, jobID string, result interface{}) error {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	resultBytes, err := json.Marshal(result)
	if err != nil {
		return err
	}

	job.Status = model.JobStatusDone
	job.Result = resultBytes
	now := time.Now()
	job.CompletedAt = &now
	return s.jobs.SaveJob(ctx, job)
}

// FailJob marks a job failed with the provider's message
func (s *GenerationService) FailJob(ctx context.Context, jobID, errMsg string) error {
	return s.finishJob(ctx, jobID, model.JobStatusFailed, errMsg)
}

// TimeoutJob marks a job timed out after the attempt budget ran out
func (s *GenerationService) TimeoutJob(ctx context.Context, jobID, errMsg string) error {
	return s.finishJob(ctx, jobID, model.JobStatusTimedOut, errMsg)
}

func (s *GenerationService) finishJob(ctx context.Context, jobID string, status model.JobStatus, errMsg string) error {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	job.Status = status
	job.Error = &errMsg
	now := time.Now()
	job.CompletedAt = &now
	return s.jobs.SaveJob(ctx, job)
}

// NewPollTask builds the asynq task that drives one job's polling loop
func NewPollTask(jobID string) (*asynq.Task, error) {
	data, err := json.Marshal(map[string]string{"jobId": jobID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePoll, data), nil
}

// NewCoverTask builds the fire-and-forget cover enrichment task
func NewCoverTask(req *model.CoverRequest) (*asynq.Task, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeCover, data), nil
}
