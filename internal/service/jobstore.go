package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/songforge/api/internal/model"
)

// ErrNotFound is returned when a job or song record does not exist
var ErrNotFound = errors.New("record not found")

// jobTTL keeps finished jobs around long enough for status queries
const jobTTL = 24 * time.Hour

// JobStore persists Job records. The polling loop is the only writer of
// a job's status; everything else reads.
type JobStore interface {
	SaveJob(ctx context.Context, job *model.Job) error
	GetJob(ctx context.Context, id string) (*model.Job, error)
	GetJobByTaskID(ctx context.Context, taskID string) (*model.Job, error)
}

// RedisJobStore implements JobStore on Redis JSON values
type RedisJobStore struct {
	redis *redis.Client
}

func NewRedisJobStore(redisClient *redis.Client) *RedisJobStore {
	return &RedisJobStore{redis: redisClient}
}

func (s *RedisJobStore) SaveJob(ctx context.Context, job *model.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, jobKey(job.ID), data, jobTTL).Err(); err != nil {
		return err
	}
	// secondary index so status queries can find the job by provider task id
	if job.TaskID != "" {
		if err := s.redis.Set(ctx, taskIndexKey(job.TaskID), job.ID, jobTTL).Err(); err != nil {
			return err
		}
	}
	return nil
}

func (s *RedisJobStore) GetJob(ctx context.Context, id string) (*model.Job, error) {
	data, err := s.redis.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var job model.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *RedisJobStore) GetJobByTaskID(ctx context.Context, taskID string) (*model.Job, error) {
	id, err := s.redis.Get(ctx, taskIndexKey(taskID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.GetJob(ctx, id)
}

func jobKey(id string) string       { return fmt.Sprintf("job:%s", id) }
func taskIndexKey(id string) string { return fmt.Sprintf("job:task:%s", id) }
