package model

import "time"

// Job is one asynchronous unit of work submitted to the provider.
// It is created by the submitter and mutated only by the polling loop.
type Job struct {
	ID          string           `json:"id"`
	Kind        JobKind          `json:"kind"`
	TaskID      string           `json:"taskId"` // opaque provider task identifier
	OwnerID     string           `json:"ownerId"`
	Status      JobStatus        `json:"status"`
	Attempts    int              `json:"attempts"`
	Error       *string          `json:"error,omitempty"`
	Params      GenerationParams `json:"params"`
	Result      []byte           `json:"-"` // stored as JSON
	CreatedAt   time.Time        `json:"createdAt"`
	StartedAt   *time.Time       `json:"startedAt,omitempty"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
}

// GenerationParams is the immutable user intent behind a job, carried
// through to the persisted song record for reproducibility.
type GenerationParams struct {
	Prompt        string    `json:"prompt"` // final descriptor sent to the provider
	Theme         string    `json:"theme,omitempty"`
	Title         string    `json:"title,omitempty"`
	Genre         Genre     `json:"genre,omitempty"`
	Mood          string    `json:"mood,omitempty"`
	Tempo         int       `json:"tempo,omitempty"` // BPM
	Energy        string    `json:"energy,omitempty"`
	VoiceType     VoiceType `json:"voiceType,omitempty"`
	Language      string    `json:"language,omitempty"`
	Instrumental  bool      `json:"instrumental"`
	Model         ModelTier `json:"model"`
	SourceAudioID string    `json:"sourceAudioId,omitempty"` // extend/stems
	ContinueAt    float64   `json:"continueAt,omitempty"`    // extend, seconds
	ClipIDs       []string  `json:"clipIds,omitempty"`       // concat, ordered
}
