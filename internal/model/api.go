package model

// GenerateRequest is the body of POST /generate. Prompt carries the
// free-form theme; CustomPrompt, when set, bypasses the prompt builder
// and is sent to the provider verbatim.
type GenerateRequest struct {
	Prompt           string    `json:"prompt"`
	CustomPrompt     string    `json:"customPrompt,omitempty"`
	MakeInstrumental bool      `json:"make_instrumental"`
	Title            string    `json:"title,omitempty" validate:"max=120"`
	Genre            Genre     `json:"genre" validate:"required"`
	Mood             string    `json:"mood,omitempty"`
	Tempo            int       `json:"tempo,omitempty" validate:"omitempty,min=40,max=240"`
	Energy           string    `json:"energy,omitempty"`
	VoiceType        VoiceType `json:"voiceType,omitempty"`
	Language         string    `json:"language,omitempty"`
	Model            ModelTier `json:"model,omitempty"`
}

// ExtendRequest is the body of POST /extend
type ExtendRequest struct {
	AudioID    string    `json:"audioId" validate:"required"`
	Prompt     string    `json:"prompt,omitempty"`
	ContinueAt float64   `json:"continueAt" validate:"required"`
	Style      string    `json:"style,omitempty"`
	Title      string    `json:"title,omitempty" validate:"max=120"`
	Model      ModelTier `json:"model,omitempty"`
}

// StemsRequest is the body of POST /stems
type StemsRequest struct {
	AudioID string `json:"audioId" validate:"required"`
}

// ConcatRequest is the body of POST /concat
type ConcatRequest struct {
	ClipIDs []string `json:"clipIds" validate:"required"`
}

// CoverRequest is the body of POST /generate-cover
type CoverRequest struct {
	SongID string `json:"songId" validate:"required"`
	Title  string `json:"title" validate:"required"`
	Genre  Genre  `json:"genre,omitempty"`
	Mood   string `json:"mood,omitempty"`
	UserID string `json:"userId,omitempty"`
}

// TaskResponse acknowledges an accepted submission
type TaskResponse struct {
	Success bool   `json:"success"`
	TaskID  string `json:"taskId"`
}

// DataResponse wraps kind-specific submission data
type DataResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// CoverResponse is the synchronous result of POST /generate-cover
type CoverResponse struct {
	Success  bool   `json:"success"`
	ImageURL string `json:"imageUrl"`
}

// StatusResponse is the body of GET /status
type StatusResponse struct {
	Success bool       `json:"success"`
	Data    StatusData `json:"data"`
}

// StatusData is one observation of a provider task
type StatusData struct {
	Status     string     `json:"status"`
	Songs      []SongInfo `json:"songs"`
	TaskID     string     `json:"taskId"`
	CreateTime int64      `json:"createTime"`
}

// SongInfo is one finished track as reported by the provider
type SongInfo struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	AudioURL  string  `json:"audio_url"`
	ImageURL  string  `json:"image_url"`
	Status    string  `json:"status"`
	Duration  float64 `json:"duration"`
	Tags      string  `json:"tags"`
	Prompt    string  `json:"prompt"`
	ModelName string  `json:"model_name"`
}
