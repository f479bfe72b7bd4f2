package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/songforge/api/internal/apperr"
	"github.com/songforge/api/internal/config"
	"github.com/songforge/api/internal/model"
)

// MusicGenerator defines the provider operations the pipeline depends on
type MusicGenerator interface {
	GenerateMusic(ctx context.Context, req *GenerateMusicRequest) (string, error)
	ExtendMusic(ctx context.Context, req *ExtendMusicRequest) (string, error)
	SeparateStems(ctx context.Context, audioID string) (string, error)
	ConcatMusic(ctx context.Context, clipIDs []string) (string, error)
	GetGenerationStatus(ctx context.Context, taskID string) (*GenerationStatus, error)
	GenerateCover(ctx context.Context, prompt string) (string, error)
}

// SunoClient implements MusicGenerator against the Suno HTTP API
type SunoClient struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	callbackURL string
}

// TaskStatus is the closed status set every provider response is mapped
// into at this boundary. Raw strings never leave the client.
type TaskStatus int

const (
	StatusUnknown TaskStatus = iota
	StatusPending
	StatusGenerating
	StatusTextReady  // lyrics/text milestone reached
	StatusFirstReady // first track finished, more may follow
	StatusSuccess
	StatusFailed
)

// InProgress reports whether polling should continue
func (s TaskStatus) InProgress() bool {
	switch s {
	case StatusPending, StatusGenerating, StatusTextReady, StatusFirstReady, StatusUnknown:
		return true
	}
	return false
}

func (s TaskStatus) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusGenerating:
		return "GENERATING"
	case StatusTextReady:
		return "TEXT_SUCCESS"
	case StatusFirstReady:
		return "FIRST_SUCCESS"
	case StatusSuccess:
		return "SUCCESS"
	case StatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// parseTaskStatus maps a raw provider status string into the closed set.
// Unrecognized values are logged by the caller and treated as in-progress.
func parseTaskStatus(raw string) TaskStatus {
	switch raw {
	case "PENDING":
		return StatusPending
	case "GENERATING", "RUNNING":
		return StatusGenerating
	case "TEXT_SUCCESS":
		return StatusTextReady
	case "FIRST_SUCCESS":
		return StatusFirstReady
	case "SUCCESS", "COMPLETE":
		return StatusSuccess
	case "CREATE_TASK_FAILED", "GENERATE_AUDIO_FAILED", "CALLBACK_EXCEPTION", "SENSITIVE_WORD_ERROR", "FAILED":
		return StatusFailed
	default:
		return StatusUnknown
	}
}

// GenerateMusicRequest is the submission payload for primary generation
type GenerateMusicRequest struct {
	Prompt       string          `json:"prompt"`
	Style        string          `json:"style,omitempty"`
	Title        string          `json:"title,omitempty"`
	CustomMode   bool            `json:"customMode"`
	Instrumental bool            `json:"instrumental"`
	Model        model.ModelTier `json:"model"`
	CallBackURL  string          `json:"callBackUrl,omitempty"`
}

// ExtendMusicRequest continues an existing track from a time offset
type ExtendMusicRequest struct {
	AudioID     string          `json:"audioId"`
	Prompt      string          `json:"prompt,omitempty"`
	ContinueAt  float64         `json:"continueAt"`
	Style       string          `json:"style,omitempty"`
	Title       string          `json:"title,omitempty"`
	Model       model.ModelTier `json:"model"`
	CallBackURL string          `json:"callBackUrl,omitempty"`
}

// AudioItem is one track inside a finalized provider task
type AudioItem struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	AudioURL  string  `json:"audioUrl"`
	StreamURL string  `json:"streamAudioUrl"`
	ImageURL  string  `json:"imageUrl"`
	Duration  float64 `json:"duration"`
	Tags      string  `json:"tags"`
	Prompt    string  `json:"prompt"`
	ModelName string  `json:"modelName"`
}

// GenerationStatus is one observation of a provider task
type GenerationStatus struct {
	TaskID       string
	Status       TaskStatus
	RawStatus    string
	ErrorMessage string
	CreateTime   int64
	Songs        []AudioItem
}

// apiEnvelope is the provider's uniform response wrapper
type apiEnvelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type taskData struct {
	TaskID string `json:"taskId"`
}

type recordInfoData struct {
	TaskID     string `json:"taskId"`
	Status     string `json:"status"`
	ErrorMsg   string `json:"errorMessage"`
	CreateTime int64  `json:"createTime"`
	Response   struct {
		SunoData []AudioItem `json:"sunoData"`
	} `json:"response"`
}

// NewSunoClient creates a new Suno API client
func NewSunoClient(cfg *config.SunoConfig) *SunoClient {
	return &SunoClient{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		callbackURL: cfg.CallbackURL,
	}
}

// GenerateMusic submits a primary generation task and returns its task id
func (c *SunoClient) GenerateMusic(ctx context.Context, req *GenerateMusicRequest) (string, error) {
	if req.CallBackURL == "" {
		req.CallBackURL = c.callbackURL
	}
	var data taskData
	if err := c.post(ctx, "/api/v1/generate", req, &data); err != nil {
		return "", err
	}
	return data.TaskID, nil
}

// ExtendMusic submits an extension task and returns its task id
func (c *SunoClient) ExtendMusic(ctx context.Context, req *ExtendMusicRequest) (string, error) {
	if req.CallBackURL == "" {
		req.CallBackURL = c.callbackURL
	}
	var data taskData
	if err := c.post(ctx, "/api/v1/generate/extend", req, &data); err != nil {
		return "", err
	}
	return data.TaskID, nil
}

// SeparateStems submits a vocal/instrumental separation task
func (c *SunoClient) SeparateStems(ctx context.Context, audioID string) (string, error) {
	req := map[string]string{"audioId": audioID, "callBackUrl": c.callbackURL}
	var data taskData
	if err := c.post(ctx, "/api/v1/vocal-removal/generate", req, &data); err != nil {
		return "", err
	}
	return data.TaskID, nil
}

// ConcatMusic submits a concatenation task over an ordered list of clips
func (c *SunoClient) ConcatMusic(ctx context.Context, clipIDs []string) (string, error) {
	req := map[string]interface{}{"clipIds": clipIDs, "callBackUrl": c.callbackURL}
	var data taskData
	if err := c.post(ctx, "/api/v1/generate/concat", req, &data); err != nil {
		return "", err
	}
	return data.TaskID, nil
}

// GetGenerationStatus retrieves and classifies the state of a task
func (c *SunoClient) GetGenerationStatus(ctx context.Context, taskID string) (*GenerationStatus, error) {
	endpoint := "/api/v1/generate/record-info?taskId=" + url.QueryEscape(taskID)
	var data recordInfoData
	if err := c.get(ctx, endpoint, &data); err != nil {
		return nil, err
	}

	status := parseTaskStatus(data.Status)
	if status == StatusUnknown {
		log.Printf("[Suno API] Unrecognized task status %q (task=%s), treating as in progress", data.Status, taskID)
	}

	return &GenerationStatus{
		TaskID:       data.TaskID,
		Status:       status,
		RawStatus:    data.Status,
		ErrorMessage: data.ErrorMsg,
		CreateTime:   data.CreateTime,
		Songs:        data.Response.SunoData,
	}, nil
}

// GenerateCover requests a cover image for the given prompt and returns
// the provider-hosted image URL.
func (c *SunoClient) GenerateCover(ctx context.Context, prompt string) (string, error) {
	req := map[string]string{"prompt": prompt}
	var data struct {
		ImageURL string `json:"imageUrl"`
	}
	if err := c.post(ctx, "/api/v1/generate/image", req, &data); err != nil {
		return "", err
	}
	return data.ImageURL, nil
}

// post sends a POST request with JSON body
func (c *SunoClient) post(ctx context.Context, endpoint string, body interface{}, result interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequest(req, result)
}

// get sends a GET request and parses the JSON response
func (c *SunoClient) get(ctx context.Context, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequest(req, result)
}

// doRequest executes an HTTP request, unwraps the provider envelope and
// maps transport and provider errors into the pipeline taxonomy.
func (c *SunoClient) doRequest(req *http.Request, result interface{}) error {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	log.Printf("[Suno API] → %s %s", req.Method, req.URL.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[Suno API] ✗ %s %s — request failed: %v", req.Method, req.URL.String(), err)
		return apperr.Network("provider request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Network("failed to read provider response", err)
	}

	log.Printf("[Suno API] ← %d %s %s", resp.StatusCode, req.Method, req.URL.String())

	var envelope apiEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return apperr.Provider(resp.StatusCode, apperr.UserMessage(resp.StatusCode))
		}
		return fmt.Errorf("failed to unmarshal provider response: %w", err)
	}

	if envelope.Code != 200 {
		msg := envelope.Msg
		if msg == "" {
			msg = apperr.UserMessage(envelope.Code)
		}
		log.Printf("[Suno API] ✗ provider error %d: %s", envelope.Code, msg)
		return apperr.Provider(envelope.Code, msg)
	}

	if result != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, result); err != nil {
			return fmt.Errorf("failed to unmarshal provider data: %w", err)
		}
	}

	return nil
}

// IsConfigured returns true if the client has valid configuration
func (c *SunoClient) IsConfigured() bool {
	return c.apiKey != ""
}
