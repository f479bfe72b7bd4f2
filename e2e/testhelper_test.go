package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/hibiken/asynq"

	"github.com/songforge/api/internal/auth"
	"github.com/songforge/api/internal/client"
	"github.com/songforge/api/internal/handler"
	"github.com/songforge/api/internal/middleware"
	"github.com/songforge/api/internal/model"
	"github.com/songforge/api/internal/pipeline"
	"github.com/songforge/api/internal/service"
)

const testJWTSecret = "test-secret-for-e2e"

// testApp holds the app plus the fakes behind it, so tests can seed
// records and inspect what got enqueued.
type testApp struct {
	app      *fiber.App
	provider *stubProvider
	jobs     *memJobStore
	songs    *memSongStore
	queue    *memQueue
}

// stubProvider answers all provider operations in memory
type stubProvider struct {
	mu        sync.Mutex
	nextTask  string
	submitErr error
	status    *client.GenerationStatus
	statusErr error
}

func (p *stubProvider) taskID() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.submitErr != nil {
		return "", p.submitErr
	}
	if p.nextTask == "" {
		return "task-e2e-1", nil
	}
	return p.nextTask, nil
}

func (p *stubProvider) GenerateMusic(ctx context.Context, req *client.GenerateMusicRequest) (string, error) {
	return p.taskID()
}

func (p *stubProvider) ExtendMusic(ctx context.Context, req *client.ExtendMusicRequest) (string, error) {
	return p.taskID()
}

func (p *stubProvider) SeparateStems(ctx context.Context, audioID string) (string, error) {
	return p.taskID()
}

func (p *stubProvider) ConcatMusic(ctx context.Context, clipIDs []string) (string, error) {
	return p.taskID()
}

func (p *stubProvider) GetGenerationStatus(ctx context.Context, taskID string) (*client.GenerationStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.statusErr != nil {
		return nil, p.statusErr
	}
	if p.status != nil {
		return p.status, nil
	}
	return &client.GenerationStatus{TaskID: taskID, Status: client.StatusGenerating}, nil
}

func (p *stubProvider) GenerateCover(ctx context.Context, prompt string) (string, error) {
	return "https://cdn.provider/cover.jpg", nil
}

type memJobStore struct {
	mu     sync.Mutex
	jobs   map[string]*model.Job
	byTask map[string]string
}

func newMemJobStore() *memJobStore {
	return &memJobStore{jobs: make(map[string]*model.Job), byTask: make(map[string]string)}
}

func (s *memJobStore) SaveJob(ctx context.Context, job *model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *job
	s.jobs[job.ID] = &cp
	if job.TaskID != "" {
		s.byTask[job.TaskID] = job.ID
	}
	return nil
}

func (s *memJobStore) GetJob(ctx context.Context, id string) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (s *memJobStore) GetJobByTaskID(ctx context.Context, taskID string) (*model.Job, error) {
	s.mu.Lock()
	id, ok := s.byTask[taskID]
	s.mu.Unlock()
	if !ok {
		return nil, service.ErrNotFound
	}
	return s.GetJob(ctx, id)
}

type memSongStore struct {
	mu    sync.Mutex
	songs map[string]*model.SongRecord
}

func newMemSongStore() *memSongStore {
	return &memSongStore{songs: make(map[string]*model.SongRecord)}
}

func (s *memSongStore) InsertSong(ctx context.Context, song *model.SongRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *song
	s.songs[song.ID] = &cp
	return nil
}

func (s *memSongStore) GetSong(ctx context.Context, id string) (*model.SongRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	song, ok := s.songs[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	cp := *song
	return &cp, nil
}

func (s *memSongStore) UpdateSongCover(ctx context.Context, id, coverURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	song, ok := s.songs[id]
	if !ok {
		return service.ErrNotFound
	}
	song.CoverURL = coverURL
	song.UpdatedAt = time.Now()
	return nil
}

type memQueue struct {
	mu    sync.Mutex
	tasks []*asynq.Task
}

func (q *memQueue) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{ID: "enq-e2e", Type: task.Type()}, nil
}

// setupApp wires the same routes as main.go on top of in-memory stores,
// a stubbed provider and no durable storage.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	provider := &stubProvider{}
	jobs := newMemJobStore()
	songs := newMemSongStore()
	queue := &memQueue{}

	validate := validator.New()
	persister := pipeline.NewPersister(nil, songs)

	generationService := service.NewGenerationService(jobs, songs, queue, provider)
	coverService := service.NewCoverService(provider, songs, persister)

	generateHandler := handler.NewGenerateHandler(generationService, validate)
	coverHandler := handler.NewCoverHandler(coverService, validate)
	webhookHandler := handler.NewWebhookHandler()
	songHandler := handler.NewSongHandler(songs)

	authMiddleware := middleware.NewAuthMiddleware(testJWTSecret)

	app := fiber.New()

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"timestamp": 1234567890})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"suno": true,
				"r2":   false,
				"auth": true,
			},
		})
	})
	app.Post("/webhook", webhookHandler.Receive)

	api := app.Group("/", authMiddleware.Authenticate())
	api.Post("/generate", generateHandler.Generate)
	api.Get("/status", generateHandler.Status)
	api.Post("/extend", generateHandler.Extend)
	api.Post("/stems", generateHandler.Stems)
	api.Post("/concat", generateHandler.Concat)
	api.Post("/cancel/:taskId", generateHandler.Cancel)
	api.Post("/generate-cover", coverHandler.GenerateCover)
	api.Get("/songs/:id", songHandler.Get)

	return &testApp{
		app:      app,
		provider: provider,
		jobs:     jobs,
		songs:    songs,
		queue:    queue,
	}
}

// generateToken creates an HMAC JWT for test requests
func generateToken(t *testing.T) string {
	t.Helper()
	claims := auth.Claims{
		UserID: "test-user-123",
		Email:  "test@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "songforge-api",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return signed
}

// doRequest performs an HTTP request against the test app
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doAuthRequest performs an authenticated request
func doAuthRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, error) {
	t.Helper()
	token := generateToken(t)
	return doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

// readBody reads and returns the response body as a string
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses the response body into a map
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}
