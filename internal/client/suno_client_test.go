package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/songforge/api/internal/apperr"
	"github.com/songforge/api/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *SunoClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewSunoClient(&config.SunoConfig{BaseURL: srv.URL, APIKey: "test-key"})
}

func TestParseTaskStatusClosedSet(t *testing.T) {
	cases := []struct {
		raw  string
		want TaskStatus
	}{
		{"PENDING", StatusPending},
		{"GENERATING", StatusGenerating},
		{"RUNNING", StatusGenerating},
		{"TEXT_SUCCESS", StatusTextReady},
		{"FIRST_SUCCESS", StatusFirstReady},
		{"SUCCESS", StatusSuccess},
		{"COMPLETE", StatusSuccess},
		{"CREATE_TASK_FAILED", StatusFailed},
		{"GENERATE_AUDIO_FAILED", StatusFailed},
		{"CALLBACK_EXCEPTION", StatusFailed},
		{"SENSITIVE_WORD_ERROR", StatusFailed},
		{"SOMETHING_NEW", StatusUnknown},
	}
	for _, tc := range cases {
		if got := parseTaskStatus(tc.raw); got != tc.want {
			t.Errorf("parseTaskStatus(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestUnknownStatusCountsAsInProgress(t *testing.T) {
	if !StatusUnknown.InProgress() {
		t.Error("unrecognized provider statuses must keep polling")
	}
	if StatusSuccess.InProgress() || StatusFailed.InProgress() {
		t.Error("terminal statuses must stop polling")
	}
}

func TestGenerateMusicReturnsTaskID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing bearer auth, got %q", got)
		}
		w.Write([]byte(`{"code":200,"msg":"success","data":{"taskId":"task-123"}}`))
	})

	taskID, err := c.GenerateMusic(context.Background(), &GenerateMusicRequest{Prompt: "a storm at sea"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if taskID != "task-123" {
		t.Errorf("expected task-123, got %q", taskID)
	}
}

func TestEnvelopeErrorMapsToProviderError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":429,"msg":"rate limit exceeded"}`))
	})

	_, err := c.GenerateMusic(context.Background(), &GenerateMusicRequest{Prompt: "x"})
	e, ok := apperr.As(err)
	if !ok || e.Kind != apperr.KindProvider {
		t.Fatalf("expected provider error, got %v", err)
	}
	if e.Code != apperr.CodeRateLimited || e.Message != "rate limit exceeded" {
		t.Errorf("expected code and message from the envelope, got %+v", e)
	}
}

func TestTransportFailureMapsToNetworkError(t *testing.T) {
	c := NewSunoClient(&config.SunoConfig{BaseURL: "http://127.0.0.1:1", APIKey: "k"})

	_, err := c.GenerateMusic(context.Background(), &GenerateMusicRequest{Prompt: "x"})
	if !apperr.Is(err, apperr.KindNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestGetGenerationStatusParsesRecordInfo(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("taskId"); got != "task-123" {
			t.Errorf("unexpected taskId %q", got)
		}
		w.Write([]byte(`{
			"code": 200,
			"msg": "success",
			"data": {
				"taskId": "task-123",
				"status": "SUCCESS",
				"response": {
					"sunoData": [
						{"id":"s1","title":"First Light","audioUrl":"https://cdn/s1.mp3","duration":183.4,"modelName":"chirp-v5"}
					]
				}
			}
		}`))
	})

	st, err := c.GetGenerationStatus(context.Background(), "task-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Status != StatusSuccess {
		t.Errorf("expected SUCCESS, got %v", st.Status)
	}
	if len(st.Songs) != 1 || st.Songs[0].ID != "s1" || st.Songs[0].Duration != 183.4 {
		t.Errorf("unexpected songs: %+v", st.Songs)
	}
}

func TestGetGenerationStatusUnknownStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":200,"msg":"success","data":{"taskId":"task-123","status":"BRAND_NEW_STATE"}}`))
	})

	st, err := c.GetGenerationStatus(context.Background(), "task-123")
	if err != nil {
		t.Fatalf("unknown statuses must not error: %v", err)
	}
	if st.Status != StatusUnknown || !st.Status.InProgress() {
		t.Errorf("unknown raw status should poll on, got %v", st.Status)
	}
	if st.RawStatus != "BRAND_NEW_STATE" {
		t.Errorf("raw status should be preserved for logging, got %q", st.RawStatus)
	}
}
