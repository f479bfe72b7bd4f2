package e2e

import (
	"context"
	"net/http"
	"testing"
)

func TestGetSong_NotFound(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/songs/missing", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusNotFound)

	body := parseJSON(t, resp)
	errObj := body["error"].(map[string]interface{})
	if errObj["code"] != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND, got %v", errObj["code"])
	}
}

func TestGetSong_Found(t *testing.T) {
	ta := setupApp(t)
	seedSong(t, ta, "song-1", 180)

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/songs/song-1", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusOK)

	body := parseJSON(t, resp)
	if body["id"] != "song-1" || body["title"] != "Seeded Track" {
		t.Errorf("unexpected record: %v", body)
	}
}

func TestGenerateCover_MissingFields(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/generate-cover", `{"songId":"song-1"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusBadRequest)
}

func TestGenerateCover_Success(t *testing.T) {
	ta := setupApp(t)
	seedSong(t, ta, "song-1", 180)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/generate-cover", `{
		"songId": "song-1",
		"title": "Seeded Track",
		"genre": "pop",
		"mood": "Dreamy"
	}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusOK)

	body := parseJSON(t, resp)
	if body["success"] != true || body["imageUrl"] == "" {
		t.Errorf("unexpected cover response: %v", body)
	}

	song, _ := ta.songs.GetSong(context.Background(), "song-1")
	if song.CoverURL == "" {
		t.Error("expected the record's cover to be updated")
	}
}
