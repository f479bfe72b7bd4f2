package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/songforge/api/internal/model"
	"github.com/songforge/api/internal/pipeline"
)

// coverFailGenerator fails only the cover operation
type coverFailGenerator struct {
	fakeGenerator
}

func (g *coverFailGenerator) GenerateCover(ctx context.Context, prompt string) (string, error) {
	return "", errors.New("image service unavailable")
}

func TestGenerateCoverUpdatesRecord(t *testing.T) {
	gen := &fakeGenerator{}
	songs := newMemSongStore()
	songs.InsertSong(context.Background(), &model.SongRecord{ID: "song-1", OwnerID: "user-1", Title: "Neon Rain"})

	svc := NewCoverService(gen, songs, pipeline.NewPersister(nil, songs))

	url, err := svc.GenerateCover(context.Background(), &model.CoverRequest{
		SongID: "song-1",
		Title:  "Neon Rain",
		Genre:  model.GenrePop,
		Mood:   "Dreamy",
		UserID: "user-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url == "" {
		t.Fatal("expected a cover URL")
	}

	song, _ := songs.GetSong(context.Background(), "song-1")
	if song.CoverURL != url {
		t.Errorf("record cover not updated: %q vs %q", song.CoverURL, url)
	}
}

func TestGenerateCoverUnknownSongStillReturnsURL(t *testing.T) {
	gen := &fakeGenerator{}
	songs := newMemSongStore()
	svc := NewCoverService(gen, songs, pipeline.NewPersister(nil, songs))

	// the record update fails, but the image was produced
	url, err := svc.GenerateCover(context.Background(), &model.CoverRequest{SongID: "missing", Title: "X"})
	if err != nil {
		t.Fatalf("record update failure must not fail enrichment: %v", err)
	}
	if url == "" {
		t.Error("expected the generated URL despite the stale record")
	}
}

func TestGenerateCoverProviderFailure(t *testing.T) {
	gen := &coverFailGenerator{}
	songs := newMemSongStore()
	svc := NewCoverService(gen, songs, pipeline.NewPersister(nil, songs))

	if _, err := svc.GenerateCover(context.Background(), &model.CoverRequest{SongID: "song-1"}); err == nil {
		t.Fatal("expected provider failure to propagate for the queue to retry")
	}
}

func TestBuildCoverPrompt(t *testing.T) {
	got := buildCoverPrompt("Neon Rain", model.GenrePop, "Dreamy")
	for _, want := range []string{"album cover artwork", `"Neon Rain"`, "pop style", "dreamy mood", "no text"} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q: %s", want, got)
		}
	}

	bare := buildCoverPrompt("", "", "")
	if !strings.Contains(bare, "album cover artwork") {
		t.Errorf("bare prompt should still describe artwork: %s", bare)
	}
}
