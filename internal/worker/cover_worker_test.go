package worker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/songforge/api/internal/model"
	"github.com/songforge/api/internal/pipeline"
	"github.com/songforge/api/internal/service"
)

func TestCoverWorkerUpdatesRecord(t *testing.T) {
	provider := &fakeProvider{}
	songs := newMemSongStore()
	songs.InsertSong(context.Background(), &model.SongRecord{ID: "song-1", OwnerID: "user-1", Title: "Neon Rain"})

	coverService := service.NewCoverService(provider, songs, pipeline.NewPersister(nil, songs))
	w := NewCoverWorker(coverService)

	payload, _ := json.Marshal(model.CoverRequest{
		SongID: "song-1",
		Title:  "Neon Rain",
		Genre:  model.GenrePop,
		UserID: "user-1",
	})

	if err := w.ProcessTask(context.Background(), asynq.NewTask(service.TaskTypeCover, payload)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	song, _ := songs.GetSong(context.Background(), "song-1")
	if song.CoverURL == "" {
		t.Error("expected the song's cover to be set")
	}
}

func TestCoverWorkerBadPayload(t *testing.T) {
	provider := &fakeProvider{}
	songs := newMemSongStore()
	coverService := service.NewCoverService(provider, songs, pipeline.NewPersister(nil, songs))
	w := NewCoverWorker(coverService)

	if err := w.ProcessTask(context.Background(), asynq.NewTask(service.TaskTypeCover, []byte("{not json"))); err == nil {
		t.Fatal("expected unmarshal error")
	}
}
