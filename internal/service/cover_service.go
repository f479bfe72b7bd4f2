package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/songforge/api/internal/client"
	"github.com/songforge/api/internal/model"
	"github.com/songforge/api/internal/pipeline"
)

// CoverService produces cover art for a persisted song. It is the
// enrichment side of the pipeline: failures here are logged and never
// affect the primary result.
type CoverService struct {
	suno      client.MusicGenerator
	songs     SongStore
	persister *pipeline.Persister
}

func NewCoverService(suno client.MusicGenerator, songs SongStore, persister *pipeline.Persister) *CoverService {
	return &CoverService{
		suno:      suno,
		songs:     songs,
		persister: persister,
	}
}

// GenerateCover asks the provider for cover art, persists the image and
// updates only the cover field of the matching song record.
func (s *CoverService) GenerateCover(ctx context.Context, req *model.CoverRequest) (string, error) {
	coverPrompt := buildCoverPrompt(req.Title, req.Genre, req.Mood)

	imageURL, err := s.suno.GenerateCover(ctx, coverPrompt)
	if err != nil {
		return "", fmt.Errorf("cover generation failed: %w", err)
	}

	url, _ := s.persister.PersistAsset(ctx, imageURL, pipeline.CoverKey(req.UserID, req.SongID), "image/jpeg")

	if err := s.songs.UpdateSongCover(ctx, req.SongID, url); err != nil {
		// the image still exists; only the record link is missing
		log.Printf("[Cover] failed to update cover for song %s: %v", req.SongID, err)
	}

	return url, nil
}

func buildCoverPrompt(title string, genre model.Genre, mood string) string {
	var parts []string
	parts = append(parts, "album cover artwork")
	if title != "" {
		parts = append(parts, fmt.Sprintf("for a song called %q", title))
	}
	if genre != "" {
		parts = append(parts, fmt.Sprintf("in a %s style", genre))
	}
	if mood != "" {
		parts = append(parts, fmt.Sprintf("with a %s mood", strings.ToLower(mood)))
	}
	parts = append(parts, "no text, square format")
	return strings.Join(parts, ", ")
}
