package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/songforge/api/internal/service"
	"github.com/songforge/api/pkg/response"
)

// SongHandler serves persisted song records
type SongHandler struct {
	songs service.SongStore
}

func NewSongHandler(songs service.SongStore) *SongHandler {
	return &SongHandler{songs: songs}
}

// Get handles GET /songs/:id
func (h *SongHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return response.ValidationError(c, "Song ID is required", nil)
	}

	song, err := h.songs.GetSong(c.Context(), id)
	if err != nil {
		if err == service.ErrNotFound {
			return response.NotFound(c, "Song not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, song)
}
