package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/songforge/api/internal/model"
)

// SongStore is the insert/update-by-id surface over the persisted media
// records. The persister inserts, cover enrichment touches only the
// cover field, and nothing here ever deletes.
type SongStore interface {
	InsertSong(ctx context.Context, song *model.SongRecord) error
	GetSong(ctx context.Context, id string) (*model.SongRecord, error)
	UpdateSongCover(ctx context.Context, id, coverURL string) error
}

// RedisSongStore implements SongStore on Redis JSON values with no TTL
type RedisSongStore struct {
	redis *redis.Client
}

func NewRedisSongStore(redisClient *redis.Client) *RedisSongStore {
	return &RedisSongStore{redis: redisClient}
}

func (s *RedisSongStore) InsertSong(ctx context.Context, song *model.SongRecord) error {
	data, err := json.Marshal(song)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, songKey(song.ID), data, 0).Err()
}

func (s *RedisSongStore) GetSong(ctx context.Context, id string) (*model.SongRecord, error) {
	data, err := s.redis.Get(ctx, songKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var song model.SongRecord
	if err := json.Unmarshal(data, &song); err != nil {
		return nil, err
	}
	return &song, nil
}

// UpdateSongCover mutates only the cover field of an existing record
func (s *RedisSongStore) UpdateSongCover(ctx context.Context, id, coverURL string) error {
	song, err := s.GetSong(ctx, id)
	if err != nil {
		return err
	}
	song.CoverURL = coverURL
	song.UpdatedAt = time.Now()
	return s.InsertSong(ctx, song)
}

func songKey(id string) string { return fmt.Sprintf("song:%s", id) }
