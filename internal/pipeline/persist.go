package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/songforge/api/internal/apperr"
	"github.com/songforge/api/internal/client"
	"github.com/songforge/api/internal/model"
)

// downloadTimeout bounds the fetch of one transient provider asset
const downloadTimeout = 30 * time.Second

// RecordStore is the insert-only slice of the media store the persister
// needs. Records are created here and never deleted by this subsystem.
type RecordStore interface {
	InsertSong(ctx context.Context, song *model.SongRecord) error
}

// StorageKey derives the durable object key for a track. The same
// (owner, track) pair always yields the same key, so re-persisting
// overwrites instead of duplicating.
func StorageKey(ownerID, trackID string) string {
	if ownerID == "" {
		ownerID = "anonymous"
	}
	return fmt.Sprintf("songs/%s/%s.mp3", ownerID, trackID)
}

// StemKey derives the durable key for one separated stem
func StemKey(ownerID, taskID, name string) string {
	if ownerID == "" {
		ownerID = "anonymous"
	}
	return fmt.Sprintf("stems/%s/%s/%s.mp3", ownerID, taskID, name)
}

// CoverKey derives the durable key for a song's cover image
func CoverKey(ownerID, songID string) string {
	if ownerID == "" {
		ownerID = "anonymous"
	}
	return fmt.Sprintf("covers/%s/%s.jpg", ownerID, songID)
}

// Persister copies transient provider assets into durable storage and
// writes the resulting song records. Storage failures degrade to the
// transient URL and never fail the pipeline.
type Persister struct {
	Storage    client.StorageClient // nil means transient URLs only
	Records    RecordStore
	HTTPClient *http.Client
}

// NewPersister creates a persister with a bounded download client
func NewPersister(storage client.StorageClient, records RecordStore) *Persister {
	return &Persister{
		Storage:    storage,
		Records:    records,
		HTTPClient: &http.Client{Timeout: downloadTimeout},
	}
}

// PersistSongs writes one song record per result track. Record creation
// only happens here, after the job reached a result-bearing status.
func (p *Persister) PersistSongs(ctx context.Context, job *model.Job, items []client.AudioItem) ([]model.SongRecord, error) {
	records := make([]model.SongRecord, 0, len(items))
	now := time.Now()

	for _, item := range items {
		trackID := item.ID
		if trackID == "" {
			trackID = uuid.New().String()
		}

		url, durable := p.PersistAsset(ctx, item.AudioURL, StorageKey(job.OwnerID, trackID), "audio/mpeg")

		title := item.Title
		if title == "" {
			title = job.Params.Title
		}

		record := model.SongRecord{
			ID:        trackID,
			OwnerID:   job.OwnerID,
			TaskID:    job.TaskID,
			Title:     title,
			AudioURL:  url,
			Durable:   durable,
			Duration:  item.Duration,
			Tags:      item.Tags,
			Params:    job.Params,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := p.Records.InsertSong(ctx, &record); err != nil {
			return records, fmt.Errorf("failed to insert song record: %w", err)
		}
		records = append(records, record)
	}

	return records, nil
}

// PersistStems stores separated stems as related assets. No song records
// are created; the caller decides whether to keep them.
func (p *Persister) PersistStems(ctx context.Context, job *model.Job, items []client.AudioItem) []model.StemAsset {
	assets := make([]model.StemAsset, 0, len(items))

	for i, item := range items {
		name := stemName(item, i)
		url, durable := p.PersistAsset(ctx, item.AudioURL, StemKey(job.OwnerID, job.TaskID, name), "audio/mpeg")
		assets = append(assets, model.StemAsset{
			Name:     name,
			URL:      url,
			Durable:  durable,
			Duration: item.Duration,
		})
	}

	return assets
}

// stemName labels the two expected separation outputs
func stemName(item client.AudioItem, idx int) string {
	lower := strings.ToLower(item.Title + " " + item.Tags)
	if strings.Contains(lower, "instrumental") {
		return "instrumental"
	}
	if strings.Contains(lower, "vocal") {
		return "vocal"
	}
	if idx == 0 {
		return "vocal"
	}
	return "instrumental"
}

// PersistAsset downloads a transient asset and re-uploads it under key.
// On any failure it logs a warning and hands back the transient URL, so
// the pipeline still reports success with a degraded, expiring asset.
func (p *Persister) PersistAsset(ctx context.Context, srcURL, key, contentType string) (string, bool) {
	if p.Storage == nil || srcURL == "" {
		return srcURL, false
	}

	data, err := p.download(ctx, srcURL)
	if err != nil {
		warn := apperr.Persistence("asset download failed, keeping transient URL", err)
		log.Printf("[Persister] warning: %v (key=%s)", warn, key)
		return srcURL, false
	}

	url, err := p.Storage.Upload(ctx, key, bytes.NewReader(data), contentType)
	if err != nil {
		warn := apperr.Persistence("durable upload failed, keeping transient URL", err)
		log.Printf("[Persister] warning: %v (key=%s)", warn, key)
		return srcURL, false
	}

	return url, true
}

func (p *Persister) download(ctx context.Context, srcURL string) ([]byte, error) {
	dlCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(dlCtx, http.MethodGet, srcURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching asset", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
