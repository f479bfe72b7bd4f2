package model

import "time"

// SongRecord is the durable outcome of a finished job. AudioURL points at
// our own storage when persistence succeeded, otherwise at the provider's
// expiring URL (Durable is false in that case). CoverURL stays empty until
// cover enrichment completes.
type SongRecord struct {
	ID        string           `json:"id"`
	OwnerID   string           `json:"ownerId"`
	TaskID    string           `json:"taskId"`
	Title     string           `json:"title"`
	AudioURL  string           `json:"audioUrl"`
	Durable   bool             `json:"durable"`
	CoverURL  string           `json:"coverUrl,omitempty"`
	Duration  float64          `json:"duration"`
	Tags      string           `json:"tags,omitempty"`
	Params    GenerationParams `json:"params"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// StemAsset is one separated stem persisted alongside its source track.
// Stems are kept as related assets only; no song record is created for them.
type StemAsset struct {
	Name     string  `json:"name"` // "vocal" or "instrumental"
	URL      string  `json:"url"`
	Durable  bool    `json:"durable"`
	Duration float64 `json:"duration"`
}
