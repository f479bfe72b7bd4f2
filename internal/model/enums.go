package model

// Job kinds
type JobKind string

const (
	JobKindGenerate JobKind = "generate"
	JobKindExtend   JobKind = "extend"
	JobKindStems    JobKind = "stems"
	JobKindConcat   JobKind = "concat"
)

// Job status — owned by the polling loop; done/failed/timed_out are sinks
type JobStatus string

const (
	JobStatusSubmitted JobStatus = "submitted"
	JobStatusPolling   JobStatus = "polling"
	JobStatusPartial   JobStatus = "partial"
	JobStatusReady     JobStatus = "ready"
	JobStatusDone      JobStatus = "done"
	JobStatusFailed    JobStatus = "failed"
	JobStatusTimedOut  JobStatus = "timed_out"
)

// IsTerminal reports whether no further transition is possible
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusDone, JobStatusFailed, JobStatusTimedOut:
		return true
	}
	return false
}

// Model tiers offered by the provider
type ModelTier string

const (
	ModelV3_5 ModelTier = "V3_5"
	ModelV4   ModelTier = "V4"
	ModelV4_5 ModelTier = "V4_5"
	ModelV5   ModelTier = "V5"
)

var ValidModelTiers = []ModelTier{ModelV3_5, ModelV4, ModelV4_5, ModelV5}

// FallbackTier returns the deterministic fallback for a rejected tier.
// The lowest tier has no fallback.
func FallbackTier(m ModelTier) (ModelTier, bool) {
	switch m {
	case ModelV5:
		return ModelV4_5, true
	case ModelV4_5:
		return ModelV4, true
	case ModelV4:
		return ModelV3_5, true
	}
	return "", false
}

// IsValidTier reports whether m is a tier this service knows how to request
func IsValidTier(m ModelTier) bool {
	for _, t := range ValidModelTiers {
		if t == m {
			return true
		}
	}
	return false
}

// Voice configuration
type VoiceType string

const (
	VoiceInstrumental VoiceType = "instrumental"
	VoiceSolo         VoiceType = "solo"
	VoiceChoir        VoiceType = "choir"
)

// Genres with timbral descriptions known to the prompt builder
type Genre string

const (
	GenrePop        Genre = "pop"
	GenreRock       Genre = "rock"
	GenreHiphop     Genre = "hiphop"
	GenreRnb        Genre = "rnb"
	GenreElectronic Genre = "electronic"
	GenreJazz       Genre = "jazz"
	GenreCountry    Genre = "country"
	GenreFolk       Genre = "folk"
	GenreClassical  Genre = "classical"
	GenreLatin      Genre = "latin"
	GenreReggae     Genre = "reggae"
	GenreBlues      Genre = "blues"
)
