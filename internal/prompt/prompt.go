// Package prompt turns semantic song parameters into the single free-text
// descriptor the provider accepts. Building is pure: it never fails and
// always yields a usable string.
package prompt

import (
	"fmt"
	"strings"

	"github.com/songforge/api/internal/model"
)

// MaxLength is the provider's descriptor limit. Longer prompts are cut
// at the last word boundary and marked with an ellipsis.
const MaxLength = 500

const defaultStyle = "a modern melodic song with broad appeal"

// timbre describes each genre's sound palette
var timbre = map[model.Genre]string{
	model.GenrePop:        "bright synths, punchy drums and a polished radio sheen",
	model.GenreRock:       "driving electric guitars, live drums and raw energy",
	model.GenreHiphop:     "heavy 808 bass, crisp hi-hats and a head-nodding groove",
	model.GenreRnb:        "smooth electric piano, warm bass and silky harmonies",
	model.GenreElectronic: "pulsing synthesizers, sidechained pads and a club-ready beat",
	model.GenreJazz:       "upright bass, brushed drums and expressive horn voicings",
	model.GenreCountry:    "acoustic guitar, pedal steel and a storytelling feel",
	model.GenreFolk:       "fingerpicked acoustic guitar and intimate, organic textures",
	model.GenreClassical:  "a full orchestral arrangement with strings and woodwinds",
	model.GenreLatin:      "syncopated percussion, nylon guitar and vibrant brass",
	model.GenreReggae:     "off-beat guitar skanks, deep bass and a laid-back pulse",
	model.GenreBlues:      "gritty slide guitar, shuffling drums and soulful bends",
}

var eraModifier = map[model.Genre]string{
	model.GenrePop:        "with a contemporary chart sound",
	model.GenreRock:       "in a classic 70s arena style",
	model.GenreHiphop:     "with a modern trap influence",
	model.GenreRnb:        "in a 90s neo-soul spirit",
	model.GenreElectronic: "with a late-night festival feel",
	model.GenreJazz:       "in a 50s cool-jazz mood",
}

// vocabulary holds per-language substitutions applied to the free-form
// theme before it is appended to the descriptor.
var vocabulary = map[string]map[string]string{
	"de": {"love": "Liebe", "heart": "Herz", "night": "Nacht", "dream": "Traum"},
	"fr": {"love": "amour", "heart": "coeur", "night": "nuit", "dream": "rêve"},
	"es": {"love": "amor", "heart": "corazón", "night": "noche", "dream": "sueño"},
	"it": {"love": "amore", "heart": "cuore", "night": "notte", "dream": "sogno"},
	"tr": {"love": "aşk", "heart": "kalp", "night": "gece", "dream": "rüya"},
}

// Params is the subset of a generation request the builder consumes
type Params struct {
	Genre     model.Genre
	Mood      string
	Tempo     int // BPM, 0 = unspecified
	Energy    string
	VoiceType model.VoiceType
	Language  string
	Theme     string
}

// Build composes the descriptor string from the given parameters
func Build(p Params) string {
	var clauses []string

	clauses = append(clauses, styleClause(p))

	if era, ok := eraModifier[p.Genre]; ok {
		clauses = append(clauses, era)
	}
	if t, ok := timbre[p.Genre]; ok {
		clauses = append(clauses, "featuring "+t)
	}
	if c := tempoClause(p.Tempo, p.Energy); c != "" {
		clauses = append(clauses, c)
	}
	if c := voiceClause(p.VoiceType); c != "" {
		clauses = append(clauses, c)
	}
	if c := languageClause(p.VoiceType, p.Language); c != "" {
		clauses = append(clauses, c)
	}
	if p.Theme != "" {
		clauses = append(clauses, "about "+translateTheme(p.Theme, p.Language))
	}

	return truncate(strings.Join(clauses, ", "), MaxLength)
}

func styleClause(p Params) string {
	if p.Genre == "" {
		return defaultStyle
	}
	if p.Mood != "" {
		return fmt.Sprintf("a %s %s song", strings.ToLower(p.Mood), p.Genre)
	}
	return fmt.Sprintf("a %s song", p.Genre)
}

func tempoClause(tempo int, energy string) string {
	var parts []string
	if tempo > 0 {
		parts = append(parts, fmt.Sprintf("around %d BPM", tempo))
	}
	if energy != "" {
		parts = append(parts, strings.ToLower(energy)+" energy")
	}
	return strings.Join(parts, " with ")
}

func voiceClause(v model.VoiceType) string {
	switch v {
	case model.VoiceSolo:
		return "with an expressive solo vocal"
	case model.VoiceChoir:
		return "with rich layered choir vocals"
	case model.VoiceInstrumental:
		return "fully instrumental, no vocals"
	}
	return ""
}

func languageClause(v model.VoiceType, lang string) string {
	// instrumental tracks have no lyrics, so no language clause
	if v != model.VoiceSolo && v != model.VoiceChoir {
		return ""
	}
	if lang == "" {
		return ""
	}
	return "sung in " + languageName(lang)
}

func languageName(code string) string {
	switch strings.ToLower(code) {
	case "en":
		return "English"
	case "de":
		return "German"
	case "fr":
		return "French"
	case "es":
		return "Spanish"
	case "it":
		return "Italian"
	case "tr":
		return "Turkish"
	default:
		return code
	}
}

// translateTheme applies the per-language vocabulary to the theme text
func translateTheme(theme, lang string) string {
	subs, ok := vocabulary[strings.ToLower(lang)]
	if !ok {
		return theme
	}
	words := strings.Fields(theme)
	for i, w := range words {
		key := strings.ToLower(strings.Trim(w, ".,!?"))
		if repl, ok := subs[key]; ok {
			words[i] = strings.Replace(w, strings.Trim(w, ".,!?"), repl, 1)
		}
	}
	return strings.Join(words, " ")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max-3] // room for the ellipsis marker
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}
