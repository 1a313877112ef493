package talk

import (
	"strings"

	"utnode/internal/domain/validation"
)

// Collection is the document collection holding talks.
const Collection = "talks"

// Talk is a scheduled talk. Description is markdown.
type Talk struct {
	Title       string `json:"title" form:"title" validate:"notblank,max=200"`
	Speaker     string `json:"speaker" form:"speaker" validate:"notblank,max=100"`
	Description string `json:"description" form:"description"`
	Duration    int    `json:"duration" form:"duration" validate:"min=0"`
}

// Messages are the user-facing texts for Talk rule failures.
var Messages = validation.Messages{
	"title.notblank":   "Title is required",
	"speaker.notblank": "Speaker is required",
	"duration.min":     "Talks cannot have a negative duration",
}

// Normalize trims title and speaker.
func (t *Talk) Normalize() {
	t.Title = strings.TrimSpace(t.Title)
	t.Speaker = strings.TrimSpace(t.Speaker)
}

// Validate checks if the Talk has valid data.
// PRE: Talk struct is populated
// POST: Returns nil if valid, validation.Violations otherwise
func (t Talk) Validate() error {
	return validation.Struct(t, Messages)
}
