package train

import (
	"strings"

	"utnode/internal/domain/validation"
)

// Collection is the document collection holding trains.
const Collection = "trains"

// Train is a train service between two stations.
type Train struct {
	Name        string  `json:"name" form:"name" validate:"notblank,max=100"`
	Origin      string  `json:"origin" form:"origin" validate:"notblank,max=100"`
	Destination string  `json:"destination" form:"destination" validate:"notblank,max=100"`
	Price       float64 `json:"price" form:"price" validate:"finite,min=0"`
}

// Messages are the user-facing texts for Train rule failures.
var Messages = validation.Messages{
	"name.notblank":        "Name is required",
	"origin.notblank":      "Origin is required",
	"destination.notblank": "Destination is required",
	"price.min":            "Trains cannot have a negative price",
	"price.finite":         "Price must be a number",
}

// Normalize trims the station and service names.
func (t *Train) Normalize() {
	t.Name = strings.TrimSpace(t.Name)
	t.Origin = strings.TrimSpace(t.Origin)
	t.Destination = strings.TrimSpace(t.Destination)
}

// Validate checks if the Train has valid data.
// PRE: Train struct is populated
// POST: Returns nil if valid, validation.Violations otherwise
func (t Train) Validate() error {
	return validation.Struct(t, Messages)
}
