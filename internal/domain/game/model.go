package game

import (
	"strings"

	"utnode/internal/domain/validation"
)

// Collection is the document collection holding games.
const Collection = "game"

// Game is a game listing. GamePrice defaults to 0.
type Game struct {
	Title       string  `json:"title" form:"title" validate:"notblank,max=200"`
	Description string  `json:"description" form:"description" validate:"notblank"`
	GamePrice   float64 `json:"gameprice" form:"gameprice" validate:"finite,min=0"`
}

// Messages are the user-facing texts for Game rule failures.
var Messages = validation.Messages{
	"title.notblank":       "Title is required",
	"description.notblank": "Description is required",
	"gameprice.min":        "game cannot have a negative number of price",
	"gameprice.finite":     "Price must be a number",
}

// Normalize trims the title.
func (g *Game) Normalize() {
	g.Title = strings.TrimSpace(g.Title)
}

// Validate checks if the Game has valid data.
// PRE: Game struct is populated
// POST: Returns nil if valid, validation.Violations otherwise
func (g Game) Validate() error {
	return validation.Struct(g, Messages)
}
