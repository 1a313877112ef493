package game

import (
	"errors"
	"math"
	"testing"

	"utnode/internal/domain/validation"
)

func TestGame_Validate(t *testing.T) {
	tests := []struct {
		name    string
		game    Game
		wantMsg string
	}{
		{name: "valid", game: Game{Title: "Go", Description: "Board game"}},
		{name: "free game", game: Game{Title: "Go", Description: "Board game", GamePrice: 0}},
		{name: "missing title", game: Game{Description: "Board game"}, wantMsg: "Title is required"},
		{name: "blank description", game: Game{Title: "Go", Description: "   "}, wantMsg: "Description is required"},
		{name: "negative price", game: Game{Title: "Go", Description: "x", GamePrice: -1}, wantMsg: "game cannot have a negative number of price"},
		{name: "infinite price", game: Game{Title: "Go", Description: "x", GamePrice: math.Inf(1)}, wantMsg: "Price must be a number"},
		{name: "NaN price", game: Game{Title: "Go", Description: "x", GamePrice: math.NaN()}, wantMsg: "Price must be a number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.game.Validate()
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}
			var v validation.Violations
			if !errors.As(err, &v) {
				t.Fatalf("expected violations, got %v", err)
			}
			if v[0].Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", v[0].Message, tt.wantMsg)
			}
		})
	}
}

func TestGame_Normalize(t *testing.T) {
	g := Game{Title: "  Chess  "}
	g.Normalize()
	if g.Title != "Chess" {
		t.Errorf("Title = %q", g.Title)
	}
}
