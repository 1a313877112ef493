package course

import (
	"strings"

	"utnode/internal/domain/validation"
)

// Collection is the document collection holding courses.
const Collection = "courses"

// Course is an offered course. Description is markdown.
type Course struct {
	Title       string  `json:"title" form:"title" validate:"notblank,max=200"`
	Description string  `json:"description" form:"description" validate:"notblank"`
	MaxStudents int     `json:"maxStudents" form:"maxStudents" validate:"min=0"`
	Cost        float64 `json:"cost" form:"cost" validate:"finite,min=0"`
}

// Messages are the user-facing texts for Course rule failures.
var Messages = validation.Messages{
	"title.notblank":       "Title is required",
	"description.notblank": "Description is required",
	"maxStudents.min":      "Courses cannot have a negative number of students",
	"cost.min":             "Courses cannot have a negative cost",
	"cost.finite":          "Cost must be a number",
}

// Normalize trims the title.
func (c *Course) Normalize() {
	c.Title = strings.TrimSpace(c.Title)
}

// Validate checks if the Course has valid data.
// PRE: Course struct is populated
// POST: Returns nil if valid, validation.Violations otherwise
func (c Course) Validate() error {
	return validation.Struct(c, Messages)
}
