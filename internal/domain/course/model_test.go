package course

import (
	"errors"
	"testing"

	"utnode/internal/domain/validation"
)

func TestCourse_Validate(t *testing.T) {
	tests := []struct {
		name   string
		course Course
		want   []string
	}{
		{name: "valid", course: Course{Title: "Intro", Description: "**Go**", MaxStudents: 10, Cost: 12.5}},
		{name: "missing text", course: Course{}, want: []string{"Title is required", "Description is required"}},
		{name: "negative numbers", course: Course{Title: "Intro", Description: "x", MaxStudents: -1, Cost: -2},
			want: []string{"Courses cannot have a negative number of students", "Courses cannot have a negative cost"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.course.Validate()
			if len(tt.want) == 0 {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}
			var v validation.Violations
			if !errors.As(err, &v) {
				t.Fatalf("expected violations, got %v", err)
			}
			got := v.Messages()
			if len(got) != len(tt.want) {
				t.Fatalf("messages = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("message[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
