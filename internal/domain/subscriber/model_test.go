package subscriber

import (
	"errors"
	"testing"

	"utnode/internal/domain/validation"
)

func TestSubscriber_Validate(t *testing.T) {
	valid := Subscriber{Name: "Ann", Email: "ann@example.com", ZipCode: 12345}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	noZip := Subscriber{Name: "Ann", Email: "ann@example.com"}
	if err := noZip.Validate(); err != nil {
		t.Fatalf("zip code should be optional, got %v", err)
	}

	bad := Subscriber{Email: "nope", ZipCode: 99}
	var v validation.Violations
	if !errors.As(bad.Validate(), &v) {
		t.Fatal("expected violations")
	}
	want := []string{"Name is required", "Enter a valid email", "Zip code must be 5 digits"}
	got := v.Messages()
	if len(got) != len(want) {
		t.Fatalf("messages = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSubscriber_Normalize(t *testing.T) {
	s := Subscriber{Name: " Ann ", Email: " ANN@Example.com"}
	s.Normalize()
	if s.Name != "Ann" || s.Email != "ann@example.com" {
		t.Errorf("Normalize = %+v", s)
	}
}
