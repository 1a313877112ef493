package train

import (
	"errors"
	"testing"

	"utnode/internal/domain/validation"
)

func TestTrain_Validate(t *testing.T) {
	ok := Train{Name: "KTX 101", Origin: "Seoul", Destination: "Busan", Price: 59800}
	if err := ok.Validate(); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	var v validation.Violations
	if !errors.As(Train{Name: "KTX", Price: -1}.Validate(), &v) {
		t.Fatal("expected violations")
	}
	want := []string{"Origin is required", "Destination is required", "Trains cannot have a negative price"}
	if got := v.Messages(); len(got) != len(want) {
		t.Fatalf("messages = %v, want %v", got, want)
	}
}
