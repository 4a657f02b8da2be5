package loan

import (
	"context"
	"errors"
	"testing"
)

func TestRepository_MalformedIDIsNotFound(t *testing.T) {
	// a nil pool proves the query is never issued
	repo := &Repository{}
	for _, id := range []string{"", "42", "abc", "'; DROP TABLE loans;--"} {
		if _, err := repo.GetForMember(context.Background(), "m1", id); !errors.Is(err, ErrNotFound) {
			t.Fatalf("id %q: expected ErrNotFound, got %v", id, err)
		}
	}
}
