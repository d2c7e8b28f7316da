package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestIsUniqueViolation(t *testing.T) {
	unique := &pq.Error{Code: "23505", Constraint: "users_email_key"}
	if !isUniqueViolation(unique) {
		t.Fatal("expected unique_violation to be detected")
	}
	if !isUniqueViolation(fmt.Errorf("insert user: %w", unique)) {
		t.Fatal("expected wrapped unique_violation to be detected")
	}

	if isUniqueViolation(&pq.Error{Code: "23503"}) {
		t.Fatal("foreign key violation is not a unique violation")
	}
	if isUniqueViolation(errors.New("connection refused")) {
		t.Fatal("plain error is not a unique violation")
	}
	if isUniqueViolation(nil) {
		t.Fatal("nil error is not a unique violation")
	}
}
