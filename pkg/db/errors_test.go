package db

import (
	"errors"
	"testing"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{"nil", nil, "", false},
		{"postgres", errors.New(`ERROR: duplicate key value violates unique constraint "documents_pkey"`), "", true},
		{"sqlite", errors.New("UNIQUE constraint failed: documents.collection, documents.id"), "", true},
		{"named constraint", errors.New(`duplicate key value violates unique constraint "documents_pkey"`), "documents_pkey", true},
		{"other", errors.New("connection refused"), "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUniqueViolation(tc.err, tc.constraint); got != tc.want {
				t.Fatalf("IsUniqueViolation() = %v, want %v", got, tc.want)
			}
		})
	}
}
