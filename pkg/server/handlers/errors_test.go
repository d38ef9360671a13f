package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soundprediction/lancong/pkg/types"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", types.ErrNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("place 7: %w", types.ErrNotFound), http.StatusNotFound},
		{"validation", types.NewValidationError("k", "must be at least 1"), http.StatusBadRequest},
		{"forbidden", &types.ForbiddenError{Keyword: "drop"}, http.StatusForbidden},
		{"configuration", types.NewConfigurationError("vector_search", errors.New("index missing")), http.StatusInternalServerError},
		{"store", fmt.Errorf("lexical search failed: %w", errors.New("connection reset")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}
