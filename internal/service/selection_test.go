package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/ledger/internal/apperror"
)

func TestParseSelection(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		count        int
		wantIndices  []int
		wantWarnings int
		wantErr      bool
	}{
		{name: "simple", input: "1 3 5", count: 5, wantIndices: []int{0, 2, 4}},
		{name: "extra whitespace", input: "  2\t 1  ", count: 3, wantIndices: []int{1, 0}},
		{name: "duplicate", input: "2 2", count: 3, wantIndices: []int{1}, wantWarnings: 1},
		{name: "out of range", input: "0 1 4", count: 3, wantIndices: []int{0}, wantWarnings: 2},
		{name: "not a number", input: "one 2", count: 3, wantIndices: []int{1}, wantWarnings: 1},
		{name: "negative", input: "-1 1", count: 3, wantIndices: []int{0}, wantWarnings: 1},
		{name: "capped at five", input: "1 2 3 4 5 6 7", count: 7, wantIndices: []int{0, 1, 2, 3, 4}, wantWarnings: 2},
		{name: "empty", input: "   ", count: 3, wantErr: true},
		{name: "nothing valid", input: "9 x", count: 3, wantWarnings: 2, wantErr: true},
		{name: "no snapshots", input: "1", count: 0, wantWarnings: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := ParseSelection(tt.input, tt.count)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperror.ErrValidation)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantIndices, sel.Indices)
			}
			assert.Len(t, sel.Warnings, tt.wantWarnings)
		})
	}
}
