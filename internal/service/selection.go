package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sakif/ledger/internal/apperror"
	"github.com/sakif/ledger/internal/model"
)

// ParseSelection reads a whitespace-separated list of 1-based snapshot
// numbers, such as "1 3 5", out of count listed snapshots. It returns
// 0-based indices in input order. Tokens that are not numbers, out of range,
// repeated, or past the fifth accepted one are skipped with a warning each.
// Nothing usable in input is a validation error.
func ParseSelection(input string, count int) (model.Selection, error) {
	sel := model.Selection{Indices: make([]int, 0, model.MaxCompared)}
	seen := make(map[int]bool)

	for _, tok := range strings.Fields(input) {
		n, err := strconv.Atoi(tok)
		switch {
		case err != nil:
			sel.Warnings = append(sel.Warnings, fmt.Sprintf("%q was skipped: not a valid number", tok))
		case n < 1 || n > count:
			sel.Warnings = append(sel.Warnings, fmt.Sprintf("%d was skipped: choose between 1 and %d", n, count))
		case seen[n]:
			sel.Warnings = append(sel.Warnings, fmt.Sprintf("%d was a duplicate; it can only be entered once", n))
		case len(sel.Indices) == model.MaxCompared:
			sel.Warnings = append(sel.Warnings, fmt.Sprintf("%d was skipped: at most %d snapshots can be compared", n, model.MaxCompared))
		default:
			seen[n] = true
			sel.Indices = append(sel.Indices, n-1)
		}
	}

	if len(sel.Indices) == 0 {
		return sel, apperror.ValidationFailed("select", "no valid snapshot numbers were entered")
	}
	return sel, nil
}
