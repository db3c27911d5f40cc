package core

import "strings"

// utilityMarkers are note fragments that flag a shared bill rather than a
// market purchase. Matching is case-insensitive.
var utilityMarkers = []string{
	"utility",
	"bill",
	"electric",
	"current",
	"gas",
	"water",
	"wifi",
	"internet",
	"dish",
}

// ClassifyNote derives the expense category from free-text note content.
// The classification is pure and computed once at entry creation; callers that
// know the category pass it explicitly instead.
func ClassifyNote(note string) Category {
	n := strings.ToLower(note)
	for _, marker := range utilityMarkers {
		if strings.Contains(n, marker) {
			return Utility
		}
	}
	return Market
}
