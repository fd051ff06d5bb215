package http

import (
	"context"
	"strings"

	"spendtrack/internal/services"
)

// sanitizeInput removes control characters except tab and newlines and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// requestConfirmer answers budget prompts from the request itself: a client
// that sent confirm=true accepted in advance, anyone else is asked to resubmit.
type requestConfirmer struct {
	accepted bool
}

func (c requestConfirmer) Confirm(context.Context, string, string) (bool, error) {
	return c.accepted, nil
}

var _ services.Confirmer = requestConfirmer{}
