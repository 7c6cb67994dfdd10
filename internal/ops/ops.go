// Package ops implements the operations shared by the CLI, the MCP server
// and the web UI. Each operation takes an Input struct and returns an
// Output struct ready to be encoded as JSON.
package ops

import (
	"fmt"
	"strings"

	"github.com/hpungsan/crackr/internal/errors"
	"github.com/hpungsan/crackr/internal/review"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// resolveDate parses an optional YYYY-MM-DD date. Empty means today.
func resolveDate(s string, today review.Date) (review.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return today, nil
	}
	d, err := review.ParseDate(s)
	if err != nil {
		return review.Date{}, errors.NewInvalidRequest(fmt.Sprintf("invalid date %q: want YYYY-MM-DD", s))
	}
	return d, nil
}

// softFail splits the error of a mutation. A PERSISTENCE failure leaves the
// in-memory change applied, so it is reported as a warning next to a normal
// result; any other error is returned as is.
func softFail(err error) (warning string, hard error) {
	if err == nil {
		return "", nil
	}
	if errors.Is(err, errors.ErrPersistence) {
		return err.Error(), nil
	}
	return "", err
}
