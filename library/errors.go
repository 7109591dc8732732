package library

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the rejection cases every operation can surface.
// Callers branch with errors.Is; the wrapped message names the rule that
// was violated so the CLI can show it verbatim.
var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateIdentifier = errors.New("duplicate identifier")
	ErrStockAvailable      = errors.New("stock available")
	ErrAlreadyBorrowed     = errors.New("already borrowed")
	ErrOutOfStock          = errors.New("out of stock")
	ErrAlreadyReturned     = errors.New("already returned")
	ErrUnknownTitle        = errors.New("unknown title")
)

// IntegrityError rejects a deletion that would orphan live references.
// It carries the ids of the blocking records so the caller can display
// an actionable message.
type IntegrityError struct {
	CopyID         string
	ISBN           string
	LoanIDs        []string
	ReservationIDs []string
}

func (e *IntegrityError) Error() string {
	var parts []string
	if n := len(e.LoanIDs); n > 0 {
		parts = append(parts, fmt.Sprintf("%d active loan(s): %s", n, strings.Join(e.LoanIDs, ", ")))
	}
	if n := len(e.ReservationIDs); n > 0 {
		parts = append(parts, fmt.Sprintf("%d pending reservation(s): %s", n, strings.Join(e.ReservationIDs, ", ")))
	}
	return fmt.Sprintf("cannot delete copy %q (isbn %s): referenced by %s", e.CopyID, e.ISBN, strings.Join(parts, " and "))
}
