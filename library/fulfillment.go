package library

import (
	"errors"
	"log/slog"
)

// orderedLookup is the one capability the coordinator needs from the
// inventory store: the binary-search lookup over the ordered view.
type orderedLookup interface {
	FindByISBN(isbn string) (*Group, error)
}

// reservationFulfiller assigns the earliest pending reservation for a title.
type reservationFulfiller interface {
	FulfillEarliest(isbn string) (*Reservation, error)
}

// loanIssuer creates the follow-up loan for an assigned reservation.
type loanIssuer interface {
	Issue(borrowerID, isbn string) (*Loan, error)
}

// FulfillmentCoordinator drives the return-triggered flow: ordered lookup,
// waiting-list check, assignment, new loan. It depends on narrow interfaces
// injected at construction rather than on the concrete stores.
type FulfillmentCoordinator struct {
	inventory    orderedLookup
	reservations reservationFulfiller
	loans        loanIssuer
	log          *slog.Logger
}

// NewFulfillmentCoordinator wires the coordinator against the three
// capabilities it orchestrates.
func NewFulfillmentCoordinator(inventory orderedLookup, reservations reservationFulfiller, loans loanIssuer, log *slog.Logger) *FulfillmentCoordinator {
	return &FulfillmentCoordinator{
		inventory:    inventory,
		reservations: reservations,
		loans:        loans,
		log:          log,
	}
}

// HandleReturn runs after a return has been committed. Every failure on
// this path is logged and swallowed: fulfillment is best-effort and must
// never unwind or block the return that triggered it.
func (fc *FulfillmentCoordinator) HandleReturn(isbn string) {
	if _, err := fc.inventory.FindByISBN(isbn); err != nil {
		if !errors.Is(err, ErrNotFound) {
			fc.log.Error("fulfillment lookup failed", "isbn", isbn, "err", err)
		}
		// Unknown title: the returned copy simply becomes available.
		return
	}

	r, err := fc.reservations.FulfillEarliest(isbn)
	if err != nil {
		fc.log.Error("fulfillment assignment failed", "isbn", isbn, "err", err)
		return
	}
	if r == nil {
		return
	}

	l, err := fc.loans.Issue(r.BorrowerID, isbn)
	if err != nil {
		// The reservation stays assigned even when the follow-up loan
		// cannot be created.
		fc.log.Error("failed to issue loan for assigned reservation",
			"reservation", r.ID, "borrower", r.BorrowerID, "isbn", isbn, "err", err)
		return
	}
	fc.log.Info("reservation fulfilled",
		"reservation", r.ID, "loan", l.ID, "borrower", r.BorrowerID, "isbn", isbn)
}
