package library

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// copyCirculator is the slice of the inventory store the loan ledger needs:
// taking one available copy out and putting one back.
type copyCirculator interface {
	LoanOutCopy(isbn string) (*Copy, error)
	ReturnCopy(copyID string) error
}

// returnHandler is notified after a return has been committed so the
// earliest waiting reservation, if any, can be fulfilled.
type returnHandler interface {
	HandleReturn(isbn string)
}

// LoanLedger owns active and returned loans plus each borrower's loan
// history. The history file keeps entries in arrival order per borrower;
// HistoryOf serves the most-recent-first view.
type LoanLedger struct {
	loans     []*Loan
	history   map[string][]*HistoryEntry
	inventory copyCirculator
	onReturn  returnHandler
	store     *storage
	log       *slog.Logger
	now       func() time.Time
}

// NewLoanLedger loads the loan ledger, skipping malformed records, and
// rebuilds the per-borrower histories from the loans themselves so the two
// files can never drift apart.
func NewLoanLedger(store *storage, inventory copyCirculator, log *slog.Logger) (*LoanLedger, error) {
	ll := &LoanLedger{
		history:   make(map[string][]*HistoryEntry),
		inventory: inventory,
		store:     store,
		log:       log,
		now:       time.Now,
	}

	err := store.loadRecords(loansFile, func(raw jsoniter.RawMessage) error {
		var l Loan
		if err := json.Unmarshal(raw, &l); err != nil {
			return err
		}
		if l.ID == "" || l.BorrowerID == "" || l.ISBN == "" {
			return fmt.Errorf("loan missing required fields")
		}
		ll.loans = append(ll.loans, &l)
		return nil
	})
	if err != nil {
		return nil, err
	}

	ll.rebuildHistory()
	return ll, nil
}

// AttachReturnHandler wires the fulfillment coordinator in after
// construction; the ledger and the coordinator reference each other, so one
// side has to be attached late.
func (ll *LoanLedger) AttachReturnHandler(h returnHandler) { ll.onReturn = h }

// rebuildHistory rederives every borrower's history from the loan list in
// issue order. The history file is a persisted view, not a second source of
// truth.
func (ll *LoanLedger) rebuildHistory() {
	ll.history = make(map[string][]*HistoryEntry)
	for _, l := range ll.loans {
		ll.history[l.BorrowerID] = append(ll.history[l.BorrowerID], &HistoryEntry{
			BorrowerID: l.BorrowerID,
			ISBN:       l.ISBN,
			IssueDate:  l.IssueDate,
			LoanID:     l.ID,
		})
	}
}

func (ll *LoanLedger) persist() error {
	if err := ll.store.save(loansFile, ll.loans); err != nil {
		return err
	}
	return ll.store.save(historyFile, ll.history)
}

// Issue lends one available copy of the ISBN to the borrower. It fails with
// ErrOutOfStock when no copy is available and refuses a second unreturned
// loan for the same borrower and title.
func (ll *LoanLedger) Issue(borrowerID, isbn string) (*Loan, error) {
	if ll.HasActiveLoan(borrowerID, isbn) {
		return nil, fmt.Errorf("borrower %q already holds an unreturned loan for isbn %q: %w", borrowerID, isbn, ErrAlreadyBorrowed)
	}

	c, err := ll.inventory.LoanOutCopy(isbn)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("cannot issue loan: %w", err)
		}
		return nil, fmt.Errorf("cannot issue loan for isbn %q: %w", isbn, err)
	}

	l := &Loan{
		ID:         nextPrefixedID("L", ll.ids()),
		BorrowerID: borrowerID,
		ISBN:       isbn,
		CopyID:     c.ID,
		IssueDate:  ll.now(),
	}
	ll.loans = append(ll.loans, l)
	ll.history[borrowerID] = append(ll.history[borrowerID], &HistoryEntry{
		BorrowerID: borrowerID,
		ISBN:       isbn,
		IssueDate:  l.IssueDate,
		LoanID:     l.ID,
	})

	if err := ll.persist(); err != nil {
		return nil, err
	}
	ll.log.Debug("loan issued", "loan", l.ID, "borrower", borrowerID, "isbn", isbn, "copy", c.ID)
	return l, nil
}

// MarkReturned commits the return: flags the loan returned, frees its copy,
// and only then hands the ISBN to the return handler. Whatever happens on
// the fulfillment path, the return itself stays committed.
func (ll *LoanLedger) MarkReturned(loanID string) (*Loan, error) {
	l := ll.byID(loanID)
	if l == nil {
		return nil, fmt.Errorf("loan %q: %w", loanID, ErrNotFound)
	}
	if l.Returned {
		return nil, fmt.Errorf("loan %q: %w", loanID, ErrAlreadyReturned)
	}

	l.Returned = true
	ret := ll.now()
	l.ReturnDate = &ret

	if err := ll.inventory.ReturnCopy(l.CopyID); err != nil {
		// The loan record is authoritative for the return; a copy that
		// cannot be flipped back is logged and left to the next load.
		ll.log.Error("failed to free returned copy", "loan", l.ID, "copy", l.CopyID, "err", err)
	}
	if err := ll.persist(); err != nil {
		return nil, err
	}
	ll.log.Debug("loan returned", "loan", l.ID, "isbn", l.ISBN)

	if ll.onReturn != nil {
		ll.onReturn.HandleReturn(l.ISBN)
	}

	out := *l
	return &out, nil
}

// HasActiveLoan reports whether the borrower holds an unreturned loan for
// the ISBN.
func (ll *LoanLedger) HasActiveLoan(borrowerID, isbn string) bool {
	for _, l := range ll.loans {
		if l.BorrowerID == borrowerID && l.ISBN == isbn && !l.Returned {
			return true
		}
	}
	return false
}

// ActiveLoanIDsFor returns the ids of unreturned loans touching the ISBN,
// for referential-integrity messages.
func (ll *LoanLedger) ActiveLoanIDsFor(isbn string) []string {
	var ids []string
	for _, l := range ll.loans {
		if l.ISBN == isbn && !l.Returned {
			ids = append(ids, l.ID)
		}
	}
	return ids
}

// ActiveLoanForCopy returns the unreturned loan holding the copy, if any.
func (ll *LoanLedger) ActiveLoanForCopy(copyID string) *Loan {
	for _, l := range ll.loans {
		if l.CopyID == copyID && !l.Returned {
			dup := *l
			return &dup
		}
	}
	return nil
}

// HistoryOf returns the borrower's loan history, most recent first.
func (ll *LoanLedger) HistoryOf(borrowerID string) []*HistoryEntry {
	entries := ll.history[borrowerID]
	out := make([]*HistoryEntry, len(entries))
	for i, e := range entries {
		dup := *e
		out[len(entries)-1-i] = &dup
	}
	return out
}

// RecentOf returns at most n of the borrower's most recent loans. A
// non-positive n yields nothing.
func (ll *LoanLedger) RecentOf(borrowerID string, n int) []*HistoryEntry {
	if n <= 0 {
		return nil
	}
	h := ll.HistoryOf(borrowerID)
	if n < len(h) {
		h = h[:n]
	}
	return h
}

// FindByID returns a snapshot of the loan with the given id, or nil.
func (ll *LoanLedger) FindByID(loanID string) *Loan {
	if l := ll.byID(loanID); l != nil {
		dup := *l
		return &dup
	}
	return nil
}

func (ll *LoanLedger) byID(loanID string) *Loan {
	for _, l := range ll.loans {
		if l.ID == loanID {
			return l
		}
	}
	return nil
}

// All returns every loan in issue order.
func (ll *LoanLedger) All() []*Loan {
	out := make([]*Loan, len(ll.loans))
	for i, l := range ll.loans {
		dup := *l
		out[i] = &dup
	}
	return out
}

func (ll *LoanLedger) ids() []string {
	ids := make([]string, len(ll.loans))
	for i, l := range ll.loans {
		ids[i] = l.ID
	}
	return ids
}
