package library

import (
	"fmt"
	"log/slog"

	jsoniter "github.com/json-iterator/go"
)

// stockReader is the slice of the inventory store the waiting list needs
// for admission gating.
type stockReader interface {
	HasISBN(isbn string) bool
	Available(isbn string) int
}

// activeLoanChecker answers whether a borrower currently holds a title.
type activeLoanChecker interface {
	HasActiveLoan(borrowerID, isbn string) bool
}

// WaitingList owns reservation requests in arrival order. Pending entries
// per ISBN form a FIFO queue; assigned and cancelled entries stay in the
// ledger for audit.
type WaitingList struct {
	entries []*Reservation
	clock   int64
	stock   stockReader
	loans   activeLoanChecker
	store   *storage
	log     *slog.Logger
}

// NewWaitingList loads the reservation ledger, skipping malformed records,
// and resumes the logical clock past the highest timestamp seen.
func NewWaitingList(store *storage, stock stockReader, loans activeLoanChecker, log *slog.Logger) (*WaitingList, error) {
	wl := &WaitingList{stock: stock, loans: loans, store: store, log: log}

	err := store.loadRecords(reservationsFile, func(raw jsoniter.RawMessage) error {
		var r Reservation
		if err := json.Unmarshal(raw, &r); err != nil {
			return err
		}
		if r.ID == "" || r.BorrowerID == "" || r.ISBN == "" {
			return fmt.Errorf("reservation missing required fields")
		}
		switch r.Status {
		case StatusPending, StatusAssigned, StatusCancelled:
		default:
			return fmt.Errorf("unknown reservation status %q", r.Status)
		}
		if r.Arrival > wl.clock {
			wl.clock = r.Arrival
		}
		if r.Assigned > wl.clock {
			wl.clock = r.Assigned
		}
		wl.entries = append(wl.entries, &r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wl, nil
}

func (wl *WaitingList) persist() error {
	return wl.store.save(reservationsFile, wl.entries)
}

// tick advances the logical clock. Monotonic within a process lifetime and
// across restarts because the clock resumes from the persisted maximum.
func (wl *WaitingList) tick() int64 {
	wl.clock++
	return wl.clock
}

// Admit queues a reservation for an exhausted title. It is rejected when
// stock is still available (queueing exists only for zero stock), when the
// borrower already holds an unreturned loan for the ISBN, or when the title
// is not in inventory at all.
func (wl *WaitingList) Admit(isbn, borrowerID string) (*Reservation, error) {
	if !wl.stock.HasISBN(isbn) {
		return nil, fmt.Errorf("isbn %q is not in inventory: %w", isbn, ErrUnknownTitle)
	}
	// The already-borrowed rule applies regardless of stock level.
	if wl.loans.HasActiveLoan(borrowerID, isbn) {
		return nil, fmt.Errorf("borrower %q already holds an unreturned loan for isbn %q: %w", borrowerID, isbn, ErrAlreadyBorrowed)
	}
	if n := wl.stock.Available(isbn); n > 0 {
		return nil, fmt.Errorf("isbn %q still has %d available copies, reservations require zero stock: %w", isbn, n, ErrStockAvailable)
	}

	r := &Reservation{
		ID:         nextPrefixedID("R", wl.ids()),
		BorrowerID: borrowerID,
		ISBN:       isbn,
		Arrival:    wl.tick(),
		Status:     StatusPending,
	}
	wl.entries = append(wl.entries, r)

	if err := wl.persist(); err != nil {
		return nil, err
	}
	wl.log.Debug("reservation admitted", "reservation", r.ID, "isbn", isbn, "borrower", borrowerID)
	return r, nil
}

// FulfillEarliest assigns the first pending reservation for the ISBN and
// returns it, or nil when nothing is queued. Arrival order is the priority
// order, so the first pending entry is always the earliest.
func (wl *WaitingList) FulfillEarliest(isbn string) (*Reservation, error) {
	for _, r := range wl.entries {
		if r.ISBN == isbn && r.Status == StatusPending {
			r.Status = StatusAssigned
			r.Assigned = wl.tick()
			if err := wl.persist(); err != nil {
				return nil, err
			}
			wl.log.Debug("reservation assigned", "reservation", r.ID, "borrower", r.BorrowerID)
			return r, nil
		}
	}
	return nil, nil
}

// Cancel marks a pending reservation cancelled. Terminal entries cannot be
// cancelled again.
func (wl *WaitingList) Cancel(reservationID string) error {
	r := wl.byID(reservationID)
	if r == nil || r.Terminal() {
		return fmt.Errorf("no pending reservation %q: %w", reservationID, ErrNotFound)
	}
	r.Status = StatusCancelled
	return wl.persist()
}

// PositionOf reports the borrower's 1-based rank among pending entries for
// the ISBN, or 0 when the borrower is not queued.
func (wl *WaitingList) PositionOf(borrowerID, isbn string) int {
	pos := 0
	for _, r := range wl.entries {
		if r.ISBN != isbn || r.Status != StatusPending {
			continue
		}
		pos++
		if r.BorrowerID == borrowerID {
			return pos
		}
	}
	return 0
}

// PendingFor returns the pending queue for an ISBN in arrival order.
func (wl *WaitingList) PendingFor(isbn string) []*Reservation {
	var out []*Reservation
	for _, r := range wl.entries {
		if r.ISBN == isbn && r.Status == StatusPending {
			dup := *r
			out = append(out, &dup)
		}
	}
	return out
}

// All returns every reservation in arrival order.
func (wl *WaitingList) All() []*Reservation {
	out := make([]*Reservation, len(wl.entries))
	for i, r := range wl.entries {
		dup := *r
		out[i] = &dup
	}
	return out
}

func (wl *WaitingList) byID(id string) *Reservation {
	for _, r := range wl.entries {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (wl *WaitingList) ids() []string {
	ids := make([]string, len(wl.entries))
	for i, r := range wl.entries {
		ids[i] = r.ID
	}
	return ids
}
