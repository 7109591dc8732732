package library

import (
	"fmt"
	"log/slog"
	"strings"
)

// Config carries the handful of settings the manager needs.
type Config struct {
	// DataDir is the directory holding the JSON data files.
	DataDir string
	// Logger receives structured logs; nil falls back to slog.Default().
	Logger *slog.Logger
}

// Manager is the facade the CLI talks to. It owns the stores, wires the
// fulfillment coordinator into the loan ledger, and fronts the
// referential-integrity checks that span more than one store.
//
// Constructed once per process; all operations are synchronous and leave
// the dual-view invariant re-established before they return.
type Manager struct {
	Inventory    *InventoryStore
	Reservations *WaitingList
	Loans        *LoanLedger
	Members      *MemberRegistry
	Shelves      *ShelfStore

	log *slog.Logger
}

// NewManager loads every store from the data directory and connects the
// return path: loan ledger -> fulfillment coordinator -> waiting list and
// back into the loan ledger.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	store, err := newStorage(cfg.DataDir, log)
	if err != nil {
		return nil, err
	}

	inventory, err := NewInventoryStore(store, log)
	if err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}
	loans, err := NewLoanLedger(store, inventory, log)
	if err != nil {
		return nil, fmt.Errorf("load loans: %w", err)
	}
	reservations, err := NewWaitingList(store, inventory, loans, log)
	if err != nil {
		return nil, fmt.Errorf("load reservations: %w", err)
	}
	members, err := NewMemberRegistry(store, log)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	shelves, err := NewShelfStore(store, log)
	if err != nil {
		return nil, fmt.Errorf("load shelves: %w", err)
	}

	loans.AttachReturnHandler(NewFulfillmentCoordinator(inventory, reservations, loans, log))

	return &Manager{
		Inventory:    inventory,
		Reservations: reservations,
		Loans:        loans,
		Members:      members,
		Shelves:      shelves,
		log:          log,
	}, nil
}

// ------------------ Catalog ------------------

// AddCopy registers a new physical copy. An empty id gets the next
// B-prefixed one.
func (m *Manager) AddCopy(id, isbn, title, author string, weight float64, value int) (*Copy, error) {
	if strings.TrimSpace(id) == "" {
		var ids []string
		for _, g := range m.Inventory.Groups() {
			for _, c := range g.Copies {
				ids = append(ids, c.ID)
			}
		}
		id = nextPrefixedID("B", ids)
	}
	c, err := NewCopy(id, isbn, title, author, weight, value)
	if err != nil {
		return nil, err
	}
	if err := m.Inventory.AddCopy(c); err != nil {
		return nil, err
	}
	dup := *c
	return &dup, nil
}

// UpdateCopy forwards to the inventory store.
func (m *Manager) UpdateCopy(copyID string, upd CopyUpdate) error {
	return m.Inventory.UpdateCopy(copyID, upd)
}

// RemoveCopy deletes a copy after the referential-integrity pre-checks: the
// copy must not be on loan, and taking the last copy of a title out from
// under its pending reservations is refused. The copy also leaves every
// shelf it was placed on.
func (m *Manager) RemoveCopy(copyID string) error {
	g, c, _ := m.Inventory.findCopy(copyID)
	if c == nil {
		return fmt.Errorf("copy %q: %w", copyID, ErrNotFound)
	}

	var blockingLoans []string
	if l := m.Loans.ActiveLoanForCopy(copyID); l != nil {
		blockingLoans = append(blockingLoans, l.ID)
	}
	var blockingReservations []string
	if len(g.Copies) == 1 {
		for _, r := range m.Reservations.PendingFor(c.ISBN) {
			blockingReservations = append(blockingReservations, r.ID)
		}
	}
	if len(blockingLoans) > 0 || len(blockingReservations) > 0 {
		return &IntegrityError{
			CopyID:         copyID,
			ISBN:           c.ISBN,
			LoanIDs:        blockingLoans,
			ReservationIDs: blockingReservations,
		}
	}

	if _, err := m.Inventory.RemoveCopy(copyID); err != nil {
		return err
	}
	return m.Shelves.Evict(copyID)
}

// ------------------ Circulation ------------------

// IssueLoan lends an available copy of the ISBN to the borrower.
func (m *Manager) IssueLoan(borrowerID, isbn string) (*Loan, error) {
	if _, err := m.Members.Find(borrowerID); err != nil {
		return nil, err
	}
	return m.Loans.Issue(borrowerID, isbn)
}

// ReturnLoan commits the return; fulfillment of the earliest waiting
// reservation happens inside the ledger's return path.
func (m *Manager) ReturnLoan(loanID string) (*Loan, error) {
	return m.Loans.MarkReturned(loanID)
}

// Reserve queues the borrower for an exhausted title.
func (m *Manager) Reserve(borrowerID, isbn string) (*Reservation, error) {
	if _, err := m.Members.Find(borrowerID); err != nil {
		return nil, err
	}
	return m.Reservations.Admit(isbn, borrowerID)
}

// ------------------ Shelving ------------------

// PlaceOnShelf looks the copy up in the catalog and places it on the shelf.
func (m *Manager) PlaceOnShelf(shelfID, copyID string) error {
	_, c, _ := m.Inventory.findCopy(copyID)
	if c == nil {
		return fmt.Errorf("copy %q: %w", copyID, ErrNotFound)
	}
	return m.Shelves.Place(shelfID, c)
}

// OptimalPlacement picks the copy subset of the whole catalog that
// maximizes total value within the weight capacity.
func (m *Manager) OptimalPlacement(capacity float64) ([]*Copy, int) {
	var candidates []*Copy
	for _, g := range m.Inventory.Groups() {
		candidates = append(candidates, g.Copies...)
	}
	return OptimalPlacement(candidates, capacity)
}

// ------------------ Reporting ------------------

// ValueReport returns every copy in the catalog ordered by value.
func (m *Manager) ValueReport() []*Copy {
	return ValueReport(m.Inventory.Groups())
}
