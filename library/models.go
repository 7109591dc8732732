package library

import (
	"fmt"
	"strings"
	"time"
)

// Copy represents one physical copy of a title. Identifying attributes are
// fixed at creation; OnLoan is the only field that changes over its life.
type Copy struct {
	ID     string  `json:"id"`
	ISBN   string  `json:"isbn"`
	Title  string  `json:"title"`
	Author string  `json:"author"`
	Weight float64 `json:"weight"`
	Value  int     `json:"value"`
	OnLoan bool    `json:"on_loan"`
}

// NewCopy validates the identifying attributes and returns a Copy that is
// not on loan. Deserialized records go through the same checks.
func NewCopy(id, isbn, title, author string, weight float64, value int) (*Copy, error) {
	switch {
	case strings.TrimSpace(id) == "":
		return nil, fmt.Errorf("copy id cannot be empty")
	case strings.TrimSpace(isbn) == "":
		return nil, fmt.Errorf("isbn cannot be empty")
	case strings.TrimSpace(title) == "":
		return nil, fmt.Errorf("title cannot be empty")
	case weight < 0:
		return nil, fmt.Errorf("weight cannot be negative")
	case value < 0:
		return nil, fmt.Errorf("value cannot be negative")
	}
	return &Copy{ID: id, ISBN: isbn, Title: title, Author: author, Weight: weight, Value: value}, nil
}

// Group aggregates every copy sharing one ISBN. Available is derived from
// the copies' on-loan flags and recomputed after each mutation; a group
// never exists without at least one copy.
type Group struct {
	Available int     `json:"available_count"`
	Copies    []*Copy `json:"copies"`
}

// ISBN returns the grouping key. Valid groups always hold a copy.
func (g *Group) ISBN() string {
	if len(g.Copies) == 0 {
		return ""
	}
	return g.Copies[0].ISBN
}

// Recount rederives the available count from the on-loan flags.
func (g *Group) Recount() {
	n := 0
	for _, c := range g.Copies {
		if !c.OnLoan {
			n++
		}
	}
	g.Available = n
}

// Clone produces a structurally independent copy of the group so the
// ordered view never aliases the arrival view.
func (g *Group) Clone() *Group {
	copies := make([]*Copy, len(g.Copies))
	for i, c := range g.Copies {
		dup := *c
		copies[i] = &dup
	}
	return &Group{Available: g.Available, Copies: copies}
}

// Reservation statuses. Pending entries form the waiting queue; assigned
// and cancelled entries are terminal and kept for audit.
const (
	StatusPending   = "pending"
	StatusAssigned  = "assigned"
	StatusCancelled = "cancelled"
)

// Reservation is a borrower's request to queue for an exhausted title.
// Arrival is a logical clock tick; FIFO order among pending entries is the
// sole priority rule.
type Reservation struct {
	ID         string `json:"reservation_id"`
	BorrowerID string `json:"borrower_id"`
	ISBN       string `json:"isbn"`
	Arrival    int64  `json:"arrival"`
	Status     string `json:"status"`
	Assigned   int64  `json:"assigned,omitempty"`
}

// Terminal reports whether the reservation can no longer change state.
func (r *Reservation) Terminal() bool {
	return r.Status == StatusAssigned || r.Status == StatusCancelled
}

// Loan records a borrowing of one copy, active until marked returned.
type Loan struct {
	ID         string     `json:"loan_id"`
	BorrowerID string     `json:"borrower_id"`
	ISBN       string     `json:"isbn"`
	CopyID     string     `json:"copy_id"`
	IssueDate  time.Time  `json:"issue_date"`
	Returned   bool       `json:"returned"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
}

// HistoryEntry is one line of a borrower's loan history. The file keeps
// entries in arrival order; the in-memory view is most-recent-first.
type HistoryEntry struct {
	BorrowerID string    `json:"borrower_id"`
	ISBN       string    `json:"isbn"`
	IssueDate  time.Time `json:"issue_date"`
	LoanID     string    `json:"loan_id"`
}

// Member is a registered borrower.
type Member struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PasswordHash string `json:"password_hash,omitempty"`
}

// Shelf holds physical copies up to a weight capacity.
type Shelf struct {
	ID       string  `json:"id"`
	Name     string  `json:"name,omitempty"`
	Capacity float64 `json:"capacity"`
	Copies   []*Copy `json:"copies"`
}

// TotalWeight sums the weight of every copy on the shelf.
func (s *Shelf) TotalWeight() float64 {
	var w float64
	for _, c := range s.Copies {
		w += c.Weight
	}
	return w
}

// Remaining reports the unused weight capacity.
func (s *Shelf) Remaining() float64 {
	return s.Capacity - s.TotalWeight()
}
