package library

import (
	"fmt"
	"log/slog"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// SearchField selects which copy attribute a text search matches against.
type SearchField int

const (
	SearchByTitle SearchField = iota
	SearchByAuthor
)

// InventoryStore owns the canonical set of inventory groups in two
// synchronized orderings: the arrival view (insertion order, the one every
// mutation touches) and the ordered view (sorted by ISBN, the one lookups
// binary-search). The ordered view is rebuilt as an independent deep copy
// after every mutation, and both views are persisted before the mutator
// returns.
type InventoryStore struct {
	arrival []*Group
	ordered []*Group
	store   *storage
	log     *slog.Logger
}

// NewInventoryStore loads the arrival view from disk and rederives the
// ordered view from it, so a stale or hand-edited sorted file can never
// violate the sort invariant. Malformed group records are skipped.
func NewInventoryStore(store *storage, log *slog.Logger) (*InventoryStore, error) {
	inv := &InventoryStore{store: store, log: log}

	seen := make(map[string]bool)
	err := store.loadRecords(arrivalFile, func(raw jsoniter.RawMessage) error {
		var g Group
		if err := json.Unmarshal(raw, &g); err != nil {
			return err
		}
		if len(g.Copies) == 0 {
			return fmt.Errorf("group without copies")
		}
		for _, c := range g.Copies {
			if _, err := NewCopy(c.ID, c.ISBN, c.Title, c.Author, c.Weight, c.Value); err != nil {
				return err
			}
			if seen[c.ID] {
				return fmt.Errorf("duplicate copy id %q", c.ID)
			}
			if c.ISBN != g.Copies[0].ISBN {
				return fmt.Errorf("copy %q does not match group isbn %q", c.ID, g.Copies[0].ISBN)
			}
		}
		for _, c := range g.Copies {
			seen[c.ID] = true
		}
		// A hand-edited file can hold two groups for one ISBN; fold the
		// later one into the first so lookups see every copy.
		if existing := inv.groupFor(g.ISBN()); existing != nil {
			log.Warn("merging duplicate inventory group", "isbn", g.ISBN())
			existing.Copies = append(existing.Copies, g.Copies...)
			existing.Recount()
			return nil
		}
		g.Recount()
		inv.arrival = append(inv.arrival, &g)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := inv.synchronize(); err != nil {
		return nil, err
	}
	return inv, nil
}

// synchronize rebuilds the ordered view and persists both views. Deep
// copying first is mandatory: sorting or later mutating a view that aliased
// the arrival copies would silently corrupt the other view.
func (inv *InventoryStore) synchronize() error {
	ordered := make([]*Group, len(inv.arrival))
	for i, g := range inv.arrival {
		ordered[i] = g.Clone()
	}
	insertionSortGroups(ordered)
	inv.ordered = ordered

	if err := inv.store.save(arrivalFile, inv.arrival); err != nil {
		return err
	}
	return inv.store.save(orderedFile, inv.ordered)
}

// findCopy locates a copy by id in the arrival view.
func (inv *InventoryStore) findCopy(copyID string) (*Group, *Copy, int) {
	for _, g := range inv.arrival {
		for i, c := range g.Copies {
			if c.ID == copyID {
				return g, c, i
			}
		}
	}
	return nil, nil, -1
}

// groupFor locates the arrival-view group for an ISBN.
func (inv *InventoryStore) groupFor(isbn string) *Group {
	for _, g := range inv.arrival {
		if g.ISBN() == isbn {
			return g
		}
	}
	return nil
}

// pruneEmpty drops a group from the arrival view once its last copy is gone.
func (inv *InventoryStore) pruneEmpty() {
	kept := inv.arrival[:0]
	for _, g := range inv.arrival {
		if len(g.Copies) > 0 {
			kept = append(kept, g)
		}
	}
	inv.arrival = kept
}

// AddCopy inserts a copy into its ISBN's group, creating the group when the
// ISBN is new to the store.
func (inv *InventoryStore) AddCopy(c *Copy) error {
	if _, existing, _ := inv.findCopy(c.ID); existing != nil {
		return fmt.Errorf("copy %q: %w", c.ID, ErrDuplicateIdentifier)
	}

	g := inv.groupFor(c.ISBN)
	if g == nil {
		g = &Group{}
		inv.arrival = append(inv.arrival, g)
	}
	g.Copies = append(g.Copies, c)
	g.Recount()

	inv.log.Debug("copy added", "copy", c.ID, "isbn", c.ISBN)
	return inv.synchronize()
}

// CopyUpdate carries the attributes UpdateCopy may change; nil fields are
// left alone.
type CopyUpdate struct {
	ISBN   *string
	Title  *string
	Author *string
	Weight *float64
	Value  *int
}

// UpdateCopy mutates a copy. The update is staged onto a scratch copy and
// validated as a whole first, so a rejected update leaves the store exactly
// as it was. A changed ISBN moves the copy to the target group (created on
// demand), pruning the old group if it emptied.
func (inv *InventoryStore) UpdateCopy(copyID string, upd CopyUpdate) error {
	g, c, idx := inv.findCopy(copyID)
	if c == nil {
		return fmt.Errorf("copy %q: %w", copyID, ErrNotFound)
	}

	staged := *c
	if upd.ISBN != nil {
		staged.ISBN = *upd.ISBN
	}
	if upd.Title != nil {
		staged.Title = *upd.Title
	}
	if upd.Author != nil {
		staged.Author = *upd.Author
	}
	if upd.Weight != nil {
		staged.Weight = *upd.Weight
	}
	if upd.Value != nil {
		staged.Value = *upd.Value
	}
	if _, err := NewCopy(staged.ID, staged.ISBN, staged.Title, staged.Author, staged.Weight, staged.Value); err != nil {
		return err
	}

	moved := staged.ISBN != c.ISBN
	*c = staged

	if moved {
		g.Copies = append(g.Copies[:idx], g.Copies[idx+1:]...)
		g.Recount()
		inv.pruneEmpty()

		target := inv.groupFor(c.ISBN)
		if target == nil {
			target = &Group{}
			inv.arrival = append(inv.arrival, target)
		}
		target.Copies = append(target.Copies, c)
		target.Recount()
	} else {
		g.Recount()
	}

	return inv.synchronize()
}

// RemoveCopy deletes a copy and prunes its group when it was the last one.
// Checking that no loan or reservation still references the copy is the
// caller's responsibility.
func (inv *InventoryStore) RemoveCopy(copyID string) (*Copy, error) {
	g, c, idx := inv.findCopy(copyID)
	if c == nil {
		return nil, fmt.Errorf("copy %q: %w", copyID, ErrNotFound)
	}

	g.Copies = append(g.Copies[:idx], g.Copies[idx+1:]...)
	g.Recount()
	inv.pruneEmpty()

	inv.log.Debug("copy removed", "copy", copyID, "isbn", c.ISBN)
	if err := inv.synchronize(); err != nil {
		return nil, err
	}
	return c, nil
}

// FindByISBN performs the ordered lookup: binary search over the ordered
// view keyed by CompareISBN. The returned group is a snapshot; mutating it
// does not touch the store.
func (inv *InventoryStore) FindByISBN(isbn string) (*Group, error) {
	idx := binarySearchGroups(inv.ordered, isbn)
	if idx < 0 {
		return nil, fmt.Errorf("isbn %q: %w", isbn, ErrNotFound)
	}
	return inv.ordered[idx].Clone(), nil
}

// Available reports the available count for an ISBN, zero when unknown.
func (inv *InventoryStore) Available(isbn string) int {
	if g := inv.groupFor(isbn); g != nil {
		return g.Available
	}
	return 0
}

// HasISBN reports whether any group exists for the ISBN.
func (inv *InventoryStore) HasISBN(isbn string) bool {
	return inv.groupFor(isbn) != nil
}

// Search scans the arrival view for groups whose title or author contains
// the query after normalization, preserving arrival order. Text search has
// no use for the sorted view.
func (inv *InventoryStore) Search(query string, field SearchField) []*Group {
	q := normalizeText(query)
	if q == "" {
		return nil
	}

	var matches []*Group
	for _, g := range inv.arrival {
		for _, c := range g.Copies {
			value := c.Title
			if field == SearchByAuthor {
				value = c.Author
			}
			if strings.Contains(normalizeText(value), q) {
				matches = append(matches, g.Clone())
				break
			}
		}
	}
	return matches
}

// LoanOutCopy flags one available copy of the ISBN as on loan and returns a
// snapshot of it. Copies of a title are interchangeable; the first
// available one in group order is taken.
func (inv *InventoryStore) LoanOutCopy(isbn string) (*Copy, error) {
	g := inv.groupFor(isbn)
	if g == nil {
		return nil, fmt.Errorf("isbn %q: %w", isbn, ErrNotFound)
	}
	for _, c := range g.Copies {
		if !c.OnLoan {
			c.OnLoan = true
			g.Recount()
			if err := inv.synchronize(); err != nil {
				return nil, err
			}
			out := *c
			return &out, nil
		}
	}
	return nil, fmt.Errorf("isbn %q: %w", isbn, ErrOutOfStock)
}

// ReturnCopy clears a copy's on-loan flag, making it available again.
func (inv *InventoryStore) ReturnCopy(copyID string) error {
	g, c, _ := inv.findCopy(copyID)
	if c == nil {
		return fmt.Errorf("copy %q: %w", copyID, ErrNotFound)
	}
	c.OnLoan = false
	g.Recount()
	return inv.synchronize()
}

// Groups returns a snapshot of the arrival view.
func (inv *InventoryStore) Groups() []*Group {
	out := make([]*Group, len(inv.arrival))
	for i, g := range inv.arrival {
		out[i] = g.Clone()
	}
	return out
}

// OrderedGroups returns a snapshot of the ordered view.
func (inv *InventoryStore) OrderedGroups() []*Group {
	out := make([]*Group, len(inv.ordered))
	for i, g := range inv.ordered {
		out[i] = g.Clone()
	}
	return out
}
