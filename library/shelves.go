package library

import (
	"fmt"
	"log/slog"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// MaxShelfCapacity is the physical weight limit of a shelf, in kilograms.
const MaxShelfCapacity = 8.0

// ShelfStore owns shelves and the placement rules: a shelf never holds more
// weight than its capacity and never holds the same copy twice.
type ShelfStore struct {
	shelves []*Shelf
	store   *storage
	log     *slog.Logger
}

// NewShelfStore loads the shelf file, skipping malformed records.
func NewShelfStore(store *storage, log *slog.Logger) (*ShelfStore, error) {
	ss := &ShelfStore{store: store, log: log}
	err := store.loadRecords(shelvesFile, func(raw jsoniter.RawMessage) error {
		var s Shelf
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		if s.ID == "" || s.Capacity <= 0 || s.Capacity > MaxShelfCapacity {
			return fmt.Errorf("shelf missing id or has invalid capacity")
		}
		ss.shelves = append(ss.shelves, &s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ss, nil
}

func (ss *ShelfStore) persist() error {
	return ss.store.save(shelvesFile, ss.shelves)
}

// Create adds a shelf. An empty id gets the next S-prefixed one; capacity
// must be positive and within the physical limit.
func (ss *ShelfStore) Create(id, name string, capacity float64) (*Shelf, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("shelf capacity must be positive")
	}
	if capacity > MaxShelfCapacity {
		return nil, fmt.Errorf("shelf capacity %.1f exceeds the maximum of %.1f kg", capacity, MaxShelfCapacity)
	}
	if strings.TrimSpace(id) == "" {
		ids := make([]string, len(ss.shelves))
		for i, s := range ss.shelves {
			ids[i] = s.ID
		}
		id = nextPrefixedID("S", ids)
	} else if ss.byID(id) != nil {
		return nil, fmt.Errorf("shelf %q: %w", id, ErrDuplicateIdentifier)
	}

	s := &Shelf{ID: id, Name: name, Capacity: capacity}
	ss.shelves = append(ss.shelves, s)
	if err := ss.persist(); err != nil {
		return nil, err
	}
	dup := *s
	return &dup, nil
}

// Place puts a copy on a shelf after the capacity and duplicate checks.
func (ss *ShelfStore) Place(shelfID string, c *Copy) error {
	s := ss.byID(shelfID)
	if s == nil {
		return fmt.Errorf("shelf %q: %w", shelfID, ErrNotFound)
	}
	for _, existing := range s.Copies {
		if existing.ID == c.ID {
			return fmt.Errorf("copy %q is already on shelf %q: %w", c.ID, shelfID, ErrDuplicateIdentifier)
		}
	}
	if s.TotalWeight()+c.Weight > s.Capacity {
		return fmt.Errorf("copy %q (%.2f kg) exceeds remaining capacity %.2f kg of shelf %q",
			c.ID, c.Weight, s.Remaining(), shelfID)
	}

	dup := *c
	s.Copies = append(s.Copies, &dup)
	return ss.persist()
}

// Take removes a copy from a shelf.
func (ss *ShelfStore) Take(shelfID, copyID string) error {
	s := ss.byID(shelfID)
	if s == nil {
		return fmt.Errorf("shelf %q: %w", shelfID, ErrNotFound)
	}
	for i, c := range s.Copies {
		if c.ID == copyID {
			s.Copies = append(s.Copies[:i], s.Copies[i+1:]...)
			return ss.persist()
		}
	}
	return fmt.Errorf("copy %q is not on shelf %q: %w", copyID, shelfID, ErrNotFound)
}

// Evict removes a copy from every shelf that holds it, used when the copy
// is deleted from the catalog.
func (ss *ShelfStore) Evict(copyID string) error {
	changed := false
	for _, s := range ss.shelves {
		for i, c := range s.Copies {
			if c.ID == copyID {
				s.Copies = append(s.Copies[:i], s.Copies[i+1:]...)
				changed = true
				break
			}
		}
	}
	if !changed {
		return nil
	}
	ss.log.Debug("copy evicted from shelves", "copy", copyID)
	return ss.persist()
}

// Find returns a snapshot of the shelf, or ErrNotFound.
func (ss *ShelfStore) Find(shelfID string) (*Shelf, error) {
	s := ss.byID(shelfID)
	if s == nil {
		return nil, fmt.Errorf("shelf %q: %w", shelfID, ErrNotFound)
	}
	return cloneShelf(s), nil
}

// All returns every shelf in creation order.
func (ss *ShelfStore) All() []*Shelf {
	out := make([]*Shelf, len(ss.shelves))
	for i, s := range ss.shelves {
		out[i] = cloneShelf(s)
	}
	return out
}

func (ss *ShelfStore) byID(id string) *Shelf {
	for _, s := range ss.shelves {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func cloneShelf(s *Shelf) *Shelf {
	copies := make([]*Copy, len(s.Copies))
	for i, c := range s.Copies {
		dup := *c
		copies[i] = &dup
	}
	return &Shelf{ID: s.ID, Name: s.Name, Capacity: s.Capacity, Copies: copies}
}

// OptimalPlacement solves the 0/1 knapsack over the candidate copies by
// backtracking: the subset with the highest total value whose total weight
// stays within capacity. Exhaustive by intent, so keep the candidate list
// small (the data model assumes tens of copies per placement decision).
func OptimalPlacement(candidates []*Copy, capacity float64) ([]*Copy, int) {
	best := struct {
		value  int
		chosen []bool
	}{value: -1}
	chosen := make([]bool, len(candidates))

	var explore func(i int, weight float64, value int)
	explore = func(i int, weight float64, value int) {
		if i == len(candidates) {
			if value > best.value {
				best.value = value
				best.chosen = append([]bool(nil), chosen...)
			}
			return
		}
		if weight+candidates[i].Weight <= capacity {
			chosen[i] = true
			explore(i+1, weight+candidates[i].Weight, value+candidates[i].Value)
			chosen[i] = false
		}
		explore(i+1, weight, value)
	}
	explore(0, 0, 0)

	var picked []*Copy
	for i, ok := range best.chosen {
		if ok {
			dup := *candidates[i]
			picked = append(picked, &dup)
		}
	}
	if best.value < 0 {
		best.value = 0
	}
	return picked, best.value
}
