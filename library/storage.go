package library

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Data file names inside the data directory. Inventory keeps one file per
// view; the rest are one file per aggregate.
const (
	arrivalFile      = "inventory_general.json"
	orderedFile      = "inventory_sorted.json"
	loansFile        = "loans.json"
	historyFile      = "loan_history.json"
	reservationsFile = "reservations.json"
	membersFile      = "members.json"
	shelvesFile      = "shelves.json"
)

// storage reads and writes the JSON documents under one data directory.
// Writes are synchronous and happen at the end of every mutating operation.
type storage struct {
	dir string
	log *slog.Logger
}

// newStorage creates the data directory on first run.
func newStorage(dir string, log *slog.Logger) (*storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &storage{dir: dir, log: log}, nil
}

func (s *storage) path(name string) string { return filepath.Join(s.dir, name) }

// load decodes the named document into v. A missing file is not an error;
// v is left untouched so the store starts empty.
func (s *storage) load(name string, v any) error {
	raw, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// loadRecords decodes the named document as a JSON list and hands each
// element to decode. Malformed elements are logged and skipped so one bad
// record does not take the whole file down.
func (s *storage) loadRecords(name string, decode func(raw jsoniter.RawMessage) error) error {
	var items []jsoniter.RawMessage
	if err := s.load(name, &items); err != nil {
		return err
	}
	for i, raw := range items {
		if err := decode(raw); err != nil {
			s.log.Warn("skipping malformed record", "file", name, "index", i, "err", err)
		}
	}
	return nil
}

// save serializes v to the named document, indented to stay hand-editable.
func (s *storage) save(name string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.WriteFile(s.path(name), raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
