// Command import-catalog seeds the catalog data directory from a JSON file
// of copy records. Records that fail validation are logged and skipped so a
// single bad row never aborts an import.
package main

import (
	"fmt"
	"log/slog"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"library-catalog/library"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// copyRecord is the input row shape. Copy ids may be omitted; the manager
// assigns the next B-prefixed id.
type copyRecord struct {
	ID     string  `json:"id"`
	ISBN   string  `json:"isbn"`
	Title  string  `json:"title"`
	Author string  `json:"author"`
	Weight float64 `json:"weight"`
	Value  int     `json:"value"`
}

func main() {
	var (
		dataDir string
		input   string
	)

	cmd := &cobra.Command{
		Use:   "import-catalog",
		Short: "Import an initial set of copies into the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

			raw, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			var records []copyRecord
			if err := json.Unmarshal(raw, &records); err != nil {
				return fmt.Errorf("decode input: %w", err)
			}

			mgr, err := library.NewManager(library.Config{DataDir: dataDir, Logger: logger})
			if err != nil {
				return err
			}

			imported := 0
			for i, r := range records {
				if _, err := mgr.AddCopy(r.ID, r.ISBN, r.Title, r.Author, r.Weight, r.Value); err != nil {
					logger.Warn("skipping record", "index", i, "err", err)
					continue
				}
				imported++
			}
			fmt.Printf("Imported %d of %d copies into %s\n", imported, len(records), dataDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "data", "catalog data directory")
	cmd.Flags().StringVar(&input, "input", "catalog.json", "JSON file of copy records")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
