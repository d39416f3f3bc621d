package service

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jjenkins/husbandry/internal/store"
)

// TableStats tracks import statistics for one table
type TableStats struct {
	Table    string
	Total    int
	Imported int
	Failed   int
}

// ImportStats tracks import statistics
type ImportStats struct {
	Checksum string
	Tables   []*TableStats
}

// Failed returns the number of records that were not imported
func (s *ImportStats) Failed() int {
	n := 0
	for _, t := range s.Tables {
		n += t.Failed
	}
	return n
}

// Table returns the stats of one table, creating them on first use
func (s *ImportStats) Table(name string) *TableStats {
	for _, t := range s.Tables {
		if t.Table == name {
			return t
		}
	}
	t := &TableStats{Table: name}
	s.Tables = append(s.Tables, t)
	return t
}

// Importer loads a listings bundle into the SQL store
type Importer struct {
	parser    *Parser
	source    *store.SQLSource
	logger    *log.Logger
	errLogger *log.Logger
}

// NewImporter creates a new Importer
func NewImporter(parser *Parser, source *store.SQLSource) *Importer {
	return &Importer{
		parser:    parser,
		source:    source,
		logger:    log.New(os.Stdout, "", log.LstdFlags),
		errLogger: log.New(os.Stderr, "ERROR: ", log.LstdFlags),
	}
}

// ImportFile reads and imports the bundle at path
func (i *Importer) ImportFile(ctx context.Context, path string) (*ImportStats, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle: %w", err)
	}
	i.logger.Printf("Importing %s (%d bytes)...", path, len(content))
	return i.Import(ctx, content)
}

// Import upserts every valid record of the bundle. Invalid records and
// failed writes are counted per table; only a malformed bundle or a
// cancelled context aborts the import.
func (i *Importer) Import(ctx context.Context, content []byte) (*ImportStats, error) {
	result, err := i.parser.Parse(content)
	if err != nil {
		return nil, err
	}

	stats := &ImportStats{Checksum: result.Checksum}
	i.logger.Printf("Bundle checksum %s", result.Checksum)
	for _, key := range result.Unknown {
		i.logger.Printf("Skipping unknown table %q", key)
	}

	for _, table := range bundleTables {
		t := stats.Table(table)
		t.Total = result.Count(table)
	}
	for _, e := range result.Invalid {
		i.errLogger.Printf("Invalid record %v", e)
		stats.Table(e.Table).Failed++
	}

	steps := []struct {
		table string
		n     int
		save  func(idx int) (string, error)
	}{
		{TablePrices, len(result.Prices), func(idx int) (string, error) {
			p := &result.Prices[idx]
			return p.ID.String(), i.source.Prices.Upsert(ctx, p)
		}},
		{TableSchemes, len(result.Schemes), func(idx int) (string, error) {
			s := &result.Schemes[idx]
			return s.ID.String(), i.source.Schemes.Upsert(ctx, s)
		}},
		{TableWorkshops, len(result.Workshops), func(idx int) (string, error) {
			w := &result.Workshops[idx]
			return w.ID.String(), i.source.Workshops.Upsert(ctx, w)
		}},
		{TableVeterinary, len(result.Veterinary), func(idx int) (string, error) {
			v := &result.Veterinary[idx]
			return v.ID.String(), i.source.Veterinary.Upsert(ctx, v)
		}},
	}

	for _, step := range steps {
		t := stats.Table(step.table)
		if step.n > 0 {
			i.logger.Printf("Importing %d %s...", step.n, step.table)
		}
		for idx := 0; idx < step.n; idx++ {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			default:
			}

			id, err := step.save(idx)
			if err != nil {
				i.errLogger.Printf("Failed to import %s %s: %v", step.table, id, err)
				t.Failed++
				continue
			}
			t.Imported++
		}
	}

	return stats, nil
}

// PrintSummary prints the import statistics
func (i *Importer) PrintSummary(stats *ImportStats) {
	if stats == nil {
		return
	}
	i.logger.Println("")
	i.logger.Println("=== Import Summary ===")
	i.logger.Printf("Checksum:        %s", stats.Checksum)
	for _, t := range stats.Tables {
		i.logger.Printf("%-20s total %d, imported %d, failed %d", t.Table+":", t.Total, t.Imported, t.Failed)
	}

	total, imported := 0, 0
	for _, t := range stats.Tables {
		total += t.Total
		imported += t.Imported
	}
	if total > 0 {
		i.logger.Printf("Success rate:    %.1f%%", float64(imported)/float64(total)*100)
	}
}
