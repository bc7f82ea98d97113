package csvfile

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/county-data-etl/internal/domain"
)

// Paths are the destinations of the three output tables.
type Paths struct {
	Housing  string
	Race     string
	Mobility string
}

// Writer persists a run's output tables as CSV files. Each file is fully
// replaced; readers never observe a partially written table.
type Writer struct {
	paths  Paths
	logger *slog.Logger
}

// NewWriter creates a CSV output writer.
func NewWriter(paths Paths, logger *slog.Logger) *Writer {
	return &Writer{paths: paths, logger: logger}
}

// Name identifies the loader in logs.
func (w *Writer) Name() string { return "csv" }

// Load writes the housing, race, and mobility tables.
func (w *Writer) Load(ctx context.Context, res *domain.Result) error {
	housing := make([][]string, len(res.Housing))
	for i, m := range res.Housing {
		housing[i] = m.Row()
	}
	race := make([][]string, len(res.Race))
	for i, r := range res.Race {
		race[i] = r.Row()
	}
	mobility := make([][]string, len(res.Mobility))
	for i, m := range res.Mobility {
		mobility[i] = m.Row()
	}

	tables := []struct {
		name   string
		path   string
		header []string
		rows   [][]string
	}{
		{"housing", w.paths.Housing, domain.HousingColumns, housing},
		{"race", w.paths.Race, domain.RaceColumns, race},
		{"mobility", w.paths.Mobility, domain.MobilityColumns, mobility},
	}

	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeFile(t.path, t.header, t.rows); err != nil {
			return fmt.Errorf("write %s table: %w", t.name, err)
		}
		w.logger.Info("table written", "table", t.name, "path", t.path, "rows", len(t.rows))
	}
	return nil
}

// writeFile writes to a temp file in the destination directory and renames it into place.
func writeFile(path string, header []string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	bw := bufio.NewWriter(tmp)
	cw := csv.NewWriter(bw)
	if err := cw.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("write rows: %w", err)
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}
