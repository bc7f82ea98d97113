package csvfile

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/county-data-etl/internal/domain"
	"golang.org/x/text/encoding/charmap"
)

// Encoding names the character set of an input file.
type Encoding int

const (
	UTF8 Encoding = iota
	// Latin1 is ISO-8859-1, used by the census population and Zillow crosswalk extracts.
	Latin1
)

// Source locates one named input table on disk.
type Source struct {
	Path     string
	Encoding Encoding
}

// Reader loads raw input tables from local CSV files.
// It implements pipeline.TableSource.
type Reader struct {
	sources map[string]Source
	logger  *slog.Logger
}

// NewReader creates a CSV table reader over the given named sources.
func NewReader(sources map[string]Source, logger *slog.Logger) *Reader {
	return &Reader{sources: sources, logger: logger}
}

// ReadTable reads the named source into a domain.Table. The first record is
// the header. A missing or unreadable file wraps domain.ErrSourceUnavailable.
func (r *Reader) ReadTable(ctx context.Context, name string) (*domain.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, ok := r.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: no file configured for %s", domain.ErrSourceUnavailable, name)
	}
	return r.readFile(name, src.Path, src.Encoding)
}

func (r *Reader) readFile(name, path string, enc Encoding) (*domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrSourceUnavailable, name, err)
	}
	defer f.Close()

	var src io.Reader = f
	if enc == Latin1 {
		src = charmap.ISO8859_1.NewDecoder().Reader(f)
	}

	t, err := parse(name, src)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("table read", "source", name, "path", path, "columns", len(t.Columns), "rows", len(t.Rows))
	return t, nil
}

func parse(name string, src io.Reader) (*domain.Table, error) {
	br := bufio.NewReader(src)
	skipBOM(br)

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrSchemaMismatch, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s header: %v", domain.ErrSourceUnavailable, name, err)
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", domain.ErrSourceUnavailable, name, err)
		}
		rows = append(rows, rec)
	}

	return domain.NewTable(name, header, rows), nil
}

// skipBOM drops a leading UTF-8 byte order mark so it never sticks to the
// first header name.
func skipBOM(br *bufio.Reader) {
	if b, err := br.Peek(3); err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = br.Discard(3)
	}
}
