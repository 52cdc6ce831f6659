package seo

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
)

// Column names of a Screaming Frog "Internal" export.
const (
	ColAddress     = "Address"
	ColTitle       = "Title 1"
	ColMeta        = "Meta Description 1"
	ColStatusCode  = "Status Code"
	ColContentType = "Content Type"
)

var errNoHeader = errors.New("seo: csv has no header row")

// Dataset is an in-memory audit table. It is never modified after
// construction and is safe for concurrent reads.
type Dataset struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// NewDataset builds a Dataset. Rows shorter than columns read as empty cells.
func NewDataset(columns []string, rows [][]string) *Dataset {
	d := &Dataset{
		columns: slices.Clone(columns),
		index:   make(map[string]int, len(columns)),
		rows:    make([][]string, len(rows)),
	}
	for i, c := range columns {
		if _, dup := d.index[c]; !dup {
			d.index[c] = i
		}
	}
	for i, r := range rows {
		d.rows[i] = slices.Clone(r)
	}
	return d
}

// ParseCSV reads a header row followed by data rows.
func ParseCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("seo: read csv header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var rows [][]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("seo: read csv row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, rec)
	}
	return NewDataset(header, rows), nil
}

// LoadCSV reads the dataset stored at path.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("seo: open dataset: %w", err)
	}
	defer f.Close()
	return ParseCSV(f)
}

// Load reads path, substituting SampleDataset when the file is missing or
// unreadable. It never fails.
func Load(path string, logger *slog.Logger) *Dataset {
	d, err := LoadCSV(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("audit dataset not found, using sample data", "path", path)
		} else {
			logger.Warn("audit dataset unreadable, using sample data", "path", path, "error", err)
		}
		return SampleDataset()
	}
	logger.Info("audit dataset loaded", "path", path, "rows", d.Len())
	return d
}

// SampleDataset returns a small illustrative crawl of example.com.
func SampleDataset() *Dataset {
	return NewDataset(
		[]string{ColAddress, ColTitle, ColMeta, ColStatusCode, ColContentType},
		[][]string{
			{"http://example.com/", "Example Website - Your trusted partner for digital solutions and services", "Welcome to Example.com - providing quality services since 2020", "200", "text/html"},
			{"https://example.com/about", "About Us - Example Company", "Learn more about our company history and mission", "200", "text/html"},
			{"http://example.com/contact", "Contact Us Today for More Information About Our Services", "", "200", "text/html"},
			{"https://example.com/services", "Our Services", "Comprehensive services for your business needs", "200", "text/html"},
			{"http://example.com/blog/post-1", "Blog Post 1 - Detailed analysis of modern web development trends and best practices", "Read our latest insights on web development", "404", "text/html"},
		},
	)
}

// Len returns the number of data rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Columns returns the header names in file order.
func (d *Dataset) Columns() []string { return slices.Clone(d.columns) }

// HasColumn reports whether the header contains name.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Value returns the trimmed cell at row for column, or "" when either is absent.
func (d *Dataset) Value(row int, column string) string {
	i, ok := d.index[column]
	if !ok || row < 0 || row >= len(d.rows) || i >= len(d.rows[row]) {
		return ""
	}
	return strings.TrimSpace(d.rows[row][i])
}

func (d *Dataset) missing(columns ...string) []string {
	var out []string
	for _, c := range columns {
		if !d.HasColumn(c) {
			out = append(out, c)
		}
	}
	return out
}
