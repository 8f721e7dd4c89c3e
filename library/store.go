package library

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Collection file names within the data directory.
const (
	usersFile        = "users.csv"
	booksFile        = "books.csv"
	transactionsFile = "transactions.csv"
	reservationsFile = "reservations.csv"
)

const fieldSeparator = ","

// RecordStore loads and saves one named collection of delimited text records
// at a time. A record is an ordered sequence of fields joined by the
// separator, one record per line.
//
// Fields must not contain the separator: there is no quoting or escaping, so
// a field holding a comma splits into two fields on the next Load. That is a
// known limitation of the format and is not corrected here.
type RecordStore struct {
	dir  string
	rows [][]string
}

// NewRecordStore creates the data directory if needed so first-run succeeds.
func NewRecordStore(dir string) (*RecordStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &RecordStore{dir: dir}, nil
}

// Load reads the whole collection into the buffer, replacing any previous
// contents. A missing collection yields an empty buffer, not an error.
func (s *RecordStore) Load(name string) error {
	s.rows = nil
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		s.rows = append(s.rows, strings.Split(line, fieldSeparator))
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	return nil
}

// Rows exposes the loaded buffer. Callers mutate records in place and call
// Save to persist them.
func (s *RecordStore) Rows() [][]string { return s.rows }

// Replace swaps the buffer wholesale, for filtered deletes.
func (s *RecordStore) Replace(rows [][]string) { s.rows = rows }

// Save overwrites the collection with the buffer, then clears the buffer.
// After Save the caller's view is invalidated and it must Load again before
// further reads or mutations; stale in-memory state is never reused.
func (s *RecordStore) Save(name string) error {
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	w := bufio.NewWriter(f)
	for _, row := range s.rows {
		w.WriteString(strings.Join(row, fieldSeparator))
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	s.rows = nil
	return f.Close()
}

// Append adds a single record to the end of the collection without reading
// the rest. The buffer is untouched.
func (s *RecordStore) Append(name string, record []string) error {
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("append %s: %w", name, err)
	}
	if _, err := f.WriteString(strings.Join(record, fieldSeparator) + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("append %s: %w", name, err)
	}
	return f.Close()
}
