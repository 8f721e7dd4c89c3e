package library

import "fmt"

// Field selectors accepted by CatalogRepository.UpdateField.
const (
	BookFieldTitle     = 1
	BookFieldAuthor    = 2
	BookFieldPublisher = 3
)

// Positions of the fields catalog operations touch directly.
const (
	bkTitle     = 0
	bkAuthor    = 1
	bkISBN      = 2
	bkPublisher = 3
	bkOnLoan    = 4
	bkHeld      = 5
)

// CatalogRepository owns the book collection. Every operation loads the whole
// collection, mutates it, and rewrites it; nothing is cached across calls.
type CatalogRepository struct {
	store *RecordStore
}

func NewCatalogRepository(store *RecordStore) *CatalogRepository {
	return &CatalogRepository{store: store}
}

// FindByISBN returns the first book with the given ISBN.
func (r *CatalogRepository) FindByISBN(isbn string) (Book, error) {
	if err := r.store.Load(booksFile); err != nil {
		return Book{}, err
	}
	for _, row := range r.store.Rows() {
		if len(row) > bkISBN && row[bkISBN] == isbn {
			return parseBookRow(row)
		}
	}
	return Book{}, fmt.Errorf("%w: book %s", ErrNotFound, isbn)
}

// List returns every book in the catalog.
func (r *CatalogRepository) List() ([]Book, error) {
	if err := r.store.Load(booksFile); err != nil {
		return nil, err
	}
	var books []Book
	for _, row := range r.store.Rows() {
		b, err := parseBookRow(row)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, nil
}

// ListAvailable returns the books that are not currently on loan.
func (r *CatalogRepository) ListAvailable() ([]Book, error) {
	books, err := r.List()
	if err != nil {
		return nil, err
	}
	var available []Book
	for _, b := range books {
		if !b.OnLoan {
			available = append(available, b)
		}
	}
	return available, nil
}

// Add appends a catalog entry. The ISBN is immutable once created.
func (r *CatalogRepository) Add(b Book) error {
	return r.store.Append(booksFile, bookRow(b))
}

// SetAvailability flips the on-loan flag on every row carrying the ISBN.
// The model has no per-copy identity, so the update is ISBN-wide.
func (r *CatalogRepository) SetAvailability(isbn string, onLoan bool) error {
	return r.setFlag(isbn, bkOnLoan, onLoan)
}

// SetReservationHeld flips the held flag on every row carrying the ISBN.
func (r *CatalogRepository) SetReservationHeld(isbn string, held bool) error {
	return r.setFlag(isbn, bkHeld, held)
}

func (r *CatalogRepository) setFlag(isbn string, field int, value bool) error {
	if err := r.store.Load(booksFile); err != nil {
		return err
	}
	for _, row := range r.store.Rows() {
		if len(row) > field && row[bkISBN] == isbn {
			row[field] = flag(value)
		}
	}
	return r.store.Save(booksFile)
}

// MarkAvailable clears the on-loan flag for every listed ISBN in one pass,
// used when a removed member's open loans are force-closed.
func (r *CatalogRepository) MarkAvailable(isbns []string) error {
	if len(isbns) == 0 {
		return nil
	}
	returned := make(map[string]bool, len(isbns))
	for _, isbn := range isbns {
		returned[isbn] = true
	}
	if err := r.store.Load(booksFile); err != nil {
		return err
	}
	for _, row := range r.store.Rows() {
		if len(row) > bkOnLoan && returned[row[bkISBN]] {
			row[bkOnLoan] = flag(false)
		}
	}
	return r.store.Save(booksFile)
}

// UpdateField edits title, author, or publisher on the first row matching the
// ISBN. A title change is propagated to the title snapshot of every loan for
// that ISBN so history stays readable.
func (r *CatalogRepository) UpdateField(isbn string, field int, value string) error {
	var pos int
	switch field {
	case BookFieldTitle:
		pos = bkTitle
	case BookFieldAuthor:
		pos = bkAuthor
	case BookFieldPublisher:
		pos = bkPublisher
	default:
		return fmt.Errorf("%w: book field selector %d", ErrValidation, field)
	}

	if err := r.store.Load(booksFile); err != nil {
		return err
	}
	found := false
	for _, row := range r.store.Rows() {
		if len(row) > bkPublisher && row[bkISBN] == isbn {
			row[pos] = value
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: book %s", ErrNotFound, isbn)
	}
	if err := r.store.Save(booksFile); err != nil {
		return err
	}

	if field != BookFieldTitle {
		return nil
	}
	if err := r.store.Load(transactionsFile); err != nil {
		return err
	}
	for _, row := range r.store.Rows() {
		if len(row) > lnISBN && row[lnISBN] == isbn {
			row[lnTitle] = value
		}
	}
	return r.store.Save(transactionsFile)
}

// Remove deletes every catalog row carrying the ISBN. Dependent loan and
// reservation rows are removed by the service cascade.
func (r *CatalogRepository) Remove(isbn string) error {
	if err := r.store.Load(booksFile); err != nil {
		return err
	}
	kept := r.store.Rows()[:0]
	removed := false
	for _, row := range r.store.Rows() {
		if len(row) > bkISBN && row[bkISBN] == isbn {
			removed = true
			continue
		}
		kept = append(kept, row)
	}
	if !removed {
		return fmt.Errorf("%w: book %s", ErrNotFound, isbn)
	}
	r.store.Replace(kept)
	return r.store.Save(booksFile)
}
