package library

import (
	"fmt"
	"time"
)

// LibraryService orchestrates the four repositories and is the single place
// business rules live. Role differences flow through PolicyFor; there are no
// per-role code paths.
//
// Cross-collection operations (borrow, return, the removal cascades) are not
// atomic: each collection is rewritten independently and a failure between
// writes leaves the earlier ones in place. Single-user, single-process
// operation is assumed throughout.
type LibraryService struct {
	catalog      *CatalogRepository
	members      *MembershipRepository
	ledger       *LoanLedger
	reservations *ReservationQueue

	now func() time.Time
}

// NewLibraryService wires the repositories over one data directory, creating
// it if needed.
func NewLibraryService(dataDir string) (*LibraryService, error) {
	books, err := NewRecordStore(dataDir)
	if err != nil {
		return nil, err
	}
	users, err := NewRecordStore(dataDir)
	if err != nil {
		return nil, err
	}
	loans, err := NewRecordStore(dataDir)
	if err != nil {
		return nil, err
	}
	holds, err := NewRecordStore(dataDir)
	if err != nil {
		return nil, err
	}
	return &LibraryService{
		catalog:      NewCatalogRepository(books),
		members:      NewMembershipRepository(users),
		ledger:       NewLoanLedger(loans),
		reservations: NewReservationQueue(holds),
		now:          time.Now,
	}, nil
}

// Login authenticates a member by id and secret.
func (s *LibraryService) Login(id, secret string) (Member, error) {
	return s.members.FindByCredentials(id, secret)
}

// ListAvailableBooks returns the books currently borrowable.
func (s *LibraryService) ListAvailableBooks() ([]Book, error) {
	return s.catalog.ListAvailable()
}

// FindBook looks up a catalog entry by ISBN.
func (s *LibraryService) FindBook(isbn string) (Book, error) {
	return s.catalog.FindByISBN(isbn)
}

// ListMyLoans returns the member's open loans.
func (s *LibraryService) ListMyLoans(memberID string) ([]Loan, error) {
	loans, err := s.ledger.ListForMember(memberID)
	if err != nil {
		return nil, err
	}
	var open []Loan
	for _, loan := range loans {
		if !loan.Closed {
			open = append(open, loan)
		}
	}
	return open, nil
}

// Borrow checks the member out on the book. A member with any overdue open
// loan may not borrow at all, regardless of the requested book, and the
// member's open-loan count must stay within their role's quota.
//
// The availability flip and the loan append are two separate writes; if the
// second fails the book stays marked on-loan with no loan row.
func (s *LibraryService) Borrow(memberID, isbn string) (Loan, error) {
	member, err := s.members.FindByID(memberID)
	if err != nil {
		return Loan{}, err
	}
	policy := PolicyFor(member.Role)

	overdue, err := s.ledger.HasOverdue(memberID, policy.LoanDays, s.now())
	if err != nil {
		return Loan{}, err
	}
	if overdue {
		return Loan{}, fmt.Errorf("%w: overdue books must be returned first", ErrPolicy)
	}

	open, err := s.ledger.CountOpen(memberID)
	if err != nil {
		return Loan{}, err
	}
	if open >= policy.MaxBorrow {
		return Loan{}, fmt.Errorf("%w: borrowing limit reached", ErrPolicy)
	}

	book, err := s.catalog.FindByISBN(isbn)
	if err != nil {
		return Loan{}, err
	}
	if book.OnLoan {
		return Loan{}, fmt.Errorf("%w: book %s is not available", ErrPolicy, isbn)
	}

	if err := s.catalog.SetAvailability(isbn, true); err != nil {
		return Loan{}, err
	}
	return s.ledger.OpenLoan(memberID, isbn, book.Title, s.now(), policy.LoanDays)
}

// Return closes the member's open loan on the ISBN and restores availability
// on every book row carrying it. Returning twice fails the second time: the
// close is terminal.
func (s *LibraryService) Return(memberID, isbn string) error {
	found, err := s.ledger.CloseLoan(memberID, isbn)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: no active loan for book %s", ErrNotFound, isbn)
	}
	return s.catalog.SetAvailability(isbn, false)
}

// ReserveHold places a hold on a book that is available and not already
// held. Holds never grant borrowing priority and are never consumed; they
// only disappear when the member or the book is removed.
func (s *LibraryService) ReserveHold(memberID, isbn string) (Reservation, error) {
	book, err := s.catalog.FindByISBN(isbn)
	if err != nil {
		return Reservation{}, err
	}
	if book.OnLoan || book.Held {
		return Reservation{}, fmt.Errorf("%w: book %s is not available for reservation", ErrPolicy, isbn)
	}
	if err := s.catalog.SetReservationHeld(isbn, true); err != nil {
		return Reservation{}, err
	}
	return s.reservations.Reserve(memberID, isbn, book.Title, s.now())
}

// CalculateFine returns the member's outstanding fine under their role's
// policy.
func (s *LibraryService) CalculateFine(memberID string) (float64, error) {
	member, err := s.members.FindByID(memberID)
	if err != nil {
		return 0, err
	}
	return s.ledger.OutstandingFine(memberID, PolicyFor(member.Role), s.now())
}

// AddMember registers a member. Identifier uniqueness is not checked; see
// MembershipRepository.Add.
func (s *LibraryService) AddMember(m Member) error {
	switch m.Role {
	case RoleStudent, RoleFaculty, RoleLibrarian:
	default:
		return fmt.Errorf("%w: unknown role %d", ErrValidation, m.Role)
	}
	return s.members.Add(m)
}

// UpdateMemberField edits a member's name or secret.
func (s *LibraryService) UpdateMemberField(id string, field int, value string) error {
	return s.members.UpdateField(id, field, value)
}

// RemoveMember deletes a member and cascades: open loans are force-closed,
// the books they held become available again, the member's holds are
// deleted, and finally the member rows go.
func (s *LibraryService) RemoveMember(id string) error {
	if _, err := s.members.FindByID(id); err != nil {
		return err
	}
	isbns, err := s.ledger.CloseAllForMember(id)
	if err != nil {
		return err
	}
	if err := s.catalog.MarkAvailable(isbns); err != nil {
		return err
	}
	if err := s.reservations.RemoveByMember(id); err != nil {
		return err
	}
	return s.members.Remove(id)
}

// AddBook adds a catalog entry, clear of both flags.
func (s *LibraryService) AddBook(b Book) error {
	b.OnLoan = false
	b.Held = false
	return s.catalog.Add(b)
}

// UpdateBookField edits a book's title, author, or publisher.
func (s *LibraryService) UpdateBookField(isbn string, field int, value string) error {
	return s.catalog.UpdateField(isbn, field, value)
}

// RemoveBook deletes a book and cascades: loan rows first, then holds, then
// the catalog rows. No loans are closed by this; the rows referencing the
// ISBN simply go away.
func (s *LibraryService) RemoveBook(isbn string) error {
	if _, err := s.catalog.FindByISBN(isbn); err != nil {
		return err
	}
	if err := s.ledger.RemoveByISBN(isbn); err != nil {
		return err
	}
	if err := s.reservations.RemoveByISBN(isbn); err != nil {
		return err
	}
	return s.catalog.Remove(isbn)
}

// ListAllOpenLoans returns every open loan, for the librarian-wide view.
func (s *LibraryService) ListAllOpenLoans() ([]Loan, error) {
	return s.ledger.ListOpen()
}

// ListReservations returns every hold on record.
func (s *LibraryService) ListReservations() ([]Reservation, error) {
	return s.reservations.List()
}

// ListMemberLoanHistory returns the member's loans, open and closed.
func (s *LibraryService) ListMemberLoanHistory(memberID string) ([]Loan, error) {
	return s.ledger.ListForMember(memberID)
}
