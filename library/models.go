package library

import (
	"fmt"
	"strconv"
	"time"
)

// Role classifies a member and selects their borrowing policy and menu set.
type Role int

const (
	RoleStudent Role = iota + 1
	RoleFaculty
	RoleLibrarian
)

// ParseRole maps a stored role code to a Role.
func ParseRole(code string) (Role, error) {
	switch code {
	case "1":
		return RoleStudent, nil
	case "2":
		return RoleFaculty, nil
	case "3":
		return RoleLibrarian, nil
	}
	return 0, fmt.Errorf("%w: unknown role code %q", ErrValidation, code)
}

func (r Role) String() string {
	switch r {
	case RoleStudent:
		return "Student"
	case RoleFaculty:
		return "Faculty"
	case RoleLibrarian:
		return "Librarian"
	}
	return "Unknown"
}

func (r Role) code() string { return strconv.Itoa(int(r)) }

// Policy holds the per-role borrowing rules. Behavior differences between
// roles live here, not in per-role code paths.
type Policy struct {
	MaxBorrow    int
	LoanDays     int
	DailyFine    float64
	ChargesFines bool
}

// PolicyFor returns the borrowing policy for a role. Faculty loans accrue no
// fines. Librarians have no borrowing capability, so their quota is zero and
// a direct borrow attempt fails the quota gate.
func PolicyFor(r Role) Policy {
	switch r {
	case RoleStudent:
		return Policy{MaxBorrow: 3, LoanDays: 15, DailyFine: 10.0, ChargesFines: true}
	case RoleFaculty:
		return Policy{MaxBorrow: 10, LoanDays: 60}
	default:
		return Policy{}
	}
}

// Member is a registered library user. Secret is stored and compared in plain
// text; hardening the credential scheme is deliberately out of scope.
type Member struct {
	Name   string
	ID     string
	Secret string
	Role   Role
}

// Book is a catalog entry. OnLoan and Held are independent flags: a book can
// be on loan and held, or available and held.
type Book struct {
	Title     string
	Author    string
	ISBN      string
	Publisher string
	OnLoan    bool
	Held      bool
}

// Loan is one borrow transaction. BookTitle is a denormalized snapshot of the
// book's title at issue time, kept in sync when the catalog title changes.
// A closed loan is terminal; loans are never reopened.
type Loan struct {
	MemberID  string
	BookTitle string
	ISBN      string
	IssuedAt  time.Time
	DueAt     time.Time
	Closed    bool
}

// Reservation is a hold placed on a book. Holds are create-only: nothing
// consumes them and they grant no priority at borrow time. Only removing the
// member or the book clears them.
type Reservation struct {
	MemberID   string
	BookTitle  string
	ISBN       string
	ReservedAt time.Time
}

// ---------------------------------------------------------------------------
// Row conversion
//
// Record layouts are positional:
//
//	users.csv        name, id, secret, roleCode
//	books.csv        title, author, isbn, publisher, onLoan, held
//	transactions.csv memberId, bookTitle, isbn, issuedAt, dueAt, closed
//	reservations.csv memberId, bookTitle, isbn, reservedAt
//
// Flags are "0"/"1", timestamps are epoch seconds.
// ---------------------------------------------------------------------------

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func parseFlag(s string) bool { return s == "1" }

func epoch(t time.Time) string { return strconv.FormatInt(t.Unix(), 10) }

func parseEpoch(s string) (time.Time, error) {
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad timestamp %q", ErrValidation, s)
	}
	return time.Unix(secs, 0), nil
}

func memberRow(m Member) []string {
	return []string{m.Name, m.ID, m.Secret, m.Role.code()}
}

func parseMemberRow(row []string) (Member, error) {
	if len(row) < 4 {
		return Member{}, fmt.Errorf("%w: short member record", ErrValidation)
	}
	role, err := ParseRole(row[3])
	if err != nil {
		return Member{}, err
	}
	return Member{Name: row[0], ID: row[1], Secret: row[2], Role: role}, nil
}

func bookRow(b Book) []string {
	return []string{b.Title, b.Author, b.ISBN, b.Publisher, flag(b.OnLoan), flag(b.Held)}
}

func parseBookRow(row []string) (Book, error) {
	if len(row) < 6 {
		return Book{}, fmt.Errorf("%w: short book record", ErrValidation)
	}
	return Book{
		Title:     row[0],
		Author:    row[1],
		ISBN:      row[2],
		Publisher: row[3],
		OnLoan:    parseFlag(row[4]),
		Held:      parseFlag(row[5]),
	}, nil
}

func loanRow(l Loan) []string {
	return []string{l.MemberID, l.BookTitle, l.ISBN, epoch(l.IssuedAt), epoch(l.DueAt), flag(l.Closed)}
}

func parseLoanRow(row []string) (Loan, error) {
	if len(row) < 6 {
		return Loan{}, fmt.Errorf("%w: short loan record", ErrValidation)
	}
	issued, err := parseEpoch(row[3])
	if err != nil {
		return Loan{}, err
	}
	due, err := parseEpoch(row[4])
	if err != nil {
		return Loan{}, err
	}
	return Loan{
		MemberID:  row[0],
		BookTitle: row[1],
		ISBN:      row[2],
		IssuedAt:  issued,
		DueAt:     due,
		Closed:    parseFlag(row[5]),
	}, nil
}

func reservationRow(r Reservation) []string {
	return []string{r.MemberID, r.BookTitle, r.ISBN, epoch(r.ReservedAt)}
}

func parseReservationRow(row []string) (Reservation, error) {
	if len(row) < 4 {
		return Reservation{}, fmt.Errorf("%w: short reservation record", ErrValidation)
	}
	reserved, err := parseEpoch(row[3])
	if err != nil {
		return Reservation{}, err
	}
	return Reservation{MemberID: row[0], BookTitle: row[1], ISBN: row[2], ReservedAt: reserved}, nil
}
