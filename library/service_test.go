package library

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEpoch = time.Unix(1_700_000_000, 0)

func newService(t *testing.T) *LibraryService {
	t.Helper()
	svc, err := NewLibraryService(t.TempDir())
	require.NoError(t, err)
	svc.now = func() time.Time { return testEpoch }
	return svc
}

func setClock(svc *LibraryService, at time.Time) {
	svc.now = func() time.Time { return at }
}

func addStudent(t *testing.T, svc *LibraryService, id string) {
	t.Helper()
	require.NoError(t, svc.AddMember(Member{Name: "Student " + id, ID: id, Secret: "pw", Role: RoleStudent}))
}

func addFaculty(t *testing.T, svc *LibraryService, id string) {
	t.Helper()
	require.NoError(t, svc.AddMember(Member{Name: "Faculty " + id, ID: id, Secret: "pw", Role: RoleFaculty}))
}

func addBook(t *testing.T, svc *LibraryService, isbn, title string) {
	t.Helper()
	require.NoError(t, svc.AddBook(Book{Title: title, Author: "Author", ISBN: isbn, Publisher: "Pub"}))
}

// requireAvailabilityConsistent asserts that a book is on loan exactly when
// one open loan references its ISBN.
func requireAvailabilityConsistent(t *testing.T, svc *LibraryService) {
	t.Helper()
	books, err := svc.catalog.List()
	require.NoError(t, err)
	open, err := svc.ledger.ListOpen()
	require.NoError(t, err)

	openByISBN := make(map[string]int)
	for _, l := range open {
		openByISBN[l.ISBN]++
	}
	for _, b := range books {
		if b.OnLoan {
			assert.Equal(t, 1, openByISBN[b.ISBN], "book %s marked on loan", b.ISBN)
		} else {
			assert.Zero(t, openByISBN[b.ISBN], "book %s marked available", b.ISBN)
		}
	}
}

func TestBorrowCreatesLoanWithRoleDuration(t *testing.T) {
	svc := newService(t)
	addStudent(t, svc, "S1")
	addBook(t, svc, "111", "1984")

	loan, err := svc.Borrow("S1", "111")
	require.NoError(t, err)

	assert.True(t, loan.IssuedAt.Equal(testEpoch))
	assert.True(t, loan.DueAt.Equal(testEpoch.Add(15*24*time.Hour)), "student loans run 15 days")

	book, err := svc.FindBook("111")
	require.NoError(t, err)
	assert.True(t, book.OnLoan)
	requireAvailabilityConsistent(t, svc)
}

func TestBorrowEnforcesQuota(t *testing.T) {
	svc := newService(t)
	addStudent(t, svc, "S1")
	for _, isbn := range []string{"111", "222", "333", "444"} {
		addBook(t, svc, isbn, "Book "+isbn)
	}

	for _, isbn := range []string{"111", "222", "333"} {
		_, err := svc.Borrow("S1", isbn)
		require.NoError(t, err)
	}

	_, err := svc.Borrow("S1", "444")
	require.ErrorIs(t, err, ErrPolicy)

	open, err := svc.ledger.CountOpen("S1")
	require.NoError(t, err)
	assert.Equal(t, 3, open)
}

func TestBorrowRejectsOverdueMember(t *testing.T) {
	svc := newService(t)
	addStudent(t, svc, "S1")
	addBook(t, svc, "111", "1984")
	addBook(t, svc, "222", "Animal Farm")

	_, err := svc.Borrow("S1", "111")
	require.NoError(t, err)

	// 16 days out on a 15-day loan blocks any further borrowing.
	setClock(svc, testEpoch.Add(16*24*time.Hour))
	_, err = svc.Borrow("S1", "222")
	require.ErrorIs(t, err, ErrPolicy)
}

func TestBorrowDistinguishesMissingFromUnavailable(t *testing.T) {
	svc := newService(t)
	addStudent(t, svc, "S1")
	addStudent(t, svc, "S2")
	addBook(t, svc, "111", "1984")

	_, err := svc.Borrow("S1", "999")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Borrow("S1", "111")
	require.NoError(t, err)

	_, err = svc.Borrow("S2", "111")
	require.ErrorIs(t, err, ErrPolicy)
}

func TestBorrowByLibrarianFailsQuotaGate(t *testing.T) {
	svc := newService(t)
	require.NoError(t, svc.AddMember(Member{Name: "Admin", ID: "L1", Secret: "pw", Role: RoleLibrarian}))
	addBook(t, svc, "111", "1984")

	_, err := svc.Borrow("L1", "111")
	require.ErrorIs(t, err, ErrPolicy)
}

func TestReturnIsTerminal(t *testing.T) {
	svc := newService(t)
	addStudent(t, svc, "S1")
	addBook(t, svc, "111", "1984")

	_, err := svc.Borrow("S1", "111")
	require.NoError(t, err)

	require.NoError(t, svc.Return("S1", "111"))

	book, err := svc.FindBook("111")
	require.NoError(t, err)
	assert.False(t, book.OnLoan)
	requireAvailabilityConsistent(t, svc)

	// The close is terminal; a second return finds no open loan.
	err = svc.Return("S1", "111")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestBorrowReturnSequenceKeepsAvailabilityConsistent(t *testing.T) {
	svc := newService(t)
	addStudent(t, svc, "S1")
	addFaculty(t, svc, "F1")
	addBook(t, svc, "111", "1984")
	addBook(t, svc, "222", "Animal Farm")

	_, err := svc.Borrow("S1", "111")
	require.NoError(t, err)
	requireAvailabilityConsistent(t, svc)

	_, err = svc.Borrow("F1", "222")
	require.NoError(t, err)
	requireAvailabilityConsistent(t, svc)

	require.NoError(t, svc.Return("S1", "111"))
	requireAvailabilityConsistent(t, svc)

	_, err = svc.Borrow("F1", "111")
	require.NoError(t, err)
	requireAvailabilityConsistent(t, svc)

	require.NoError(t, svc.Return("F1", "111"))
	require.NoError(t, svc.Return("F1", "222"))
	requireAvailabilityConsistent(t, svc)
}

func TestStudentFineAccrual(t *testing.T) {
	svc := newService(t)
	addStudent(t, svc, "S1")
	addBook(t, svc, "111", "1984")

	_, err := svc.Borrow("S1", "111")
	require.NoError(t, err)

	// Due after 15 days; 35 days out means 20 days overdue at 10.0/day.
	setClock(svc, testEpoch.Add(35*24*time.Hour))
	fine, err := svc.CalculateFine("S1")
	require.NoError(t, err)
	assert.InDelta(t, 200.0, fine, 1e-9)
}

func TestFacultyAccruesNoFine(t *testing.T) {
	svc := newService(t)
	addFaculty(t, svc, "F1")
	addBook(t, svc, "111", "1984")

	_, err := svc.Borrow("F1", "111")
	require.NoError(t, err)

	setClock(svc, testEpoch.Add(100*24*time.Hour))
	fine, err := svc.CalculateFine("F1")
	require.NoError(t, err)
	assert.Zero(t, fine)
}

func TestFineIsMonotonicInTime(t *testing.T) {
	svc := newService(t)
	addStudent(t, svc, "S1")
	addBook(t, svc, "111", "1984")
	addBook(t, svc, "222", "Animal Farm")

	_, err := svc.Borrow("S1", "111")
	require.NoError(t, err)
	_, err = svc.Borrow("S1", "222")
	require.NoError(t, err)

	policy := PolicyFor(RoleStudent)
	prev := -1.0
	for days := 0; days <= 60; days += 5 {
		fine, err := svc.ledger.OutstandingFine("S1", policy, testEpoch.Add(time.Duration(days)*24*time.Hour))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, fine, prev, "fine decreased at day %d", days)
		prev = fine
	}
}

func TestReserveHoldMarksBook(t *testing.T) {
	svc := newService(t)
	addStudent(t, svc, "S1")
	addBook(t, svc, "111", "1984")

	res, err := svc.ReserveHold("S1", "111")
	require.NoError(t, err)
	assert.Equal(t, "1984", res.BookTitle)
	assert.True(t, res.ReservedAt.Equal(testEpoch))

	book, err := svc.FindBook("111")
	require.NoError(t, err)
	assert.True(t, book.Held)
	assert.False(t, book.OnLoan, "a hold does not take the book off the shelf")
}

func TestReserveHeldBookRejected(t *testing.T) {
	svc := newService(t)
	addStudent(t, svc, "S1")
	addFaculty(t, svc, "F1")
	addBook(t, svc, "111", "1984")

	_, err := svc.ReserveHold("S1", "111")
	require.NoError(t, err)

	_, err = svc.ReserveHold("F1", "111")
	require.ErrorIs(t, err, ErrPolicy)

	holds, err := svc.ListReservations()
	require.NoError(t, err)
	assert.Len(t, holds, 1, "rejected hold must not create a row")
}

func TestReserveOnLoanBookRejected(t *testing.T) {
	svc := newService(t)
	addStudent(t, svc, "S1")
	addFaculty(t, svc, "F1")
	addBook(t, svc, "111", "1984")

	_, err := svc.Borrow("S1", "111")
	require.NoError(t, err)

	_, err = svc.ReserveHold("F1", "111")
	require.ErrorIs(t, err, ErrPolicy)
}

func TestHeldBookCanStillBeBorrowed(t *testing.T) {
	svc := newService(t)
	addStudent(t, svc, "S1")
	addFaculty(t, svc, "F1")
	addBook(t, svc, "111", "1984")

	_, err := svc.ReserveHold("S1", "111")
	require.NoError(t, err)

	// Holds never gate borrowing, not even for other members.
	_, err = svc.Borrow("F1", "111")
	require.NoError(t, err)
}

func TestRemoveMemberCascade(t *testing.T) {
	svc := newService(t)
	addStudent(t, svc, "S1")
	addBook(t, svc, "222", "Animal Farm")
	addBook(t, svc, "333", "The Art of War")

	_, err := svc.Borrow("S1", "222")
	require.NoError(t, err)
	_, err = svc.ReserveHold("S1", "333")
	require.NoError(t, err)

	require.NoError(t, svc.RemoveMember("S1"))

	book, err := svc.FindBook("222")
	require.NoError(t, err)
	assert.False(t, book.OnLoan, "force-closed loan restores availability")

	open, err := svc.ListAllOpenLoans()
	require.NoError(t, err)
	assert.Empty(t, open)

	holds, err := svc.ListReservations()
	require.NoError(t, err)
	assert.Empty(t, holds)

	_, err = svc.members.FindByID("S1")
	require.ErrorIs(t, err, ErrNotFound)

	// Loan history survives, force-closed; only the member row is gone.
	history, err := svc.ListMemberLoanHistory("S1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Closed)
}

func TestRemoveMemberNotFound(t *testing.T) {
	svc := newService(t)
	require.ErrorIs(t, svc.RemoveMember("ghost"), ErrNotFound)
}

func TestRemoveBookCascade(t *testing.T) {
	svc := newService(t)
	addStudent(t, svc, "S1")
	addFaculty(t, svc, "F1")
	addBook(t, svc, "111", "1984")

	_, err := svc.ReserveHold("F1", "111")
	require.NoError(t, err)
	_, err = svc.Borrow("S1", "111")
	require.NoError(t, err)

	require.NoError(t, svc.RemoveBook("111"))

	_, err = svc.FindBook("111")
	require.ErrorIs(t, err, ErrNotFound)

	history, err := svc.ListMemberLoanHistory("S1")
	require.NoError(t, err)
	assert.Empty(t, history, "no loan row may reference a removed ISBN")

	holds, err := svc.ListReservations()
	require.NoError(t, err)
	assert.Empty(t, holds)
}

func TestRemoveBookNotFound(t *testing.T) {
	svc := newService(t)
	require.ErrorIs(t, svc.RemoveBook("999"), ErrNotFound)
}

func TestLoginDistinguishesAuthFromLookup(t *testing.T) {
	svc := newService(t)
	addStudent(t, svc, "S1")

	member, err := svc.Login("S1", "pw")
	require.NoError(t, err)
	assert.Equal(t, RoleStudent, member.Role)

	// Correct id, wrong secret: an authentication failure, not a lookup miss.
	_, err = svc.Login("S1", "wrong")
	require.ErrorIs(t, err, ErrAuthentication)
	require.NotErrorIs(t, err, ErrNotFound)

	_, err = svc.Login("ghost", "pw")
	require.ErrorIs(t, err, ErrAuthentication)
}

func TestListMyLoansShowsOnlyOpen(t *testing.T) {
	svc := newService(t)
	addStudent(t, svc, "S1")
	addBook(t, svc, "111", "1984")
	addBook(t, svc, "222", "Animal Farm")

	_, err := svc.Borrow("S1", "111")
	require.NoError(t, err)
	_, err = svc.Borrow("S1", "222")
	require.NoError(t, err)
	require.NoError(t, svc.Return("S1", "111"))

	open, err := svc.ListMyLoans("S1")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "222", open[0].ISBN)

	history, err := svc.ListMemberLoanHistory("S1")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestAddMemberRejectsUnknownRole(t *testing.T) {
	svc := newService(t)
	err := svc.AddMember(Member{Name: "X", ID: "X1", Secret: "pw", Role: Role(9)})
	require.ErrorIs(t, err, ErrValidation)
}

func TestGenerateSummaryReport(t *testing.T) {
	svc := newService(t)
	addStudent(t, svc, "S1")
	addFaculty(t, svc, "F1")
	addBook(t, svc, "111", "1984")
	addBook(t, svc, "222", "Animal Farm")
	addBook(t, svc, "333", "The Art of War")

	_, err := svc.Borrow("S1", "111")
	require.NoError(t, err)
	_, err = svc.ReserveHold("F1", "222")
	require.NoError(t, err)

	// 25 days out on a 15-day loan: 10 days overdue at the flat rate.
	setClock(svc, testEpoch.Add(25*24*time.Hour))
	rep, err := svc.GenerateSummaryReport()
	require.NoError(t, err)

	assert.Equal(t, 2, rep.TotalMembers)
	assert.Equal(t, 3, rep.TotalBooks)
	assert.Equal(t, 2, rep.AvailableBooks)
	assert.Equal(t, 1, rep.ActiveLoans)
	assert.Equal(t, 1, rep.ActiveReservations)
	assert.InDelta(t, 100.0, rep.OutstandingFines, 1e-9)
}
