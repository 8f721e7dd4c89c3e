package library

import "time"

const (
	lnMember = 0
	lnTitle  = 1
	lnISBN   = 2
	lnIssued = 3
	lnDue    = 4
	lnClosed = 5
)

const secondsPerDay = 86400

// LoanLedger owns the transaction collection: open-loan counts, overdue
// detection, fine accrual, and the open-to-closed transition.
type LoanLedger struct {
	store *RecordStore
}

func NewLoanLedger(store *RecordStore) *LoanLedger {
	return &LoanLedger{store: store}
}

// HasOverdue reports whether any open loan of the member has been out longer
// than loanDays as of the given instant. Since due = issued + loanDays, this
// is the same as checking asOf against the due date.
func (l *LoanLedger) HasOverdue(memberID string, loanDays int, asOf time.Time) (bool, error) {
	loans, err := l.ListForMember(memberID)
	if err != nil {
		return false, err
	}
	for _, loan := range loans {
		if loan.Closed {
			continue
		}
		daysOut := int((asOf.Unix() - loan.IssuedAt.Unix()) / secondsPerDay)
		if daysOut > loanDays {
			return true, nil
		}
	}
	return false, nil
}

// CountOpen returns the member's number of open loans.
func (l *LoanLedger) CountOpen(memberID string) (int, error) {
	loans, err := l.ListForMember(memberID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, loan := range loans {
		if !loan.Closed {
			count++
		}
	}
	return count, nil
}

// OpenLoan records a new open loan due loanDays after now.
func (l *LoanLedger) OpenLoan(memberID, isbn, bookTitle string, now time.Time, loanDays int) (Loan, error) {
	loan := Loan{
		MemberID:  memberID,
		BookTitle: bookTitle,
		ISBN:      isbn,
		IssuedAt:  now,
		DueAt:     now.Add(time.Duration(loanDays) * 24 * time.Hour),
	}
	if err := l.store.Append(transactionsFile, loanRow(loan)); err != nil {
		return Loan{}, err
	}
	return loan, nil
}

// CloseLoan flips the first open loan matching member and ISBN to closed and
// reports whether a match was found. Closed is terminal.
func (l *LoanLedger) CloseLoan(memberID, isbn string) (bool, error) {
	if err := l.store.Load(transactionsFile); err != nil {
		return false, err
	}
	for _, row := range l.store.Rows() {
		if len(row) > lnClosed && row[lnMember] == memberID && row[lnISBN] == isbn && !parseFlag(row[lnClosed]) {
			row[lnClosed] = flag(true)
			return true, l.store.Save(transactionsFile)
		}
	}
	return false, nil
}

// OutstandingFine sums the accrued fine over the member's open loans as of
// the given instant. Roles whose policy charges no fines always owe zero.
func (l *LoanLedger) OutstandingFine(memberID string, p Policy, asOf time.Time) (float64, error) {
	if !p.ChargesFines {
		return 0, nil
	}
	loans, err := l.ListForMember(memberID)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, loan := range loans {
		if loan.Closed {
			continue
		}
		daysOverdue := int((asOf.Unix() - loan.DueAt.Unix()) / secondsPerDay)
		if daysOverdue > 0 {
			total += float64(daysOverdue) * p.DailyFine
		}
	}
	return total, nil
}

// ListOpen returns every open loan in the ledger.
func (l *LoanLedger) ListOpen() ([]Loan, error) {
	loans, err := l.list()
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

// ListForMember returns the member's full loan history, open and closed.
func (l *LoanLedger) ListForMember(memberID string) ([]Loan, error) {
	loans, err := l.list()
	if err != nil {
		return nil, err
	}
	var mine []Loan
	for _, loan := range loans {
		if loan.MemberID == memberID {
			mine = append(mine, loan)
		}
	}
	return mine, nil
}

func (l *LoanLedger) list() ([]Loan, error) {
	if err := l.store.Load(transactionsFile); err != nil {
		return nil, err
	}
	var loans []Loan
	for _, row := range l.store.Rows() {
		loan, err := parseLoanRow(row)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, nil
}

// CloseAllForMember force-closes every open loan of the member and returns
// the ISBNs that were out, so the caller can restore their availability.
func (l *LoanLedger) CloseAllForMember(memberID string) ([]string, error) {
	if err := l.store.Load(transactionsFile); err != nil {
		return nil, err
	}
	var isbns []string
	for _, row := range l.store.Rows() {
		if len(row) > lnClosed && row[lnMember] == memberID && !parseFlag(row[lnClosed]) {
			row[lnClosed] = flag(true)
			isbns = append(isbns, row[lnISBN])
		}
	}
	if err := l.store.Save(transactionsFile); err != nil {
		return nil, err
	}
	return isbns, nil
}

// RemoveByISBN deletes every loan row, open or closed, for the ISBN.
func (l *LoanLedger) RemoveByISBN(isbn string) error {
	if err := l.store.Load(transactionsFile); err != nil {
		return err
	}
	kept := l.store.Rows()[:0]
	for _, row := range l.store.Rows() {
		if len(row) > lnISBN && row[lnISBN] == isbn {
			continue
		}
		kept = append(kept, row)
	}
	l.store.Replace(kept)
	return l.store.Save(transactionsFile)
}

// daysOverdue is zero for loans not yet due.
func daysOverdue(l Loan, asOf time.Time) int {
	days := int((asOf.Unix() - l.DueAt.Unix()) / secondsPerDay)
	if days < 0 {
		return 0
	}
	return days
}
