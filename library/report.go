package library

// defaultDailyFine is the flat rate used for the report's fine estimate,
// matching the student daily rate. Per-member fines go through CalculateFine
// with the member's own policy.
const defaultDailyFine = 10.0

// SummaryReport is the librarian's library-wide status snapshot.
type SummaryReport struct {
	TotalMembers       int
	TotalBooks         int
	AvailableBooks     int
	ActiveLoans        int
	ActiveReservations int
	OutstandingFines   float64
}

// GenerateSummaryReport aggregates counts across the four collections and
// estimates outstanding fines over the open loans at the default daily rate.
func (s *LibraryService) GenerateSummaryReport() (SummaryReport, error) {
	var rep SummaryReport

	members, err := s.members.List()
	if err != nil {
		return SummaryReport{}, err
	}
	rep.TotalMembers = len(members)

	books, err := s.catalog.List()
	if err != nil {
		return SummaryReport{}, err
	}
	rep.TotalBooks = len(books)
	for _, b := range books {
		if !b.OnLoan {
			rep.AvailableBooks++
		}
	}

	open, err := s.ledger.ListOpen()
	if err != nil {
		return SummaryReport{}, err
	}
	rep.ActiveLoans = len(open)
	now := s.now()
	for _, loan := range open {
		rep.OutstandingFines += float64(daysOverdue(loan, now)) * defaultDailyFine
	}

	holds, err := s.reservations.List()
	if err != nil {
		return SummaryReport{}, err
	}
	rep.ActiveReservations = len(holds)

	return rep, nil
}
