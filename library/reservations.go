package library

import "time"

const (
	rsMember = 0
	rsTitle  = 1
	rsISBN   = 2
	rsTime   = 3
)

// ReservationQueue owns the reservation collection. Holds are append-only:
// nothing fulfills or consumes them, and only the member/book removal
// cascades delete them. Eligibility (book available and not already held) is
// checked by the service before Reserve is called.
type ReservationQueue struct {
	store *RecordStore
}

func NewReservationQueue(store *RecordStore) *ReservationQueue {
	return &ReservationQueue{store: store}
}

// Reserve appends a hold for the book and member.
func (q *ReservationQueue) Reserve(memberID, isbn, bookTitle string, now time.Time) (Reservation, error) {
	res := Reservation{MemberID: memberID, BookTitle: bookTitle, ISBN: isbn, ReservedAt: now}
	if err := q.store.Append(reservationsFile, reservationRow(res)); err != nil {
		return Reservation{}, err
	}
	return res, nil
}

// List returns every hold on record.
func (q *ReservationQueue) List() ([]Reservation, error) {
	if err := q.store.Load(reservationsFile); err != nil {
		return nil, err
	}
	var holds []Reservation
	for _, row := range q.store.Rows() {
		res, err := parseReservationRow(row)
		if err != nil {
			return nil, err
		}
		holds = append(holds, res)
	}
	return holds, nil
}

// RemoveByMember deletes every hold placed by the member.
func (q *ReservationQueue) RemoveByMember(memberID string) error {
	return q.removeMatching(rsMember, memberID)
}

// RemoveByISBN deletes every hold on the book.
func (q *ReservationQueue) RemoveByISBN(isbn string) error {
	return q.removeMatching(rsISBN, isbn)
}

func (q *ReservationQueue) removeMatching(field int, value string) error {
	if err := q.store.Load(reservationsFile); err != nil {
		return err
	}
	kept := q.store.Rows()[:0]
	for _, row := range q.store.Rows() {
		if len(row) > field && row[field] == value {
			continue
		}
		kept = append(kept, row)
	}
	q.store.Replace(kept)
	return q.store.Save(reservationsFile)
}
