package library

import "fmt"

// Field selectors accepted by MembershipRepository.UpdateField.
const (
	MemberFieldName   = 1
	MemberFieldSecret = 2
)

const (
	usrName   = 0
	usrID     = 1
	usrSecret = 2
	usrRole   = 3
)

// MembershipRepository owns the user collection.
type MembershipRepository struct {
	store *RecordStore
}

func NewMembershipRepository(store *RecordStore) *MembershipRepository {
	return &MembershipRepository{store: store}
}

// FindByCredentials matches id and secret against the stored rows. Secrets
// are compared in plain text. Any miss, including a known id with the wrong
// secret, reports an authentication failure rather than a lookup miss.
func (r *MembershipRepository) FindByCredentials(id, secret string) (Member, error) {
	if err := r.store.Load(usersFile); err != nil {
		return Member{}, err
	}
	for _, row := range r.store.Rows() {
		if len(row) > usrRole && row[usrID] == id && row[usrSecret] == secret {
			return parseMemberRow(row)
		}
	}
	return Member{}, fmt.Errorf("%w: invalid id or secret", ErrAuthentication)
}

// FindByID returns the first member with the given id.
func (r *MembershipRepository) FindByID(id string) (Member, error) {
	if err := r.store.Load(usersFile); err != nil {
		return Member{}, err
	}
	for _, row := range r.store.Rows() {
		if len(row) > usrID && row[usrID] == id {
			return parseMemberRow(row)
		}
	}
	return Member{}, fmt.Errorf("%w: member %s", ErrNotFound, id)
}

// List returns every registered member.
func (r *MembershipRepository) List() ([]Member, error) {
	if err := r.store.Load(usersFile); err != nil {
		return nil, err
	}
	var members []Member
	for _, row := range r.store.Rows() {
		m, err := parseMemberRow(row)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, nil
}

// Add appends a member row. Identifier uniqueness is not enforced: a second
// row with the same id is accepted, and lookups resolve to the first match.
// Known gap, kept rather than silently validated away.
func (r *MembershipRepository) Add(m Member) error {
	return r.store.Append(usersFile, memberRow(m))
}

// UpdateField edits the name or secret of the first row matching the id.
func (r *MembershipRepository) UpdateField(id string, field int, value string) error {
	var pos int
	switch field {
	case MemberFieldName:
		pos = usrName
	case MemberFieldSecret:
		pos = usrSecret
	default:
		return fmt.Errorf("%w: member field selector %d", ErrValidation, field)
	}

	if err := r.store.Load(usersFile); err != nil {
		return err
	}
	for _, row := range r.store.Rows() {
		if len(row) > usrRole && row[usrID] == id {
			row[pos] = value
			return r.store.Save(usersFile)
		}
	}
	return fmt.Errorf("%w: member %s", ErrNotFound, id)
}

// Remove deletes every row matching the id. Loan and reservation cleanup is
// the service cascade's job.
func (r *MembershipRepository) Remove(id string) error {
	if err := r.store.Load(usersFile); err != nil {
		return err
	}
	kept := r.store.Rows()[:0]
	removed := false
	for _, row := range r.store.Rows() {
		if len(row) > usrID && row[usrID] == id {
			removed = true
			continue
		}
		kept = append(kept, row)
	}
	if !removed {
		return fmt.Errorf("%w: member %s", ErrNotFound, id)
	}
	r.store.Replace(kept)
	return r.store.Save(usersFile)
}
