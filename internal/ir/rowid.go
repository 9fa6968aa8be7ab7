package ir

import "strconv"

// RowID is the identity of a persisted record: either New (not yet stored)
// or Assigned by the backend.
type RowID struct {
	id       int64
	assigned bool
}

// NewRowID returns the identity of a record that has not been persisted.
func NewRowID() RowID {
	return RowID{}
}

// AssignedRowID returns a backend-assigned identity.
func AssignedRowID(id int64) RowID {
	return RowID{id: id, assigned: true}
}

// Get returns the identifier and whether it has been assigned.
func (r RowID) Get() (int64, bool) {
	return r.id, r.assigned
}

// IsNew reports whether the identity is still unassigned.
func (r RowID) IsNew() bool {
	return !r.assigned
}

func (r RowID) String() string {
	if !r.assigned {
		return "new"
	}
	return strconv.FormatInt(r.id, 10)
}
