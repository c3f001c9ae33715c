package domain

type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// ChangeEvent is a row-level change on the orders table. New carries the
// top-level columns known at write time (never the order items); Old carries
// only the identifier of a deleted row.
type ChangeEvent struct {
	Type  ChangeType
	Table string
	New   *Order
	Old   *Order
}

// OrderID returns the identifier of the row the event refers to.
func (e ChangeEvent) OrderID() string {
	if e.Type == ChangeDelete {
		if e.Old != nil {
			return e.Old.ID
		}
		return ""
	}
	if e.New != nil {
		return e.New.ID
	}
	return ""
}
