package domain

// ChangeType identifies the kind of mutation a change event describes.
type ChangeType string

const (
	ChangeInsert ChangeType = "insert"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// Change is the wire shape of a single change event on the owner's
// live feed. Insert and update carry the full new record; delete
// carries only the old id.
type Change struct {
	Type  ChangeType `json:"type"`
	New   *Bookmark  `json:"new,omitempty"`
	OldID string     `json:"old_id,omitempty"`
}
