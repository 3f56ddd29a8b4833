package chronology

import (
	"time"

	"github.com/google/uuid"
)

// Entry kinds. Treatment and billing entries are generated from imported
// data; note entries are authored by staff.
const (
	KindTreatment = "treatment"
	KindBilling   = "billing"
	KindIncident  = "incident"
	KindLegal     = "legal"
	KindNote      = "note"
)

// Entry maps to the chronology_entries table.
type Entry struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	CaseID     uuid.UUID  `db:"case_id" json:"case_id"`
	Kind       string     `db:"kind" json:"kind"`
	OccurredOn time.Time  `db:"occurred_on" json:"occurred_on"`
	Title      string     `db:"title" json:"title"`
	Detail     *string    `db:"detail" json:"detail,omitempty"`
	Provider   *string    `db:"provider" json:"provider,omitempty"`
	DocumentID *uuid.UUID `db:"document_id" json:"document_id,omitempty"`
	AuthoredBy *string    `db:"authored_by" json:"authored_by,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

func validKind(k string) bool {
	switch k {
	case KindTreatment, KindBilling, KindIncident, KindLegal, KindNote:
		return true
	}
	return false
}
