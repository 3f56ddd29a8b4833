package documents

import (
	"time"

	"github.com/google/uuid"
)

// Document categories recognized by the intake pipeline. Only billing
// documents feed the bill-extraction flow; everything else is stored
// as-is.
const (
	CategoryBilling        = "billing"
	CategoryMedicalRecord  = "medical_record"
	CategoryCorrespondence = "correspondence"
	CategoryPleading       = "pleading"
	CategoryOther          = "other"
)

// CaseDocument maps to the case_documents table. Content lives inline;
// uploaded documents are small text artifacts (itemized bills, EOBs),
// not imaging.
type CaseDocument struct {
	ID          uuid.UUID `db:"id" json:"id"`
	CaseID      uuid.UUID `db:"case_id" json:"case_id"`
	Name        string    `db:"name" json:"name"`
	Category    string    `db:"category" json:"category"`
	ContentType string    `db:"content_type" json:"content_type"`
	Content     []byte    `db:"content" json:"content,omitempty"`
	SizeBytes   int       `db:"size_bytes" json:"size_bytes"`
	UploadedBy  *string   `db:"uploaded_by" json:"uploaded_by,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

func validCategory(c string) bool {
	switch c {
	case CategoryBilling, CategoryMedicalRecord, CategoryCorrespondence, CategoryPleading, CategoryOther:
		return true
	}
	return false
}
