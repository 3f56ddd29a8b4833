package cases

import (
	"time"

	"github.com/google/uuid"
)

// Case statuses. A case moves open -> settled/closed; archived cases keep
// their data but reject new billing activity.
const (
	StatusOpen     = "open"
	StatusSettled  = "settled"
	StatusClosed   = "closed"
	StatusArchived = "archived"
)

// Case maps to the cases table.
type Case struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	CaseNumber    string     `db:"case_number" json:"case_number"`
	Title         string     `db:"title" json:"title"`
	ClientName    string     `db:"client_name" json:"client_name"`
	MatterType    string     `db:"matter_type" json:"matter_type"`
	Status        string     `db:"status" json:"status"`
	OpposingParty *string    `db:"opposing_party" json:"opposing_party,omitempty"`
	Jurisdiction  *string    `db:"jurisdiction" json:"jurisdiction,omitempty"`
	LeadAttorney  *string    `db:"lead_attorney" json:"lead_attorney,omitempty"`
	IncidentDate  *time.Time `db:"incident_date" json:"incident_date,omitempty"`
	OpenedAt      time.Time  `db:"opened_at" json:"opened_at"`
	ClosedAt      *time.Time `db:"closed_at" json:"closed_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Active reports whether the case still accepts billing activity.
func (c *Case) Active() bool {
	return c.Status == StatusOpen
}

func validStatus(s string) bool {
	switch s {
	case StatusOpen, StatusSettled, StatusClosed, StatusArchived:
		return true
	}
	return false
}
