package directory

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Employee maps to the employee table. The portal's staff administration
// screens own the full record; this package only reads the fields needed to
// resolve an assignee id into a display name.
type Employee struct {
	ID         uuid.UUID `db:"id" json:"id"`
	FirstName  string    `db:"first_name" json:"first_name"`
	LastName   string    `db:"last_name" json:"last_name"`
	Department *string   `db:"department" json:"department,omitempty"`
	Phone      *string   `db:"phone" json:"phone,omitempty"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// DisplayName returns "First Last", tolerating partially filled records.
func (e *Employee) DisplayName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}
