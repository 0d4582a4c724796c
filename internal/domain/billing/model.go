// Package billing issues bills against patients. A bill is an immutable
// record: line items and the total are fixed at creation and the total is
// always recomputed server-side from the items.
package billing

import (
	"time"

	"github.com/google/uuid"
)

// LineItem is one chargeable entry on a bill. MedicineID is set when the
// item dispenses inventory stock; purely descriptive charges (consultation
// fees, lab work) leave it nil.
type LineItem struct {
	Description string     `json:"description"`
	Quantity    int        `json:"quantity"`
	Price       int64      `json:"price"`
	MedicineID  *uuid.UUID `json:"medicine_id,omitempty"`
}

// Total is the item's contribution to the bill amount.
func (li LineItem) Total() int64 {
	return int64(li.Quantity) * li.Price
}

// Bill maps to the bills table. Items persist as a JSONB document; Amount is
// the sum of the item totals in the smallest currency unit.
type Bill struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	PatientID uuid.UUID  `db:"patient_id" json:"patient_id"`
	Amount    int64      `db:"amount" json:"amount"`
	Items     []LineItem `db:"items" json:"items"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
