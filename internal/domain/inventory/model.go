// Package inventory tracks the clinic's medicine catalog: stock counts and
// unit prices. Stock never goes negative; prices are integer amounts in the
// smallest currency unit.
package inventory

import (
	"time"

	"github.com/google/uuid"
)

// Medicine maps to the medicines table. Name is unique across the catalog.
type Medicine struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Stock     int       `db:"stock" json:"stock"`
	Price     int64     `db:"price" json:"price"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
