package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditModel provides the persistence fields shared by append-only audit rows.
type AuditModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
}

// ensureID assigns a fresh id when the domain object did not carry one
func ensureID(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}
