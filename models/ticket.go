package models

import (
	"time"

	"github.com/google/uuid"
)

// StoredFile describes one uploaded object attached to a Ticket.
type StoredFile struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"type"`
}

// Ticket represents one design-request submission. Tickets are written once
// at intake and never updated; the ref is the only external lookup key.
type Ticket struct {
	ID          uuid.UUID    `json:"id"`
	Ref         string       `json:"ref"`
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	Phone       string       `json:"phone"`
	Qty         *int         `json:"qty,omitempty"`
	Description string       `json:"description"`
	Files       []StoredFile `json:"files"`
	CreatedAt   time.Time    `json:"created_at"`

	// Provenance metadata, captured at submission time and never serialized
	// on read paths.
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}
