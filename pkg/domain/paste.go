package domain

import (
	"time"
)

const (
	// DefaultTitle replaces an absent or empty title on create and edit.
	DefaultTitle = "Untitled"

	IDLength    = 10
	TokenLength = 64

	// MaxContentBytes is the hard cap on content size, measured in UTF-8
	// encoded bytes.
	MaxContentBytes = 5 * 1024 * 1024
)

// Paste is the sole stored entity. ID, OwnerToken and CreatedAt are frozen
// once assigned; only Title and Content change through an edit. OwnerToken
// is a bearer credential and never leaves the server in entity form.
type Paste struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	OwnerToken string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// PasteSummary is the listing projection: no content, no token.
type PasteSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}
