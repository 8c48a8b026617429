package domain

import "time"

// Bookmark represents a single saved URL belonging to one owner.
// Every operation on a bookmark is scoped to its owner; a bookmark
// is never visible to, or mutable by, any other identity.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the canonical unique identifier.
	// Server-assigned on insert; optimistic items carry a temporary
	// id (see reconcile package) until the server confirms.
	ID string `json:"id"`

	// Owner is the authenticated identity the bookmark belongs to.
	Owner string `json:"owner_id"`

	// ─────────────────────────────
	// Content (mutable, replaced as a pair)
	// ─────────────────────────────

	// Title is the display title. Trimmed, 1-120 characters.
	Title string `json:"title"`

	// URL is the canonical absolute http/https URL.
	URL string `json:"url"`

	// ─────────────────────────────
	// Metadata
	// ─────────────────────────────

	// CreatedAt is set once on insert and drives list ordering
	// (newest first).
	CreatedAt time.Time `json:"created_at"`
}
