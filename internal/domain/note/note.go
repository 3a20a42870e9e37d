package note

import (
	"errors"
	"time"
)

type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	OwnerID   string    `json:"ownerId"`
}

// ErrNotFound covers both a genuinely absent note and a note owned by
// someone else. Repositories check id and owner in one predicate so an
// ownership miss never leaks that the id exists.
var ErrNotFound = errors.New("note not found")

type CreateNoteRequest struct {
	Title   string `json:"title" binding:"required,max=128"`
	Content string `json:"content"`
}

// Partial update: nil pointers mean "leave the field alone".
type UpdateNoteRequest struct {
	Title   *string `json:"title" binding:"omitempty,max=128"`
	Content *string `json:"content"`
}

// Query is nil when the caller wants everything.
type ListNotesFilter struct {
	Query  *string
	Limit  int
	Offset int
}
