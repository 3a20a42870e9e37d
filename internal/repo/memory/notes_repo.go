package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Workflow-Manager-admin/personal-notes-manager/internal/domain/note"
	"github.com/google/uuid"
)

// NotesRepo mirrors the postgres repository semantics: owner-scoped
// lookups, substring search, updated_at ordering with id tie-break.
type NotesRepo struct {
	mu    sync.RWMutex
	items map[string]note.Note
}

func NewNotesRepo() *NotesRepo {
	return &NotesRepo{
		items: make(map[string]note.Note),
	}
}

func (r *NotesRepo) Create(ctx context.Context, ownerID string, req note.CreateNoteRequest) (note.Note, error) {
	now := time.Now().UTC()

	n := note.Note{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
		OwnerID:   ownerID,
	}

	r.mu.Lock()
	r.items[n.ID] = n
	r.mu.Unlock()

	return n, nil
}

func (r *NotesRepo) List(ctx context.Context, ownerID string, filter note.ListNotesFilter) ([]note.Note, error) {
	r.mu.RLock()

	matched := make([]note.Note, 0, len(r.items))

	for _, n := range r.items {
		if n.OwnerID != ownerID {
			continue
		}

		if filter.Query != nil && *filter.Query != "" && !containsFold(n, *filter.Query) {
			continue
		}

		matched = append(matched, n)
	}

	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
		}

		return matched[i].ID > matched[j].ID
	})

	// offset then limit, after filtering and ordering
	if filter.Offset >= len(matched) {
		return []note.Note{}, nil
	}

	matched = matched[filter.Offset:]

	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	return matched, nil
}

func (r *NotesRepo) Get(ctx context.Context, ownerID, id string) (note.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.items[id]

	if !ok || n.OwnerID != ownerID {
		return note.Note{}, note.ErrNotFound
	}

	return n, nil
}

func (r *NotesRepo) Update(ctx context.Context, ownerID, id string, req note.UpdateNoteRequest) (note.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.items[id]

	if !ok || n.OwnerID != ownerID {
		return note.Note{}, note.ErrNotFound
	}

	if req.Title != nil {
		n.Title = *req.Title
	}

	if req.Content != nil {
		n.Content = *req.Content
	}

	n.UpdatedAt = time.Now().UTC()
	r.items[id] = n

	return n, nil
}

func (r *NotesRepo) Delete(ctx context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.items[id]

	if !ok || n.OwnerID != ownerID {
		return note.ErrNotFound
	}

	delete(r.items, id)

	return nil
}

func containsFold(n note.Note, q string) bool {
	q = strings.ToLower(q)

	return strings.Contains(strings.ToLower(n.Title), q) ||
		strings.Contains(strings.ToLower(n.Content), q)
}
