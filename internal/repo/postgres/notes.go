package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Workflow-Manager-admin/personal-notes-manager/internal/domain/note"
	"github.com/Workflow-Manager-admin/personal-notes-manager/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotesRepo struct {
	pool    *pgxpool.Pool
	metrics *observability.Prom
}

func NewNotesRepo(pool *pgxpool.Pool, metrics *observability.Prom) *NotesRepo {
	return &NotesRepo{pool: pool, metrics: metrics}
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

	err := r.metrics.ObserveDB("notes.create", func() error {
		_, execErr := r.pool.Exec(ctx,
			`INSERT INTO notes (id, title, content, created_at, updated_at, owner_id)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			n.ID, n.Title, n.Content, n.CreatedAt, n.UpdatedAt, n.OwnerID,
		)

		return execErr
	})

	if err != nil {
		return note.Note{}, err
	}

	return n, nil
}

// List returns the owner's notes, most recently touched first. A query
// filters on title or content as a case-insensitive substring.
func (r *NotesRepo) List(ctx context.Context, ownerID string, filter note.ListNotesFilter) ([]note.Note, error) {
	query := `SELECT id, title, content, created_at, updated_at, owner_id
		FROM notes
		WHERE owner_id = $1`

	args := []interface{}{ownerID}

	if filter.Query != nil && *filter.Query != "" {
		query += ` AND (title ILIKE $2 OR content ILIKE $2)`
		args = append(args, "%"+*filter.Query+"%")
	}

	// id breaks updated_at ties so pagination stays stable
	query += ` ORDER BY updated_at DESC, id DESC`

	pos := len(args) + 1
	query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, pos, pos+1)
	args = append(args, filter.Limit, filter.Offset)

	notes := make([]note.Note, 0, filter.Limit)

	err := r.metrics.ObserveDB("notes.list", func() error {
		rows, queryErr := r.pool.Query(ctx, query, args...)

		if queryErr != nil {
			return queryErr
		}

		defer rows.Close()

		for rows.Next() {
			var n note.Note

			scanErr := rows.Scan(&n.ID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt, &n.OwnerID)

			if scanErr != nil {
				return scanErr
			}

			notes = append(notes, n)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return notes, nil
}

// Get checks id and owner in one predicate: a note owned by another
// user is indistinguishable from a nonexistent one.
func (r *NotesRepo) Get(ctx context.Context, ownerID, id string) (note.Note, error) {
	var n note.Note

	err := r.metrics.ObserveDB("notes.get", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, title, content, created_at, updated_at, owner_id
			 FROM notes
			 WHERE id = $1 AND owner_id = $2`,
			id, ownerID,
		).Scan(&n.ID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt, &n.OwnerID)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return note.Note{}, note.ErrNotFound
		}

		return note.Note{}, err
	}

	return n, nil
}

// Update applies only the supplied fields in a single statement, so two
// concurrent updates can't interleave field by field. updated_at is
// bumped on every successful call, even a no-op payload.
func (r *NotesRepo) Update(ctx context.Context, ownerID, id string, req note.UpdateNoteRequest) (note.Note, error) {
	var n note.Note

	err := r.metrics.ObserveDB("notes.update", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE notes
			 SET title = COALESCE($3, title),
			     content = COALESCE($4, content),
			     updated_at = NOW()
			 WHERE id = $1 AND owner_id = $2
			 RETURNING id, title, content, created_at, updated_at, owner_id`,
			id, ownerID, req.Title, req.Content,
		).Scan(&n.ID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt, &n.OwnerID)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return note.Note{}, note.ErrNotFound
		}

		return note.Note{}, err
	}

	return n, nil
}

func (r *NotesRepo) Delete(ctx context.Context, ownerID, id string) error {
	return r.metrics.ObserveDB("notes.delete", func() error {
		tag, err := r.pool.Exec(ctx,
			`DELETE FROM notes WHERE id = $1 AND owner_id = $2`,
			id, ownerID,
		)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return note.ErrNotFound
		}

		return nil
	})
}
