package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Workflow-Manager-admin/personal-notes-manager/internal/config"
	"github.com/Workflow-Manager-admin/personal-notes-manager/internal/domain/note"
	"github.com/Workflow-Manager-admin/personal-notes-manager/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type NotesStore interface {
	Create(ctx context.Context, ownerID string, req note.CreateNoteRequest) (note.Note, error)
	List(ctx context.Context, ownerID string, filter note.ListNotesFilter) ([]note.Note, error)
	Get(ctx context.Context, ownerID, id string) (note.Note, error)
	Update(ctx context.Context, ownerID, id string, req note.UpdateNoteRequest) (note.Note, error)
	Delete(ctx context.Context, ownerID, id string) error
}

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

type NotesHandler struct {
	repo NotesStore
}

func NewNotesHandler(repo NotesStore) *NotesHandler {
	return &NotesHandler{repo: repo}
}

func (h *NotesHandler) CreateNote(ctx *gin.Context) {
	ownerID, ok := ownerFrom(ctx)

	if !ok {
		return
	}

	var req note.CreateNoteRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	n, err := h.repo.Create(cctx, ownerID, req)

	if err != nil {
		RespondInternal(ctx, "Could not create note")
		return
	}

	ctx.JSON(http.StatusCreated, n)
}

func (h *NotesHandler) ListNotes(ctx *gin.Context) {
	ownerID, ok := ownerFrom(ctx)

	if !ok {
		return
	}

	filter, ok := listFilterFrom(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	notes, err := h.repo.List(cctx, ownerID, filter)

	if err != nil {
		RespondInternal(ctx, "Could not list notes")
		return
	}

	if notes == nil {
		notes = []note.Note{}
	}

	ctx.JSON(http.StatusOK, notes)
}

func (h *NotesHandler) GetNote(ctx *gin.Context) {
	ownerID, ok := ownerFrom(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	n, err := h.repo.Get(cctx, ownerID, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, note.ErrNotFound) {
			RespondNotFound(ctx, "Note not found.")
			return
		}

		RespondInternal(ctx, "Could not fetch note")
		return
	}

	ctx.JSON(http.StatusOK, n)
}

func (h *NotesHandler) UpdateNote(ctx *gin.Context) {
	ownerID, ok := ownerFrom(ctx)

	if !ok {
		return
	}

	var req note.UpdateNoteRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	n, err := h.repo.Update(cctx, ownerID, ctx.Param("id"), req)

	if err != nil {
		if errors.Is(err, note.ErrNotFound) {
			RespondNotFound(ctx, "Note not found.")
			return
		}

		RespondInternal(ctx, "Could not update note")
		return
	}

	ctx.JSON(http.StatusOK, n)
}

func (h *NotesHandler) DeleteNote(ctx *gin.Context) {
	ownerID, ok := ownerFrom(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	err := h.repo.Delete(cctx, ownerID, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, note.ErrNotFound) {
			RespondNotFound(ctx, "Note not found.")
			return
		}

		RespondInternal(ctx, "Could not delete note")
		return
	}

	ctx.Status(http.StatusNoContent)
}

func ownerFrom(ctx *gin.Context) (string, bool) {
	id, ok := middlewares.UserIDFromContext(ctx)

	if !ok || id == "" {
		RespondUnauthorized(ctx, "unauthorized", "Could not validate credentials.")
		return "", false
	}

	return id, true
}

// q, skip and limit query params. skip defaults to 0, limit to 100;
// limit is capped rather than rejected when it is too large.
func listFilterFrom(ctx *gin.Context) (note.ListNotesFilter, bool) {
	filter := note.ListNotesFilter{
		Limit: defaultListLimit,
	}

	if q := ctx.Query("q"); q != "" {
		filter.Query = &q
	}

	skip, err := strconv.Atoi(ctx.DefaultQuery("skip", "0"))

	if err != nil {
		RespondUnprocessable(ctx, "Invalid query parameters", gin.H{"field": "skip"})
		return note.ListNotesFilter{}, false
	}

	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))

	if err != nil {
		RespondUnprocessable(ctx, "Invalid query parameters", gin.H{"field": "limit"})
		return note.ListNotesFilter{}, false
	}

	if skip < 0 {
		skip = 0
	}

	if limit < 1 {
		limit = defaultListLimit
	}

	if limit > maxListLimit {
		limit = maxListLimit
	}

	filter.Offset = skip
	filter.Limit = limit

	return filter, true
}
