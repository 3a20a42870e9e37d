package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Workflow-Manager-admin/personal-notes-manager/internal/config"
	"github.com/Workflow-Manager-admin/personal-notes-manager/internal/domain/user"
	"github.com/Workflow-Manager-admin/personal-notes-manager/internal/http/middlewares"
	"github.com/Workflow-Manager-admin/personal-notes-manager/internal/security"
	"github.com/gin-gonic/gin"
)

type UserDirectory interface {
	GetByUsername(ctx context.Context, username string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	Create(ctx context.Context, username, email, passwordHash string) (user.User, error)
}

type TokenIssuer interface {
	GenerateAccessToken(userID string) (string, error)
}

type AuthHandler struct {
	users UserDirectory
	jwt   TokenIssuer
}

func NewAuthHandler(users UserDirectory, jwt TokenIssuer) *AuthHandler {
	return &AuthHandler{
		users: users,
		jwt:   jwt,
	}
}

// Register creates a new account. Username collisions are reported
// before email collisions; the DB constraints back this check up under
// concurrent registration.
func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	_, err := h.users.GetByUsername(cctx, req.Username)

	if err == nil {
		RespondConflict(ctx, "username_taken", "Username already taken.")
		return
	}

	if !errors.Is(err, user.ErrNotFound) {
		RespondInternal(ctx, "Could not create user")
		return
	}

	_, err = h.users.GetByEmail(cctx, req.Email)

	if err == nil {
		RespondConflict(ctx, "email_in_use", "Email already in use.")
		return
	}

	if !errors.Is(err, user.ErrNotFound) {
		RespondInternal(ctx, "Could not create user")
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	u, err := h.users.Create(cctx, req.Username, req.Email, hash)

	if err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, user.ErrUsernameTaken) {
			RespondConflict(ctx, "username_taken", "Username already taken.")
			return
		}

		if errors.Is(err, user.ErrEmailTaken) {
			RespondConflict(ctx, "email_in_use", "Email already in use.")
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

// Login accepts a username or an email in the username form field.
// Username lookup wins over email lookup when both could match; this
// precedence is load-bearing and must not change without sign-off.
func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindForm(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	found, ok := h.authenticate(cctx, req.Username, req.Password)

	if !ok {
		RespondUnauthorized(ctx, "invalid_credentials", "Invalid credentials.")
		return
	}

	accessToken, err := h.jwt.GenerateAccessToken(found.ID)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"access_token": accessToken,
		"token_type":   "bearer",
	})
}

func (h *AuthHandler) authenticate(ctx context.Context, identifier, password string) (user.User, bool) {
	u, err := h.users.GetByUsername(ctx, identifier)

	if err == nil && security.CheckPassword(u.PasswordHash, password) == nil {
		return u, true
	}

	u, err = h.users.GetByEmail(ctx, identifier)

	if err == nil && security.CheckPassword(u.PasswordHash, password) == nil {
		return u, true
	}

	return user.User{}, false
}

// Me returns the profile of the token's subject. A subject that no
// longer resolves is treated as bad credentials, not as a missing
// resource.
func (h *AuthHandler) Me(ctx *gin.Context) {
	id, ok := middlewares.UserIDFromContext(ctx)

	if !ok || id == "" {
		RespondUnauthorized(ctx, "unauthorized", "Could not validate credentials.")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	u, err := h.users.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondUnauthorized(ctx, "unauthorized", "Could not validate credentials.")
			return
		}

		RespondInternal(ctx, "Could not load profile")
		return
	}

	ctx.JSON(http.StatusOK, u)
}
