package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Rrens/community-market/internal/api/response"
	"github.com/Rrens/community-market/internal/domain"
	"github.com/Rrens/community-market/internal/security"
)

type contextKey string

const (
	UserIDKey   contextKey = "userID"
	UserRoleKey contextKey = "userRole"
	SpaceIDKey  contextKey = "spaceID"
)

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	jwtManager *security.JWTManager
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *security.JWTManager) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager}
}

// Authenticate validates the JWT token
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "missing authorization header")
			return
		}

		claims, ok := m.parse(authHeader)
		if !ok {
			response.Unauthorized(w, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

// OptionalAuthenticate attaches the caller's identity when a valid token is
// present and lets anonymous requests through.
func (m *AuthMiddleware) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, ok := m.parse(authHeader)
		if !ok {
			response.Unauthorized(w, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

func (m *AuthMiddleware) parse(authHeader string) (*security.Claims, bool) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, false
	}

	claims, err := m.jwtManager.ValidateAccessToken(parts[1])
	if err != nil {
		return nil, false
	}
	return claims, true
}

func withClaims(ctx context.Context, claims *security.Claims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	return context.WithValue(ctx, UserRoleKey, claims.Role)
}

// RequirePlatformAdmin rejects callers whose token does not carry the admin role
func RequirePlatformAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, _ := GetUserRole(r.Context())
		if role != domain.UserRoleAdmin {
			response.Forbidden(w, "platform admin required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserID gets the user ID from context
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetViewerID returns the caller's id for optionally authenticated routes
func GetViewerID(ctx context.Context) *uuid.UUID {
	if userID, ok := GetUserID(ctx); ok {
		return &userID
	}
	return nil
}

// GetUserRole gets the platform role from context
func GetUserRole(ctx context.Context) (domain.UserRole, bool) {
	role, ok := ctx.Value(UserRoleKey).(domain.UserRole)
	return role, ok
}

// GetSpaceID gets the space ID from context
func GetSpaceID(ctx context.Context) (uuid.UUID, bool) {
	spaceID, ok := ctx.Value(SpaceIDKey).(uuid.UUID)
	return spaceID, ok
}

// SpaceContext extracts space ID from URL and adds to context
func SpaceContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		spaceIDStr := chi.URLParam(r, "spaceID")
		if spaceIDStr == "" {
			response.BadRequest(w, "missing space ID")
			return
		}

		spaceID, err := uuid.Parse(spaceIDStr)
		if err != nil {
			response.BadRequest(w, "invalid space ID")
			return
		}

		ctx := context.WithValue(r.Context(), SpaceIDKey, spaceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
