package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/community-market/internal/domain"
	"github.com/Rrens/community-market/internal/security"
)

// AuthService handles authentication operations
type AuthService struct {
	users        domain.UserRepository
	spaces       domain.SpaceRepository
	members      domain.MemberRepository
	jwtManager   *security.JWTManager
	defaultSpace string
}

// NewAuthService creates a new auth service. New users join the space with
// slug defaultSpace when it exists.
func NewAuthService(
	users domain.UserRepository,
	spaces domain.SpaceRepository,
	members domain.MemberRepository,
	jwtManager *security.JWTManager,
	defaultSpace string,
) *AuthService {
	return &AuthService{
		users:        users,
		spaces:       spaces,
		members:      members,
		jwtManager:   jwtManager,
		defaultSpace: defaultSpace,
	}
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, input domain.UserCreate) (*domain.User, error) {
	phone := strings.TrimSpace(input.Phone)

	existing, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		return nil, domain.Internal("get user by phone", err)
	}
	if existing != nil {
		return nil, domain.ErrPhoneTaken
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, domain.Internal("hash password", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Phone:        phone,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: hash,
		Role:         domain.UserRoleUser,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.ErrPhoneTaken
		}
		return nil, domain.Internal("create user", err)
	}

	s.attachDefaultSpace(ctx, user)
	return user, nil
}

// attachDefaultSpace makes a new user a member of the default space. Failures
// are logged; the next bootstrap run repairs them.
func (s *AuthService) attachDefaultSpace(ctx context.Context, user *domain.User) {
	if s.defaultSpace == "" {
		return
	}

	space, err := s.spaces.GetBySlug(ctx, s.defaultSpace)
	if err != nil {
		log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("Failed to look up default space")
		return
	}
	if space == nil {
		return
	}

	_, err = s.members.AddIfAbsent(ctx, &domain.SpaceMember{
		ID:       uuid.New(),
		SpaceID:  space.ID,
		UserID:   user.ID,
		Role:     domain.RoleMember,
		JoinedAt: time.Now().UTC(),
	})
	if err != nil && !errors.Is(err, domain.ErrDuplicate) {
		log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("Failed to join default space")
		return
	}

	assigned, err := s.users.AssignDefaultSpace(ctx, user.ID, space.ID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("Failed to set default space")
		return
	}
	if assigned {
		id := space.ID
		user.DefaultSpaceID = &id
	}
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, input domain.UserLogin) (*domain.TokenPair, error) {
	user, err := s.users.GetByPhone(ctx, strings.TrimSpace(input.Phone))
	if err != nil {
		return nil, domain.Internal("get user by phone", err)
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}

	if err := security.CheckPassword(user.PasswordHash, input.Password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return s.issue(user)
}

// Refresh exchanges a refresh token for a new token pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	userID, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, domain.Internal("get user", err)
	}
	if user == nil {
		return nil, domain.ErrInvalidToken
	}

	return s.issue(user)
}

// Me returns the user behind an authenticated request
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, domain.Internal("get user", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *AuthService) issue(user *domain.User) (*domain.TokenPair, error) {
	accessToken, refreshToken, expiresIn, err := s.jwtManager.GenerateTokenPair(user)
	if err != nil {
		return nil, domain.Internal("generate tokens", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
	}, nil
}
