package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/Rrens/community-market/internal/domain"
)

// MockSpaceRepository mocks the SpaceRepository interface
type MockSpaceRepository struct {
	mock.Mock
}

func (m *MockSpaceRepository) Create(ctx context.Context, space *domain.Space, owner *domain.SpaceMember) error {
	args := m.Called(ctx, space, owner)
	return args.Error(0)
}

func (m *MockSpaceRepository) InsertIfAbsent(ctx context.Context, space *domain.Space) (bool, error) {
	args := m.Called(ctx, space)
	return args.Bool(0), args.Error(1)
}

func (m *MockSpaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Space, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Space), args.Error(1)
}

func (m *MockSpaceRepository) GetBySlug(ctx context.Context, slug string) (*domain.Space, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Space), args.Error(1)
}

func (m *MockSpaceRepository) Update(ctx context.Context, id uuid.UUID, update domain.SpaceUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

func (m *MockSpaceRepository) SetInviteCode(ctx context.Context, id uuid.UUID, code string) error {
	args := m.Called(ctx, id, code)
	return args.Error(0)
}

func (m *MockSpaceRepository) List(ctx context.Context, filter domain.SpaceFilter) ([]domain.Space, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Space), args.Error(1)
}

func (m *MockSpaceRepository) Count(ctx context.Context, filter domain.SpaceFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

// MockMemberRepository mocks the MemberRepository interface
type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) AddIfAbsent(ctx context.Context, member *domain.SpaceMember) (bool, error) {
	args := m.Called(ctx, member)
	return args.Bool(0), args.Error(1)
}

func (m *MockMemberRepository) Get(ctx context.Context, spaceID, userID uuid.UUID) (*domain.SpaceMember, error) {
	args := m.Called(ctx, spaceID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SpaceMember), args.Error(1)
}

func (m *MockMemberRepository) UpdateRole(ctx context.Context, spaceID, userID uuid.UUID, role domain.Role) (bool, error) {
	args := m.Called(ctx, spaceID, userID, role)
	return args.Bool(0), args.Error(1)
}

func (m *MockMemberRepository) Remove(ctx context.Context, spaceID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, spaceID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMemberRepository) List(ctx context.Context, spaceID uuid.UUID, limit, offset int) ([]domain.SpaceMember, error) {
	args := m.Called(ctx, spaceID, limit, offset)
	return args.Get(0).([]domain.SpaceMember), args.Error(1)
}

func (m *MockMemberRepository) Count(ctx context.Context, spaceID uuid.UUID) (int, error) {
	args := m.Called(ctx, spaceID)
	return args.Int(0), args.Error(1)
}

func (m *MockMemberRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.SpaceMember, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.SpaceMember), args.Error(1)
}

// MockSlugCache mocks the SlugCache interface
type MockSlugCache struct {
	mock.Mock
}

func (m *MockSlugCache) Get(ctx context.Context, slug string) (uuid.UUID, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockSlugCache) Set(ctx context.Context, slug string, id uuid.UUID) error {
	args := m.Called(ctx, slug, id)
	return args.Error(0)
}
