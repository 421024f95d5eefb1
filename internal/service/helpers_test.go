package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/community-market/internal/domain"
	"github.com/Rrens/community-market/internal/repository/memory"
)

type testEnv struct {
	store      *memory.Store
	spaces     *SpaceService
	membership *MembershipService
}

func newTestEnv() *testEnv {
	store := memory.NewStore()
	membership := NewMembershipService(store.Spaces(), store.Members())
	return &testEnv{
		store:      store,
		spaces:     NewSpaceService(store.Spaces(), store.Members(), membership, nil),
		membership: membership,
	}
}

func (e *testEnv) addUser(t *testing.T, phone string) uuid.UUID {
	t.Helper()

	user := &domain.User{
		ID:           uuid.New(),
		Phone:        phone,
		Name:         "user " + phone,
		PasswordHash: "x",
		Role:         domain.UserRoleUser,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, e.store.Users().Create(context.Background(), user))
	return user.ID
}

func (e *testEnv) createSpace(t *testing.T, ownerID uuid.UUID, input domain.SpaceCreate) *domain.Space {
	t.Helper()

	space, err := e.spaces.Create(context.Background(), ownerID, input)
	require.NoError(t, err)
	return space
}

func (e *testEnv) setRole(t *testing.T, spaceID, userID uuid.UUID, role domain.Role) {
	t.Helper()

	_, err := e.membership.Join(context.Background(), spaceID, userID, strPtr("ABC123"))
	require.NoError(t, err)
	_, err = e.membership.UpdateRole(context.Background(), spaceID, userID, role)
	require.NoError(t, err)
}

func strPtr(s string) *string {
	return &s
}
