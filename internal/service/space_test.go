package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/community-market/internal/domain"
)

func TestSpaceService_CreateMakesOwner(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	owner := env.addUser(t, "+6281100000001")

	space := env.createSpace(t, owner, domain.SpaceCreate{
		Name:        "Riverside",
		Slug:        "riverside",
		Description: strPtr("Homes by the river"),
	})

	assert.Equal(t, "riverside", space.Slug)
	assert.Equal(t, domain.SpaceTypePublic, space.Type)
	assert.Equal(t, owner, space.OwnerID)
	assert.Equal(t, 1, space.MembersCount)
	assert.Nil(t, space.InviteCode)

	member, err := env.membership.Get(ctx, space.ID, owner)
	require.NoError(t, err)
	require.NotNil(t, member)
	assert.Equal(t, domain.RoleOwner, member.Role)
}

func TestSpaceService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	owner := env.addUser(t, "+6281100000001")

	tests := []struct {
		name     string
		input    domain.SpaceCreate
		wantKind domain.ErrorKind
	}{
		{"private without code", domain.SpaceCreate{Name: "Hidden", Type: domain.SpaceTypePrivate}, domain.KindInviteRequired},
		{"private with blank code", domain.SpaceCreate{Name: "Hidden", Type: domain.SpaceTypePrivate, InviteCode: strPtr("  ")}, domain.KindInviteRequired},
		{"blank name", domain.SpaceCreate{Name: "   "}, domain.KindInvalidInput},
		{"upper case slug", domain.SpaceCreate{Name: "Hidden", Slug: "Hidden"}, domain.KindInvalidInput},
		{"slug with spaces", domain.SpaceCreate{Name: "Hidden", Slug: "hidden garden"}, domain.KindInvalidInput},
		{"unknown type", domain.SpaceCreate{Name: "Hidden", Type: "secret"}, domain.KindInvalidInput},
		{"name without slug characters", domain.SpaceCreate{Name: "!!!"}, domain.KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			space, err := env.spaces.Create(ctx, owner, tt.input)
			require.Error(t, err)
			assert.Nil(t, space)
			assert.Equal(t, tt.wantKind, domain.KindOf(err))
		})
	}

	total, err := env.store.Spaces().Count(ctx, domain.SpaceFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestSpaceService_CreateDerivesSlug(t *testing.T) {
	env := newTestEnv()
	owner := env.addUser(t, "+6281100000001")

	space := env.createSpace(t, owner, domain.SpaceCreate{Name: "Riverside Homes"})
	assert.Equal(t, "riverside-homes", space.Slug)
}

func TestSpaceService_CreatePublicDropsInviteCode(t *testing.T) {
	env := newTestEnv()
	owner := env.addUser(t, "+6281100000001")

	space := env.createSpace(t, owner, domain.SpaceCreate{Name: "Riverside", InviteCode: strPtr("ABC")})
	assert.Nil(t, space.InviteCode)
}

func TestSpaceService_CreateSlugConflict(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	owner := env.addUser(t, "+6281100000001")
	other := env.addUser(t, "+6281100000002")

	env.createSpace(t, owner, domain.SpaceCreate{Name: "Riverside", Slug: "riverside"})

	_, err := env.spaces.Create(ctx, other, domain.SpaceCreate{Name: "Another", Slug: "riverside"})
	assert.ErrorIs(t, err, domain.ErrSlugConflict)

	total, err := env.store.Spaces().Count(ctx, domain.SpaceFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	mine, err := env.spaces.ListMine(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestSpaceService_CreateStoreFailure(t *testing.T) {
	ctx := context.Background()
	spaces := new(MockSpaceRepository)
	members := new(MockMemberRepository)
	svc := NewSpaceService(spaces, members, NewMembershipService(spaces, members), nil)

	spaces.On("Create", ctx, mock.AnythingOfType("*domain.Space"), mock.AnythingOfType("*domain.SpaceMember")).
		Return(errors.New("disk full"))

	_, err := svc.Create(ctx, uuid.New(), domain.SpaceCreate{Name: "Riverside"})
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))
	spaces.AssertExpectations(t)
}

func TestSpaceService_Update(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	owner := env.addUser(t, "+6281100000001")
	admin := env.addUser(t, "+6281100000002")
	member := env.addUser(t, "+6281100000003")
	stranger := env.addUser(t, "+6281100000004")

	space := env.createSpace(t, owner, domain.SpaceCreate{
		Name:        "Riverside",
		Slug:        "riverside",
		Description: strPtr("Homes by the river"),
	})
	env.setRole(t, space.ID, admin, domain.RoleAdmin)
	env.setRole(t, space.ID, member, domain.RoleMember)

	newName := "Riverside Estate"

	t.Run("member is forbidden", func(t *testing.T) {
		_, err := env.spaces.Update(ctx, space.ID, member, domain.SpaceUpdate{Name: &newName})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("non member is denied", func(t *testing.T) {
		_, err := env.spaces.Update(ctx, space.ID, stranger, domain.SpaceUpdate{Name: &newName})
		assert.ErrorIs(t, err, domain.ErrAccessDenied)
	})

	t.Run("unknown space", func(t *testing.T) {
		_, err := env.spaces.Update(ctx, uuid.New(), owner, domain.SpaceUpdate{Name: &newName})
		assert.ErrorIs(t, err, domain.ErrSpaceNotFound)
	})

	t.Run("admin changes only given fields", func(t *testing.T) {
		view, err := env.spaces.Update(ctx, space.ID, admin, domain.SpaceUpdate{Name: &newName})
		require.NoError(t, err)

		assert.Equal(t, newName, view.Name)
		assert.Equal(t, "riverside", view.Slug)
		assert.Equal(t, owner, view.OwnerID)
		assert.True(t, space.CreatedAt.Equal(view.CreatedAt))
		require.NotNil(t, view.Description)
		assert.Equal(t, "Homes by the river", *view.Description)
		assert.Equal(t, domain.SpaceTypePublic, view.Type)
	})

	t.Run("owner switches to private without code", func(t *testing.T) {
		private := domain.SpaceTypePrivate
		_, err := env.spaces.Update(ctx, space.ID, owner, domain.SpaceUpdate{Type: &private})
		assert.ErrorIs(t, err, domain.ErrInviteRequired)
	})

	t.Run("owner switches to private after setting code", func(t *testing.T) {
		_, err := env.spaces.SetInviteCode(ctx, space.ID, owner, "river")
		require.NoError(t, err)

		private := domain.SpaceTypePrivate
		view, err := env.spaces.Update(ctx, space.ID, owner, domain.SpaceUpdate{Type: &private})
		require.NoError(t, err)
		assert.Equal(t, domain.SpaceTypePrivate, view.Type)
		assert.Equal(t, newName, view.Name)
	})

	t.Run("blank name rejected", func(t *testing.T) {
		blank := " "
		_, err := env.spaces.Update(ctx, space.ID, owner, domain.SpaceUpdate{Name: &blank})
		assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
	})
}

func TestSpaceService_GetShowsInviteCodeToManagers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	owner := env.addUser(t, "+6281100000001")
	member := env.addUser(t, "+6281100000002")

	space := env.createSpace(t, owner, domain.SpaceCreate{
		Name:       "Hidden Garden",
		Type:       domain.SpaceTypePrivate,
		InviteCode: strPtr("ABC123"),
	})
	env.setRole(t, space.ID, member, domain.RoleMember)

	view, err := env.spaces.Get(ctx, space.ID, &owner)
	require.NoError(t, err)
	require.NotNil(t, view.InviteCode)
	assert.Equal(t, "ABC123", *view.InviteCode)

	view, err = env.spaces.Get(ctx, space.ID, &member)
	require.NoError(t, err)
	assert.Nil(t, view.InviteCode)
	require.NotNil(t, view.Role)
	assert.Equal(t, domain.RoleMember, *view.Role)

	view, err = env.spaces.Get(ctx, space.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, view.Role)
	assert.Nil(t, view.InviteCode)

	_, err = env.spaces.Get(ctx, uuid.New(), nil)
	assert.ErrorIs(t, err, domain.ErrSpaceNotFound)
}

func TestSpaceService_List(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	owner := env.addUser(t, "+6281100000001")
	viewer := env.addUser(t, "+6281100000002")

	env.createSpace(t, owner, domain.SpaceCreate{Name: "Riverside", Description: strPtr("Homes by the RIVER")})
	hill := env.createSpace(t, owner, domain.SpaceCreate{Name: "Hill Top"})
	env.createSpace(t, owner, domain.SpaceCreate{
		Name:       "River Club",
		Type:       domain.SpaceTypePrivate,
		InviteCode: strPtr("CLUB"),
	})
	env.setRole(t, hill.ID, viewer, domain.RoleMember)

	page, err := env.spaces.List(ctx, domain.SpaceQuery{Search: "river"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	private := domain.SpaceTypePrivate
	page, err = env.spaces.List(ctx, domain.SpaceQuery{Search: "river", Type: &private}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "river-club", page.Items[0].Slug)
	assert.Nil(t, page.Items[0].InviteCode)

	page, err = env.spaces.List(ctx, domain.SpaceQuery{}, &viewer)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, domain.DefaultPageSize, page.PageSize)
	for _, item := range page.Items {
		if item.ID == hill.ID {
			require.NotNil(t, item.Role)
			assert.Equal(t, domain.RoleMember, *item.Role)
		} else {
			assert.Nil(t, item.Role)
		}
	}

	page, err = env.spaces.List(ctx, domain.SpaceQuery{Page: 2, PageSize: 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Items, 1)

	bad := domain.SpaceType("secret")
	_, err = env.spaces.List(ctx, domain.SpaceQuery{Type: &bad}, nil)
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
}

func TestSpaceService_ListMine(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	owner := env.addUser(t, "+6281100000001")
	user := env.addUser(t, "+6281100000002")

	a := env.createSpace(t, owner, domain.SpaceCreate{Name: "Alpha"})
	env.createSpace(t, owner, domain.SpaceCreate{Name: "Beta"})
	env.createSpace(t, user, domain.SpaceCreate{Name: "Gamma"})
	env.setRole(t, a.ID, user, domain.RoleAdmin)

	mine, err := env.spaces.ListMine(ctx, user)
	require.NoError(t, err)
	require.Len(t, mine, 2)

	roles := map[string]domain.Role{}
	for _, v := range mine {
		roles[v.Slug] = *v.Role
	}
	assert.Equal(t, domain.RoleAdmin, roles["alpha"])
	assert.Equal(t, domain.RoleOwner, roles["gamma"])
}

func TestSpaceService_SetInviteCode(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	owner := env.addUser(t, "+6281100000001")
	member := env.addUser(t, "+6281100000002")
	space := env.createSpace(t, owner, domain.SpaceCreate{Name: "Riverside"})
	env.setRole(t, space.ID, member, domain.RoleMember)

	_, err := env.spaces.SetInviteCode(ctx, space.ID, member, "NOPE")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	view, err := env.spaces.SetInviteCode(ctx, space.ID, owner, "")
	require.NoError(t, err)
	require.NotNil(t, view.InviteCode)
	assert.Len(t, *view.InviteCode, 8)

	view, err = env.spaces.SetInviteCode(ctx, space.ID, owner, "  river ")
	require.NoError(t, err)
	assert.Equal(t, "river", *view.InviteCode)
}

func TestSpaceService_GetBySlugUsesCache(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	owner := env.addUser(t, "+6281100000001")
	space := env.createSpace(t, owner, domain.SpaceCreate{Name: "Riverside"})

	cache := new(MockSlugCache)
	svc := NewSpaceService(env.store.Spaces(), env.store.Members(), env.membership, cache)

	t.Run("miss fills cache", func(t *testing.T) {
		cache.On("Get", ctx, "riverside").Return(uuid.Nil, nil).Once()
		cache.On("Set", ctx, "riverside", space.ID).Return(nil).Once()

		view, err := svc.GetBySlug(ctx, "riverside", &owner)
		require.NoError(t, err)
		assert.Equal(t, space.ID, view.ID)
		require.NotNil(t, view.Role)
		assert.Equal(t, domain.RoleOwner, *view.Role)
	})

	t.Run("hit skips slug lookup", func(t *testing.T) {
		cache.On("Get", ctx, "riverside").Return(space.ID, nil).Once()

		view, err := svc.GetBySlug(ctx, "riverside", nil)
		require.NoError(t, err)
		assert.Equal(t, space.ID, view.ID)
	})

	t.Run("cache failure falls back to store", func(t *testing.T) {
		cache.On("Get", ctx, "riverside").Return(uuid.Nil, errors.New("redis down")).Once()
		cache.On("Set", ctx, "riverside", space.ID).Return(errors.New("redis down")).Once()

		view, err := svc.GetBySlug(ctx, "riverside", nil)
		require.NoError(t, err)
		assert.Equal(t, space.ID, view.ID)
	})

	t.Run("unknown slug", func(t *testing.T) {
		cache.On("Get", ctx, "nowhere").Return(uuid.Nil, nil).Once()

		_, err := svc.GetBySlug(ctx, "nowhere", nil)
		assert.ErrorIs(t, err, domain.ErrSpaceNotFound)
	})

	cache.AssertExpectations(t)
}

func TestSpaceService_ListFarPageIsEmpty(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	owner := env.addUser(t, "+6281100000001")
	env.createSpace(t, owner, domain.SpaceCreate{Name: "Riverside"})

	var page *domain.Page[domain.SpaceView]
	require.NotPanics(t, func() {
		var err error
		page, err = env.spaces.List(ctx, domain.SpaceQuery{Page: math.MaxInt, PageSize: 20}, nil)
		require.NoError(t, err)
	})
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, domain.MaxPage, page.Page)
	assert.Empty(t, page.Items)
}
