package sqlstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/community-market/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(context.Background(), SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(db.Close)

	return db
}

func createUser(t *testing.T, users *UserRepository, phone string) *domain.User {
	t.Helper()

	user := &domain.User{
		ID:           uuid.New(),
		Phone:        phone,
		Name:         "user " + phone,
		PasswordHash: "hash",
		Role:         domain.UserRoleUser,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func newSpace(ownerID uuid.UUID, slug string) *domain.Space {
	return &domain.Space{
		ID:        uuid.New(),
		Name:      "Space " + slug,
		Slug:      slug,
		Type:      domain.SpaceTypePublic,
		OwnerID:   ownerID,
		CreatedAt: time.Now(),
	}
}

// insertLegacyListing inserts a listing row without a space reference
func insertLegacyListing(t *testing.T, db *DB, kind domain.ListingKind, id, sellerID uuid.UUID) {
	t.Helper()

	query := fmt.Sprintf(`INSERT INTO %s (id, seller_id, title, created_at) VALUES (?, ?, 'item', CURRENT_TIMESTAMP)`, listingTables[kind])
	_, err := db.SQL.ExecContext(context.Background(), query, id, sellerID)
	require.NoError(t, err)
}

func ownerOf(space *domain.Space) *domain.SpaceMember {
	return &domain.SpaceMember{
		ID:       uuid.New(),
		SpaceID:  space.ID,
		UserID:   space.OwnerID,
		Role:     domain.RoleOwner,
		JoinedAt: space.CreatedAt,
	}
}

func TestSpaceRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	users := NewUserRepository(db)
	spaces := NewSpaceRepository(db)

	owner := createUser(t, users, "+6281100000001")
	desc := "Fresh produce"
	space := newSpace(owner.ID, "farmers")
	space.Description = &desc

	require.NoError(t, spaces.Create(ctx, space, ownerOf(space)))

	got, err := spaces.GetBySlug(ctx, "farmers")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, space.ID, got.ID)
	assert.Equal(t, domain.SpaceTypePublic, got.Type)
	assert.Equal(t, 1, got.MembersCount)
	require.NotNil(t, got.Description)
	assert.Equal(t, desc, *got.Description)
	assert.Nil(t, got.InviteCode)

	missing, err := spaces.GetByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSpaceRepository_CreateDuplicateSlug(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	users := NewUserRepository(db)
	spaces := NewSpaceRepository(db)

	owner := createUser(t, users, "+6281100000001")
	first := newSpace(owner.ID, "farmers")
	require.NoError(t, spaces.Create(ctx, first, ownerOf(first)))

	second := newSpace(owner.ID, "farmers")
	err := spaces.Create(ctx, second, ownerOf(second))
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	// the owner row of the failed space must not survive
	members := NewMemberRepository(db)
	m, err := members.Get(ctx, second.ID, owner.ID)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestSpaceRepository_InsertIfAbsent(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	users := NewUserRepository(db)
	spaces := NewSpaceRepository(db)

	owner := createUser(t, users, "+6281100000001")
	space := newSpace(owner.ID, "demo")

	inserted, err := spaces.InsertIfAbsent(ctx, space)
	require.NoError(t, err)
	assert.True(t, inserted)

	again := newSpace(owner.ID, "demo")
	inserted, err = spaces.InsertIfAbsent(ctx, again)
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := spaces.GetBySlug(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, space.ID, got.ID)
}

func TestSpaceRepository_UpdateKeepsUnsetFields(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	users := NewUserRepository(db)
	spaces := NewSpaceRepository(db)

	owner := createUser(t, users, "+6281100000001")
	space := newSpace(owner.ID, "farmers")
	require.NoError(t, spaces.Create(ctx, space, ownerOf(space)))

	name := "Farmers Market"
	require.NoError(t, spaces.Update(ctx, space.ID, domain.SpaceUpdate{Name: &name}))
	require.NoError(t, spaces.SetInviteCode(ctx, space.ID, "ABC123"))

	got, err := spaces.GetByID(ctx, space.ID)
	require.NoError(t, err)
	assert.Equal(t, name, got.Name)
	assert.Equal(t, "farmers", got.Slug)
	assert.Equal(t, domain.SpaceTypePublic, got.Type)
	require.NotNil(t, got.InviteCode)
	assert.Equal(t, "ABC123", *got.InviteCode)
}

func TestSpaceRepository_ListAndCount(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	users := NewUserRepository(db)
	spaces := NewSpaceRepository(db)

	owner := createUser(t, users, "+6281100000001")
	base := time.Now().Add(-time.Hour)

	for i, slug := range []string{"bakery", "books", "garden"} {
		space := newSpace(owner.ID, slug)
		space.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if slug == "books" {
			desc := "Second-hand BAKERY cookbooks"
			space.Description = &desc
			space.Type = domain.SpaceTypePrivate
			code := "READ"
			space.InviteCode = &code
		}
		require.NoError(t, spaces.Create(ctx, space, ownerOf(space)))
	}

	filter := domain.SpaceFilter{Search: "bakery", Limit: 10}
	list, err := spaces.List(ctx, filter)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "books", list[0].Slug)
	assert.Equal(t, "bakery", list[1].Slug)

	total, err := spaces.Count(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	private := domain.SpaceTypePrivate
	total, err = spaces.Count(ctx, domain.SpaceFilter{Type: &private})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	page, err := spaces.List(ctx, domain.SpaceFilter{Limit: 1, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "bakery", page[0].Slug)

	green := newSpace(owner.ID, "zeleny")
	green.Name = "ЗЕЛЁНЫЙ Квартал"
	cafe := "Café CRÈME du quartier"
	green.Description = &cafe
	require.NoError(t, spaces.Create(ctx, green, ownerOf(green)))

	for _, search := range []string{"Зелёный", "квартал", "crème"} {
		total, err = spaces.Count(ctx, domain.SpaceFilter{Search: search})
		require.NoError(t, err)
		assert.Equal(t, 1, total, search)
	}
}

func TestMemberRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	users := NewUserRepository(db)
	spaces := NewSpaceRepository(db)
	members := NewMemberRepository(db)

	owner := createUser(t, users, "+6281100000001")
	joiner := createUser(t, users, "+6281100000002")
	space := newSpace(owner.ID, "farmers")
	require.NoError(t, spaces.Create(ctx, space, ownerOf(space)))

	member := &domain.SpaceMember{
		ID:       uuid.New(),
		SpaceID:  space.ID,
		UserID:   joiner.ID,
		Role:     domain.RoleMember,
		JoinedAt: time.Now().Add(time.Second),
	}
	added, err := members.AddIfAbsent(ctx, member)
	require.NoError(t, err)
	assert.True(t, added)

	dup := *member
	dup.ID = uuid.New()
	added, err = members.AddIfAbsent(ctx, &dup)
	require.NoError(t, err)
	assert.False(t, added)

	count, err := members.Count(ctx, space.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	list, err := members.List(ctx, space.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, domain.RoleOwner, list[0].Role)
	require.NotNil(t, list[1].User)
	assert.Equal(t, joiner.Name, list[1].User.Name)

	updated, err := members.UpdateRole(ctx, space.ID, joiner.ID, domain.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, updated)

	got, err := members.Get(ctx, space.ID, joiner.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, got.Role)

	mine, err := members.ListByUser(ctx, joiner.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	removed, err := members.Remove(ctx, space.ID, joiner.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = members.Remove(ctx, space.ID, joiner.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	updated, err = members.UpdateRole(ctx, space.ID, joiner.ID, domain.RoleMember)
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestUserRepository_DuplicatePhone(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	users := NewUserRepository(db)

	createUser(t, users, "+6281100000001")

	err := users.Create(ctx, &domain.User{
		ID:           uuid.New(),
		Phone:        "+6281100000001",
		Name:         "again",
		PasswordHash: "hash",
		Role:         domain.UserRoleUser,
		CreatedAt:    time.Now(),
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	got, err := users.GetByPhone(ctx, "+6281100000009")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserRepository_AssignDefaultSpace(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	users := NewUserRepository(db)
	spaces := NewSpaceRepository(db)

	owner := createUser(t, users, "+6281100000001")
	other := newSpace(owner.ID, "other")
	require.NoError(t, spaces.Create(ctx, other, ownerOf(other)))
	demo := newSpace(owner.ID, "demo")
	require.NoError(t, spaces.Create(ctx, demo, ownerOf(demo)))

	unset := createUser(t, users, "+6281100000002")
	dangling := createUser(t, users, "+6281100000003")
	attached := createUser(t, users, "+6281100000004")

	_, err := db.SQL.ExecContext(ctx, `UPDATE users SET default_space_id = ? WHERE id = ?`, uuid.New(), dangling.ID)
	require.NoError(t, err)
	_, err = db.SQL.ExecContext(ctx, `UPDATE users SET default_space_id = ? WHERE id = ?`, other.ID, attached.ID)
	require.NoError(t, err)

	for _, tt := range []struct {
		user *domain.User
		want bool
	}{
		{unset, true},
		{dangling, true},
		{attached, false},
	} {
		changed, err := users.AssignDefaultSpace(ctx, tt.user.ID, demo.ID)
		require.NoError(t, err)
		assert.Equal(t, tt.want, changed, tt.user.Phone)
	}

	got, err := users.GetByID(ctx, attached.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DefaultSpaceID)
	assert.Equal(t, other.ID, *got.DefaultSpaceID)

	got, err = users.GetByID(ctx, unset.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DefaultSpaceID)
	assert.Equal(t, demo.ID, *got.DefaultSpaceID)

	ids, err := users.ListIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 4)
}

func TestListingRepository_ReattachToSpace(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	users := NewUserRepository(db)
	spaces := NewSpaceRepository(db)
	listings := NewListingRepository(db)

	owner := createUser(t, users, "+6281100000001")
	other := newSpace(owner.ID, "other")
	require.NoError(t, spaces.Create(ctx, other, ownerOf(other)))
	demo := newSpace(owner.ID, "demo")
	require.NoError(t, spaces.Create(ctx, demo, ownerOf(demo)))

	unattached := uuid.New()
	orphan := uuid.New()
	kept := uuid.New()
	for _, id := range []uuid.UUID{unattached, orphan, kept} {
		insertLegacyListing(t, db, domain.ListingProduct, id, owner.ID)
	}
	_, err := db.SQL.ExecContext(ctx, `UPDATE products SET space_id = ? WHERE id = ?`, uuid.New(), orphan)
	require.NoError(t, err)
	_, err = db.SQL.ExecContext(ctx, `UPDATE products SET space_id = ? WHERE id = ?`, other.ID, kept)
	require.NoError(t, err)

	n, err := listings.ReattachToSpace(ctx, domain.ListingProduct, demo.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = listings.ReattachToSpace(ctx, domain.ListingProduct, demo.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	var spaceID uuid.UUID
	require.NoError(t, db.SQL.QueryRowContext(ctx, `SELECT space_id FROM products WHERE id = ?`, kept).Scan(&spaceID))
	assert.Equal(t, other.ID, spaceID)

	n, err = listings.ReattachToSpace(ctx, domain.ListingService, demo.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}
