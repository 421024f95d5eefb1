// Package memory is an in-process store used for local development and tests.
// It enforces the same unique constraints as the SQL schemas.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Rrens/community-market/internal/domain"
)

type memberKey struct {
	spaceID uuid.UUID
	userID  uuid.UUID
}

type listing struct {
	id      uuid.UUID
	spaceID *uuid.UUID
}

// Store holds every table behind one mutex
type Store struct {
	mu       sync.RWMutex
	spaces   map[uuid.UUID]domain.Space
	slugs    map[string]uuid.UUID
	members  map[memberKey]domain.SpaceMember
	users    map[uuid.UUID]domain.User
	phones   map[string]uuid.UUID
	listings map[domain.ListingKind]map[uuid.UUID]*listing
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		spaces:   make(map[uuid.UUID]domain.Space),
		slugs:    make(map[string]uuid.UUID),
		members:  make(map[memberKey]domain.SpaceMember),
		users:    make(map[uuid.UUID]domain.User),
		phones:   make(map[string]uuid.UUID),
		listings: make(map[domain.ListingKind]map[uuid.UUID]*listing),
	}
}

// Ping always succeeds
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op
func (s *Store) Close() {}

// Spaces returns the space repository view of the store
func (s *Store) Spaces() domain.SpaceRepository { return spaceRepo{s} }

// Members returns the membership repository view of the store
func (s *Store) Members() domain.MemberRepository { return memberRepo{s} }

// Users returns the user repository view of the store
func (s *Store) Users() domain.UserRepository { return userRepo{s} }

// Listings returns the listing repository view of the store
func (s *Store) Listings() domain.ListingRepository { return listingRepo{s} }

// AddListing records a legacy listing row. A nil spaceID models a row created
// before spaces existed.
func (s *Store) AddListing(kind domain.ListingKind, id uuid.UUID, spaceID *uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listings[kind] == nil {
		s.listings[kind] = make(map[uuid.UUID]*listing)
	}
	s.listings[kind][id] = &listing{id: id, spaceID: copyID(spaceID)}
}

// ListingSpace returns the space a listing is attached to
func (s *Store) ListingSpace(kind domain.ListingKind, id uuid.UUID) *uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if l, ok := s.listings[kind][id]; ok {
		return copyID(l.spaceID)
	}
	return nil
}

// MemberCount returns the number of membership rows for a space
func (s *Store) MemberCount(spaceID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countMembersLocked(spaceID)
}

func (s *Store) countMembersLocked(spaceID uuid.UUID) int {
	n := 0
	for k := range s.members {
		if k.spaceID == spaceID {
			n++
		}
	}
	return n
}

func (s *Store) spaceLocked(sp domain.Space) *domain.Space {
	sp.Description = copyString(sp.Description)
	sp.Logo = copyString(sp.Logo)
	sp.InviteCode = copyString(sp.InviteCode)
	sp.MembersCount = s.countMembersLocked(sp.ID)
	return &sp
}

type spaceRepo struct{ s *Store }

func (r spaceRepo) insertLocked(space *domain.Space) bool {
	if _, ok := r.s.spaces[space.ID]; ok {
		return false
	}
	if _, ok := r.s.slugs[space.Slug]; ok {
		return false
	}
	stored := *space
	stored.MembersCount = 0
	r.s.spaces[space.ID] = stored
	r.s.slugs[space.Slug] = space.ID
	return true
}

func (r spaceRepo) Create(_ context.Context, space *domain.Space, owner *domain.SpaceMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if owner != nil {
		if _, ok := r.s.members[memberKey{owner.SpaceID, owner.UserID}]; ok {
			return domain.ErrDuplicate
		}
	}
	if !r.insertLocked(space) {
		return domain.ErrDuplicate
	}
	if owner != nil {
		r.s.members[memberKey{owner.SpaceID, owner.UserID}] = *owner
	}
	return nil
}

func (r spaceRepo) InsertIfAbsent(_ context.Context, space *domain.Space) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.insertLocked(space), nil
}

func (r spaceRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Space, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sp, ok := r.s.spaces[id]
	if !ok {
		return nil, nil
	}
	return r.s.spaceLocked(sp), nil
}

func (r spaceRepo) GetBySlug(ctx context.Context, slug string) (*domain.Space, error) {
	r.s.mu.RLock()
	id, ok := r.s.slugs[slug]
	r.s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

func (r spaceRepo) Update(_ context.Context, id uuid.UUID, update domain.SpaceUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sp, ok := r.s.spaces[id]
	if !ok {
		return nil
	}
	if update.Name != nil {
		sp.Name = *update.Name
	}
	if update.Description != nil {
		sp.Description = copyString(update.Description)
	}
	if update.Type != nil {
		sp.Type = *update.Type
	}
	if update.Logo != nil {
		sp.Logo = copyString(update.Logo)
	}
	r.s.spaces[id] = sp
	return nil
}

func (r spaceRepo) SetInviteCode(_ context.Context, id uuid.UUID, code string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sp, ok := r.s.spaces[id]
	if !ok {
		return nil
	}
	sp.InviteCode = &code
	r.s.spaces[id] = sp
	return nil
}

func (r spaceRepo) matchLocked(filter domain.SpaceFilter) []domain.Space {
	search := strings.ToLower(filter.Search)

	var out []domain.Space
	for _, sp := range r.s.spaces {
		if filter.Type != nil && sp.Type != *filter.Type {
			continue
		}
		if search != "" {
			desc := ""
			if sp.Description != nil {
				desc = *sp.Description
			}
			if !strings.Contains(strings.ToLower(sp.Name), search) &&
				!strings.Contains(strings.ToLower(desc), search) {
				continue
			}
		}
		out = append(out, *r.s.spaceLocked(sp))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r spaceRepo) List(_ context.Context, filter domain.SpaceFilter) ([]domain.Space, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return paginate(r.matchLocked(filter), filter.Limit, filter.Offset), nil
}

func (r spaceRepo) Count(_ context.Context, filter domain.SpaceFilter) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.matchLocked(filter)), nil
}

type memberRepo struct{ s *Store }

func (r memberRepo) AddIfAbsent(_ context.Context, member *domain.SpaceMember) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := memberKey{member.SpaceID, member.UserID}
	if _, ok := r.s.members[key]; ok {
		return false, nil
	}
	stored := *member
	stored.User = nil
	r.s.members[key] = stored
	return true, nil
}

func (r memberRepo) Get(_ context.Context, spaceID, userID uuid.UUID) (*domain.SpaceMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.members[memberKey{spaceID, userID}]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r memberRepo) UpdateRole(_ context.Context, spaceID, userID uuid.UUID, role domain.Role) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := memberKey{spaceID, userID}
	m, ok := r.s.members[key]
	if !ok {
		return false, nil
	}
	m.Role = role
	r.s.members[key] = m
	return true, nil
}

func (r memberRepo) Remove(_ context.Context, spaceID, userID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := memberKey{spaceID, userID}
	if _, ok := r.s.members[key]; !ok {
		return false, nil
	}
	delete(r.s.members, key)
	return true, nil
}

func (r memberRepo) List(_ context.Context, spaceID uuid.UUID, limit, offset int) ([]domain.SpaceMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []domain.SpaceMember
	for k, m := range r.s.members {
		if k.spaceID != spaceID {
			continue
		}
		if u, ok := r.s.users[m.UserID]; ok {
			m.User = &domain.UserPublic{ID: u.ID, Name: u.Name}
		}
		out = append(out, m)
	}
	sortMembers(out)
	return paginate(out, limit, offset), nil
}

func (r memberRepo) Count(_ context.Context, spaceID uuid.UUID) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.countMembersLocked(spaceID), nil
}

func (r memberRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.SpaceMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []domain.SpaceMember
	for k, m := range r.s.members {
		if k.userID == userID {
			out = append(out, m)
		}
	}
	sortMembers(out)
	return out, nil
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; ok {
		return domain.ErrDuplicate
	}
	if _, ok := r.s.phones[user.Phone]; ok {
		return domain.ErrDuplicate
	}
	stored := *user
	stored.DefaultSpaceID = copyID(user.DefaultSpaceID)
	r.s.users[user.ID] = stored
	r.s.phones[user.Phone] = user.ID
	return nil
}

func (r userRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	u.DefaultSpaceID = copyID(u.DefaultSpaceID)
	return &u, nil
}

func (r userRepo) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	r.s.mu.RLock()
	id, ok := r.s.phones[phone]
	r.s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

func (r userRepo) ListIDs(context.Context) ([]uuid.UUID, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })

	ids := make([]uuid.UUID, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids, nil
}

func (r userRepo) AssignDefaultSpace(_ context.Context, userID, spaceID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok || !r.s.danglingLocked(u.DefaultSpaceID) {
		return false, nil
	}
	u.DefaultSpaceID = &spaceID
	r.s.users[userID] = u
	return true, nil
}

type listingRepo struct{ s *Store }

func (r listingRepo) ReattachToSpace(_ context.Context, kind domain.ListingKind, spaceID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for _, l := range r.s.listings[kind] {
		if r.s.danglingLocked(l.spaceID) {
			id := spaceID
			l.spaceID = &id
			n++
		}
	}
	return n, nil
}

// danglingLocked reports whether ref is unset or points at a missing space
func (s *Store) danglingLocked(ref *uuid.UUID) bool {
	if ref == nil {
		return true
	}
	_, ok := s.spaces[*ref]
	return !ok
}

func sortMembers(ms []domain.SpaceMember) {
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].JoinedAt.Equal(ms[j].JoinedAt) {
			return ms[i].ID.String() < ms[j].ID.String()
		}
		return ms[i].JoinedAt.Before(ms[j].JoinedAt)
	})
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 || offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
