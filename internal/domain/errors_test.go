package domain_test

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/Rrens/community-market/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("join: %w", &domain.Error{Kind: domain.KindInviteInvalid, Message: "codes differ"})

	assert.True(t, errors.Is(err, domain.ErrInviteInvalid))
	assert.False(t, errors.Is(err, domain.ErrInviteRequired))
	assert.Equal(t, domain.KindInviteInvalid, domain.KindOf(err))
}

func TestKindOf_UntaggedIsInternal(t *testing.T) {
	assert.Equal(t, domain.KindInternal, domain.KindOf(errors.New("boom")))
}

func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := domain.Internal("get space", cause)

	assert.Equal(t, domain.KindInternal, domain.KindOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "internal error", domain.PublicMessage(err))
	assert.Equal(t, "space not found", domain.PublicMessage(domain.ErrSpaceNotFound))
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{0, 0, 1, domain.DefaultPageSize},
		{3, 10, 3, 10},
		{-1, 500, 1, domain.MaxPageSize},
		{math.MaxInt, 20, domain.MaxPage, 20},
	}

	for _, tt := range tests {
		page, size := domain.NormalizePage(tt.page, tt.size)
		assert.Equal(t, tt.wantPage, page)
		assert.Equal(t, tt.wantSize, size)
		assert.GreaterOrEqual(t, (page-1)*size, 0)
	}
}

func TestRole(t *testing.T) {
	assert.True(t, domain.RoleOwner.CanManage())
	assert.True(t, domain.RoleAdmin.CanManage())
	assert.False(t, domain.RoleMember.CanManage())
	assert.False(t, domain.Role("guest").Valid())
}

func TestIsBlank(t *testing.T) {
	blank := "   "
	code := "ABC123"
	assert.True(t, domain.IsBlank(nil))
	assert.True(t, domain.IsBlank(&blank))
	assert.False(t, domain.IsBlank(&code))
}
