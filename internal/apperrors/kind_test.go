package apperrors_test

import (
	"errors"
	"fmt"
	"testing"

	"teamhub/internal/apperrors"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		kind apperrors.Kind
		tag  string
	}{
		{fmt.Errorf("team with code abc123: %w", apperrors.ErrTeamNotFound), apperrors.KindNotFound, "not_found"},
		{apperrors.ErrAlreadyMember, apperrors.KindConflict, "exists"},
		{fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), apperrors.KindConflict, "exists"},
		{apperrors.ErrLastAdmin, apperrors.KindConflict, "last_admin"},
		{apperrors.ErrSelfRemoval, apperrors.KindConflict, "conflict"},
		{apperrors.ErrAccountInactive, apperrors.KindForbidden, "inactive"},
		{apperrors.ErrNotTeamAdmin, apperrors.KindForbidden, "forbidden"},
		{apperrors.ErrTokenExpired, apperrors.KindGone, "expired"},
		{apperrors.ErrInvalidToken, apperrors.KindNotFound, "token"},
		{apperrors.ErrInvalidCredentials, apperrors.KindUnauthorized, "unauthorized"},
		{errors.New("connection refused"), apperrors.KindServer, "server"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.kind, apperrors.KindOf(tt.err))
			assert.Equal(t, tt.tag, apperrors.Tag(tt.err))
		})
	}
}

func TestMessage(t *testing.T) {
	err := fmt.Errorf("user u1 is not in team t1: %w", apperrors.ErrNotTeamAdmin)
	assert.Equal(t, "only team admins can do this", apperrors.Message(err))
	assert.Equal(t, "Something went wrong!", apperrors.Message(errors.New("dial tcp: refused")))
	assert.Equal(t, "Username is already taken", apperrors.Message(apperrors.ErrUsernameTaken))
	assert.Equal(t, "Email is already taken", apperrors.Message(apperrors.ErrEmailTaken))

	racing := fmt.Errorf("insert team member: %w", gorm.ErrDuplicatedKey)
	assert.Equal(t, "Resource already exists", apperrors.Message(racing))
	assert.Equal(t, "exists", apperrors.Tag(racing))
}
