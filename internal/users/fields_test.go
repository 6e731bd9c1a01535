package users_test

import (
	"testing"
	"time"

	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserProfile_Apply(t *testing.T) {
	p := users.UserProfile{Name: "Jane", Address: strPtr("1 Main St")}
	roleID := uuid.New()

	out, err := p.Apply(users.ChangeSet{
		users.FieldName:         "Jane Smith",
		users.FieldAddress:      nil,
		users.FieldRoleID:       roleID.String(),
		users.FieldDateOfBirth:  "1990-05-01",
		users.FieldIsFirstLogin: "false",
	})

	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", out.Name)
	assert.Nil(t, out.Address)
	assert.Equal(t, roleID, *out.RoleID)
	assert.Equal(t, "1990-05-01", out.DateOfBirth.Format(users.DateLayout))
	assert.False(t, out.IsFirstLogin)
	assert.Equal(t, "Jane", p.Name, "original must stay untouched")
}

func TestUserProfile_ApplyErrors(t *testing.T) {
	p := users.UserProfile{}
	for _, cs := range []users.ChangeSet{
		{"salary": "1"},
		{users.FieldName: 5},
		{users.FieldRoleID: "nope"},
		{users.FieldDateOfBirth: "01/05/1990"},
	} {
		_, err := p.Apply(cs)
		assert.Error(t, err, "%v", cs)
	}
}

func TestUserProfile_ChangedFields(t *testing.T) {
	dob := time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)
	p := users.UserProfile{Name: "Jane", MobileNo: strPtr("+1 555 000 0000"), DateOfBirth: &dob}

	changed, err := p.ChangedFields(users.ChangeSet{
		users.FieldName:        "Jane",
		users.FieldMobileNo:    "+1 555 111 1111",
		users.FieldAddress:     nil,
		users.FieldDateOfBirth: "1990-05-01",
		users.FieldNationality: "Kenyan",
		users.FieldUpdatedAt:   time.Now(),
	})

	require.NoError(t, err)
	assert.Equal(t, []string{users.FieldMobileNo, users.FieldNationality}, changed)
}
