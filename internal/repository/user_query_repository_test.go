package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBuildProfileSearch_OrsEveryTermAcrossFields(t *testing.T) {
	exclude := uuid.New()
	where, args := buildProfileSearch(ProfileSearch{
		Terms:     []string{"fintech", "investor"},
		Fields:    []ProfileField{FieldRole, FieldTitle},
		ExcludeID: exclude,
	})

	assert.Equal(t, "(role ILIKE $1 OR title ILIKE $1 OR role ILIKE $2 OR title ILIKE $2) AND id <> $3", where)
	assert.Equal(t, []any{"%fintech%", "%investor%", exclude}, args)
}

func TestBuildProfileSearch_IgnoresUnknownFieldsAndBlankTerms(t *testing.T) {
	where, args := buildProfileSearch(ProfileSearch{
		Terms:  []string{" ", "jane"},
		Fields: []ProfileField{"password_hash", FieldName},
	})
	assert.Equal(t, "(name ILIKE $1)", where)
	assert.Equal(t, []any{"%jane%"}, args)

	where, args = buildProfileSearch(ProfileSearch{Terms: []string{"x"}, Fields: []ProfileField{"email"}})
	assert.Empty(t, where)
	assert.Nil(t, args)

	where, _ = buildProfileSearch(ProfileSearch{Fields: []ProfileField{FieldBio}})
	assert.Empty(t, where)
}

func TestPrefixed(t *testing.T) {
	assert.Equal(t, "u.id, u.name, u.bio", prefixed("u.", "id, name,bio"))
}
