package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("Str0ngPass", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "Str0ngPass", hash)

	assert.NoError(t, ComparePassword(hash, "Str0ngPass"))
	assert.Error(t, ComparePassword(hash, "WrongPass1"))
}

func TestValidatePasswordPolicy(t *testing.T) {
	assert.NoError(t, ValidatePasswordPolicy("Str0ngPass"))

	cases := map[string]string{
		"Sh0rt":        "Password must be at least 8 characters long",
		"alllower1":    "Password must include at least one uppercase letter",
		"ALLUPPER1":    "Password must include at least one lowercase letter",
		"NoDigitsHere": "Password must include at least one digit",
	}
	for password, message := range cases {
		err := ValidatePasswordPolicy(password)
		require.Error(t, err, password)
		assert.Contains(t, err.Error(), message)
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "dana@example.com", NormalizeEmail("  Dana@Example.COM "))
}
