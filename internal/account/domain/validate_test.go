package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatName(t *testing.T) {
	t.Run("collapses whitespace and title-cases", func(t *testing.T) {
		assert.Equal(t, "John Mark De Guzman", FormatName("  john   mark  DE guzman  "))
	})

	t.Run("idempotent", func(t *testing.T) {
		once := FormatName("ana MARIA delos santos")
		assert.Equal(t, once, FormatName(once))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "", FormatName("   "))
	})

	t.Run("single word", func(t *testing.T) {
		assert.Equal(t, "Madonna", FormatName("mADONNA"))
	})
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"a@b.co", "user.name+tag@example.com", "x@sub.domain.io"}
	for _, v := range valid {
		assert.True(t, IsValidEmail(v), v)
	}

	invalid := []string{"", "plain", "a@b", "a b@c.com", "@c.com", "a@.com "}
	for _, v := range invalid {
		assert.False(t, IsValidEmail(v), v)
	}
}

func TestIsStrongPassword(t *testing.T) {
	assert.True(t, IsStrongPassword("Abcdefg1"))
	assert.True(t, IsStrongPassword("xY3aaaaaaa"))

	assert.False(t, IsStrongPassword("abcdefg1"), "missing uppercase")
	assert.False(t, IsStrongPassword("ABCDEFG1"), "missing lowercase")
	assert.False(t, IsStrongPassword("Abcdefgh"), "missing digit")
	assert.False(t, IsStrongPassword("Ab1"), "too short")
	assert.False(t, IsStrongPassword(""))
}

func TestEmailKey(t *testing.T) {
	assert.Equal(t, "user@example,com", EmailKey("user@example.com"))
	assert.Equal(t, "a,b@c,d,e", EmailKey("  A.B@C.D.E "))
	assert.Equal(t, "odd___@x,io", EmailKey("odd#$[@x.io"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeEmail("  User@Example.COM "))
}
