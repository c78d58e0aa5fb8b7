package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashAndCheckSecret(t *testing.T) {
	hash, err := HashSecret("sk_test_4eC39HqLyjWDarjtT1zdp7dc")
	assert.NoError(t, err)
	assert.NotEmpty(t, hash)

	assert.True(t, CheckSecret("sk_test_4eC39HqLyjWDarjtT1zdp7dc", hash))
	assert.False(t, CheckSecret("sk_test_wrong", hash))
}

func TestGenerateRandomToken(t *testing.T) {
	token, err := GenerateRandomToken(16)
	assert.NoError(t, err)
	assert.Len(t, token, 32) // hex encoded

	secret, err := GenerateWebhookSecret()
	assert.NoError(t, err)
	assert.Len(t, secret, 32)
}

func TestCipherRoundTrip(t *testing.T) {
	key := strings.Repeat("ab", 32)
	c, err := NewCipher(key)
	assert.NoError(t, err)

	sealed, err := c.Encrypt([]byte("whsec_abc123"))
	assert.NoError(t, err)
	assert.NotContains(t, sealed, "whsec")

	opened, err := c.Decrypt(sealed)
	assert.NoError(t, err)
	assert.Equal(t, "whsec_abc123", string(opened))
}

func TestCipherRejectsBadInput(t *testing.T) {
	_, err := NewCipher("not-hex")
	assert.Error(t, err)

	_, err = NewCipher("abcd")
	assert.Error(t, err)

	c, err := NewCipher(strings.Repeat("00", 32))
	assert.NoError(t, err)

	_, err = c.Decrypt("zz")
	assert.Error(t, err)

	_, err = c.Decrypt("abcd")
	assert.Error(t, err)

	other, _ := NewCipher(strings.Repeat("11", 32))
	sealed, err := other.Encrypt([]byte("payload"))
	assert.NoError(t, err)

	_, err = c.Decrypt(sealed)
	assert.Error(t, err)
}
