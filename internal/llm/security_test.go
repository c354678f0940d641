package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", MaskAPIKey(""))
	assert.Equal(t, "****", MaskAPIKey("abc"))
	assert.Equal(t, "****wxyz", MaskAPIKey("AIzaSySomethingwxyz"))
}

func TestValidateAPIKey(t *testing.T) {
	assert.Error(t, ValidateAPIKey(""))
	assert.Error(t, ValidateAPIKey("   "))
	assert.Error(t, ValidateAPIKey("AIzaShort"))
	assert.Error(t, ValidateAPIKey("sk-wrong-prefix-key"))
	assert.NoError(t, ValidateAPIKey("AIzaSyValidLookingKey123"))
}

func TestLoadCatalogDefault(t *testing.T) {
	c, err := LoadCatalog("")
	assert.NoError(t, err)
	assert.True(t, c.Has("google", "gemini-2.5-flash-lite"))
	assert.False(t, c.Has("google", "not-a-model"))
	assert.Empty(t, c.Models("anthropic"))
}
