package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripFences(t *testing.T) {
	t.Run("bare json untouched", func(t *testing.T) {
		assert.Equal(t, `{"a":1}`, stripFences(`{"a":1}`))
	})

	t.Run("json fence stripped", func(t *testing.T) {
		in := "```json\n{\"a\":1}\n```"
		assert.Equal(t, `{"a":1}`, stripFences(in))
	})

	t.Run("anonymous fence stripped", func(t *testing.T) {
		in := "```\n{\"a\":1}\n```"
		assert.Equal(t, `{"a":1}`, stripFences(in))
	})
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	_, err := NewGeminiClient(t.Context(), "", "gemini-2.0-flash")
	assert.Error(t, err)
}
