package htmlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlatten(t *testing.T) {
	t.Run("blocks become lines", func(t *testing.T) {
		in := `<div><h2>About the role</h2><p>Build <b>Go</b> services.</p><ul><li>5+ years</li><li>SQL</li></ul></div>`
		got := Flatten(in)
		assert.Equal(t, "About the role\nBuild Go services.\n5+ years\nSQL", got)
	})

	t.Run("scripts and styles dropped", func(t *testing.T) {
		in := `<p>Visible</p><script>alert(1)</script><style>.x{}</style>`
		assert.Equal(t, "Visible", Flatten(in))
	})

	t.Run("plain text passes through", func(t *testing.T) {
		assert.Equal(t, "just text", Flatten("  just text  "))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "", Flatten(""))
	})
}
