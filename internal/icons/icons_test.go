package icons_test

import (
	"testing"

	"github.com/drstein77/shopsphere/internal/icons"
	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	assert.Equal(t, icons.Glyph{Name: "Check", Symbol: "✓"}, icons.Resolve("Check"))

	for _, name := range []string{"", "NoSuchIcon", "check"} {
		got := icons.Resolve(name)
		assert.Equal(t, icons.Fallback, got.Name, name)
		assert.NotEmpty(t, got.Symbol)
	}
}
