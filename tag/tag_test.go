package tag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompatibleAny(t *testing.T) {
	have := []Tag{{"cp39", "cp39", "manylinux_x86_64"}, {"py3", "none", "any"}}

	assert.True(t, CompatibleAny(have, func() []Tag {
		return []Tag{{"py3", "none", "any"}}
	}))

	assert.False(t, CompatibleAny(have, func() []Tag {
		return []Tag{{"py2", "none", "any"}}
	}))

	assert.False(t, CompatibleAny(have, func() []Tag {
		return nil
	}))
}
