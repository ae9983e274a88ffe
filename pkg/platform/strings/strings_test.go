package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompactTrim(t *testing.T) {
	assert.Equal(t, []string{"foo", "bar", "foo"}, CompactTrim([]string{"  foo ", "", "bar", "  ", "foo"}))
	assert.Empty(t, CompactTrim([]string{"", "   "}))
	assert.Nil(t, CompactTrim(nil))
}

func TestDedupeAndTrim(t *testing.T) {
	assert.Equal(t, []string{"foo", "bar"}, DedupeAndTrim([]string{"  foo ", "bar", "foo", "", "  "}))
	assert.Nil(t, DedupeAndTrim(nil))
}
