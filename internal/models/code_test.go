package models

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidCode(t *testing.T) {
	valid := []string{"410", "410.1", "410.12", "410.1.2", "41", "1.2.3.4"}
	for _, code := range valid {
		assert.True(t, IsValidCode(code), "expected %q to be valid", code)
	}

	invalid := []string{"", "abc", "410.", ".410", "410.a", "410..1", "410-1", "410 1"}
	for _, code := range invalid {
		assert.False(t, IsValidCode(code), "expected %q to be invalid", code)
	}
}

func TestParentCode(t *testing.T) {
	assert.Equal(t, "410", ParentCode("410.1"))
	assert.Equal(t, "410.1", ParentCode("410.1.2"))
	assert.Equal(t, "", ParentCode("410"))
	assert.Equal(t, "", ParentCode("abc"))
}

func TestCompareCodes(t *testing.T) {
	assert.Equal(t, -1, CompareCodes("410.2", "410.10"), "segments compare numerically")
	assert.Equal(t, 1, CompareCodes("410.10", "410.2"))
	assert.Equal(t, 0, CompareCodes("410.1", "410.1"))
	assert.Equal(t, -1, CompareCodes("410", "410.1"), "parents sort before children")
	assert.Equal(t, -1, CompareCodes("205", "410"))
	assert.Equal(t, -1, CompareCodes("abc", "abd"), "non-numeric segments fall back to string order")
}

func TestCompareCodesSortOrder(t *testing.T) {
	codes := []string{"410.10", "205", "410.2", "410", "520.1", "410.1"}
	sort.Slice(codes, func(i, j int) bool {
		return CompareCodes(codes[i], codes[j]) < 0
	})

	assert.Equal(t, []string{"205", "410", "410.1", "410.2", "410.10", "520.1"}, codes)
}
