package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	cases := []struct {
		page, size     int
		offset, limit int
	}{
		{1, 12, 0, 12},
		{3, 10, 20, 10},
		{0, 0, 0, DefaultPageSize},
		{2, 1000, DefaultPageSize, DefaultPageSize},
	}
	for _, tc := range cases {
		offset, limit := Calculate(tc.page, tc.size)
		require.Equal(t, tc.offset, offset, "page=%d size=%d", tc.page, tc.size)
		require.Equal(t, tc.limit, limit, "page=%d size=%d", tc.page, tc.size)
	}
}

func TestParseHelpers(t *testing.T) {
	require.Equal(t, 5, ParseIntDefault("5", 1))
	require.Equal(t, 1, ParseIntDefault("abc", 1))

	id, ok := ParseUint("42")
	require.True(t, ok)
	require.Equal(t, uint(42), id)
	_, ok = ParseUint("0")
	require.False(t, ok)
	_, ok = ParseUint("-3")
	require.False(t, ok)
}

func TestTotalPages(t *testing.T) {
	require.EqualValues(t, 0, TotalPages(0, 12))
	require.EqualValues(t, 1, TotalPages(12, 12))
	require.EqualValues(t, 2, TotalPages(13, 12))
}
