package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total int64
		limit int
		want  int
	}{
		{0, 5, 0},
		{1, 5, 1},
		{5, 5, 1},
		{10, 5, 2},
		{12, 5, 3},
		{12, 0, 0},
		{12, -1, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TotalPages(tc.total, tc.limit), "total=%d limit=%d", tc.total, tc.limit)
	}
}

func TestParseUint(t *testing.T) {
	assert.Equal(t, uint(42), ParseUint("42"))
	assert.Equal(t, uint(0), ParseUint("not a number"))
	assert.Equal(t, uint(0), ParseUint(""))
}
