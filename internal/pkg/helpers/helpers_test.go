package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateOffsetLimit(t *testing.T) {
	offset, limit := CalculateOffsetLimit(3, 10)
	assert.Equal(t, uint64(20), offset)
	assert.Equal(t, uint64(10), limit)

	offset, limit = CalculateOffsetLimit(0, 500)
	assert.Equal(t, uint64(0), offset)
	assert.Equal(t, uint64(DefaultPageSize), limit)
}

func TestNewPaginationInfo(t *testing.T) {
	info := NewPaginationInfo(41, 2, 20)
	assert.Equal(t, 3, info.TotalPages)
	assert.Equal(t, 2, info.CurrentPage)
	assert.Equal(t, int64(41), info.TotalItems)

	empty := NewPaginationInfo(0, 1, 20)
	assert.Equal(t, 1, empty.TotalPages)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2004-05-17")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2004, 5, 17, 0, 0, 0, 0, time.UTC), *d)

	d, err = ParseDate(" ")
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = ParseDate("17/05/2004")
	assert.Error(t, err)

	assert.Equal(t, time.Minute, ParseDuration("bogus", time.Minute))
}
