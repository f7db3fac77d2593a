package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewParams(t *testing.T) {
	tests := []struct {
		page, limit         int
		wantPage, wantLimit int
		wantOffset          int
	}{
		{1, 20, 1, 20, 0},
		{3, 10, 3, 10, 20},
		{0, 0, 1, DefaultLimit, 0},
		{-2, 500, 1, MaxLimit, 0},
	}
	for _, tt := range tests {
		p := NewParams(tt.page, tt.limit)
		assert.Equal(t, tt.wantPage, p.Page)
		assert.Equal(t, tt.wantLimit, p.Limit)
		assert.Equal(t, tt.wantOffset, p.Offset)
	}
}

func TestGetMeta(t *testing.T) {
	meta := GetMeta(NewParams(2, 10), 25)
	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasNext)
	assert.True(t, meta.HasPrev)

	meta = GetMeta(NewParams(1, 10), 0)
	assert.Equal(t, 0, meta.TotalPages)
	assert.False(t, meta.HasNext)
	assert.False(t, meta.HasPrev)
}
