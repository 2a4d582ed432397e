package pagination

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.PerPage)
	assert.Equal(t, 0, p.Offset)
}

func TestFromValues(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		page    int
		perPage int
		offset  int
	}{
		{"defaults", "", 1, 10, 0},
		{"custom", "page=3&perPage=25", 3, 25, 50},
		{"negative page", "page=-1", 1, 10, 0},
		{"zero page", "page=0", 1, 10, 0},
		{"not a number", "page=abc&perPage=x", 1, 10, 0},
		{"per page capped", "perPage=500", 1, 100, 0},
		{"snake case ignored", "per_page=50", 1, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			assert.NoError(t, err)

			p := FromValues(q)
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.perPage, p.PerPage)
			assert.Equal(t, tt.offset, p.Offset)
		})
	}
}

func TestWindow(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	assert.Equal(t, []int{1, 2, 3}, Window(items, Params{Page: 1, PerPage: 3, Offset: 0}))
	assert.Equal(t, []int{7}, Window(items, Params{Page: 3, PerPage: 3, Offset: 6}))
	assert.Empty(t, Window(items, Params{Page: 4, PerPage: 3, Offset: 9}))
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 3, TotalPages(21, 10))
	assert.Equal(t, 0, TotalPages(5, 0))
}
