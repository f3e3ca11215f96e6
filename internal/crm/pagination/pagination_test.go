package pagination

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromQuery(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		wantPage    int
		wantPerPage int
	}{
		{name: "defaults", query: "", wantPage: 1, wantPerPage: 10},
		{name: "explicit", query: "page=3&per_page=25", wantPage: 3, wantPerPage: 25},
		{name: "garbage", query: "page=abc&per_page=-4", wantPage: 1, wantPerPage: 10},
		{name: "clamped", query: "page=0&per_page=1000", wantPage: 1, wantPerPage: MaxPerPage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			r := FromQuery("http://crm.test/api/companies", q)

			assert.Equal(t, tt.wantPage, r.Page)
			assert.Equal(t, tt.wantPerPage, r.PerPage)
			assert.NotContains(t, r.Query, "page")
		})
	}
}

func TestNewMeta_MiddlePage(t *testing.T) {
	q, _ := url.ParseQuery("page=2&per_page=10&company_id=7")
	r := FromQuery("http://crm.test/api/employees", q)

	meta := NewMeta(r, 25, 10)

	assert.Equal(t, 2, meta.CurrentPage)
	assert.Equal(t, 3, meta.LastPage)
	assert.Equal(t, 11, *meta.From)
	assert.Equal(t, 20, *meta.To)
	assert.True(t, meta.HasMorePages)
	assert.False(t, meta.OnFirstPage)
	assert.Equal(t, "http://crm.test/api/employees?company_id=7&page=3&per_page=10", *meta.NextPageURL)
	assert.Equal(t, "http://crm.test/api/employees?company_id=7&page=1&per_page=10", *meta.PrevPageURL)
	assert.Equal(t, "http://crm.test/api/employees?company_id=7&page=1&per_page=10", meta.FirstPageURL)
	assert.Equal(t, "http://crm.test/api/employees", meta.Path)
}

func TestNewMeta_Empty(t *testing.T) {
	r := FromQuery("http://crm.test/api/companies", url.Values{})

	meta := NewMeta(r, 0, 0)

	assert.Equal(t, 1, meta.LastPage)
	assert.Nil(t, meta.From)
	assert.Nil(t, meta.To)
	assert.Nil(t, meta.NextPageURL)
	assert.Nil(t, meta.PrevPageURL)
	assert.False(t, meta.HasMorePages)
	assert.True(t, meta.OnFirstPage)
}

func TestMap(t *testing.T) {
	p := &Page[int]{Items: []int{1, 2, 3}, Total: 3}

	out := Map(p, func(i int) string { return string(rune('a' + i - 1)) })

	assert.Equal(t, []string{"a", "b", "c"}, out)
}
