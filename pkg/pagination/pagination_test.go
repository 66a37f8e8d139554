package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func parseQuery(query string) Params {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return Parse(c)
}

func TestParse(t *testing.T) {
	cases := []struct {
		query string
		want  Params
	}{
		{"", Params{Page: 1, Limit: 10, Offset: 0}},
		{"page=3&limit=20", Params{Page: 3, Limit: 20, Offset: 40}},
		{"page=2&page_size=5", Params{Page: 2, Limit: 5, Offset: 5}},
		{"page=0&limit=0", Params{Page: 1, Limit: 10, Offset: 0}},
		{"page=abc&limit=1000", Params{Page: 1, Limit: 100, Offset: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			assert.Equal(t, tc.want, parseQuery(tc.query))
		})
	}
}

func TestParseWithMaxForBoard(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?limit=800", nil)

	assert.Equal(t, Params{Page: 1, Limit: BoardLimit, Offset: 0}, ParseWithMax(c, BoardLimit, BoardLimit))
}
