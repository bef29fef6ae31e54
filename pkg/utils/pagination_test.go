package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestGetPaginationParams(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?page=3&limit=500", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	p := GetPaginationParams(c, 20)

	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 20, p.PageSize)
	assert.Equal(t, 40, p.Offset)
}

func TestWindow(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{3, 4}, Window(items, PaginationParams{Page: 2, PageSize: 2, Offset: 2}))
	assert.Equal(t, []int{5}, Window(items, PaginationParams{Page: 3, PageSize: 2, Offset: 4}))
	assert.Empty(t, Window(items, PaginationParams{Page: 9, PageSize: 2, Offset: 16}))
}
