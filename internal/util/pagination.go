package util

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPage         = 100000
)

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	if page > MaxPage {
		return MaxPage
	}
	return page
}

func Calculate(page, size int) (offset int, limit int) {
	page = clampPage(page)
	if size < 1 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return (page - 1) * size, size
}

// Page reads ?page= and ?size= from the query string.
func Page(c echo.Context) (page, size, offset, limit int) {
	page = clampPage(ParseIntDefault(c.QueryParam("page"), 1))
	size = ParseIntDefault(c.QueryParam("size"), DefaultPageSize)
	offset, limit = Calculate(page, size)
	return page, limit, offset, limit
}

// ParseID reads a positive integer path parameter.
func ParseID(c echo.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}
