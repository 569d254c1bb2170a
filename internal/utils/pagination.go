// Package utils provides small helper functions shared across layers.
package utils

import "strconv"

// AtoiDefault parses an int, falling back to def for empty or malformed
// input. The HTTP handlers use it to clamp page/page_size query parameters
// without surfacing parse errors to the client:
//
//	page := utils.AtoiDefault(c.Query("page"), 1)
//	size := utils.AtoiDefault(c.Query("page_size"), 20)
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
