package utils

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Int64ToStr converts an int64 to its string representation.
func Int64ToStr(num int64) string {
	return strconv.FormatInt(num, 10)
}

// StrToInt64 converts a string to an int64.
func StrToInt64(s string) (int64, error) {
	num, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse '%s' as int64: %w", s, err)
	}
	return num, nil
}

// ParseIDParam reads a positive int64 path parameter. On failure it writes a 400 response and returns false.
func ParseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := StrToInt64(c.Param(name))
	if err != nil || id <= 0 {
		RespondValidationFailed(c, "invalid "+name+": must be a positive integer")
		return 0, false
	}
	return id, true
}

// ParseTimeQuery reads an optional RFC 3339 or YYYY-MM-DD query parameter. Empty yields the zero time.
func ParseTimeQuery(c *gin.Context, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: use RFC 3339 or YYYY-MM-DD", name)
	}
	return t, nil
}
