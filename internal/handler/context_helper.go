package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func pageParams(c *gin.Context) (page, size int) {
	return queryInt(c, "page", 1), queryInt(c, "limit", 20)
}
