package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"user-reputation-service/internal/adapter/gin/httperr"
)

// pathID parses the :id parameter. It writes a 400 and returns false when invalid.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httperr.BadRequest(c, "invalid_id", "ID must be a positive number")
		return 0, false
	}
	return id, true
}

// queryInt reads an integer query parameter; missing or malformed values yield 0
// and let the usecase apply its defaults.
func queryInt(c *gin.Context, key string) int64 {
	v, err := strconv.ParseInt(c.Query(key), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func queryBool(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(c.Query(key))
	return err == nil && v
}
