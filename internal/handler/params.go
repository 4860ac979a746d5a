package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appErrors "github.com/atlasnet/linetrack-api/pkg/errors"
)

// parseID extracts a positive numeric path parameter.
func parseID(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.New(appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid "+name+" parameter")
	}
	return id, nil
}

// queryInt64 parses an optional numeric query parameter, returning 0 when absent.
func queryInt64(c *gin.Context, name string) int64 {
	raw := c.Query(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// queryInt parses an optional int query parameter, returning 0 when absent.
func queryInt(c *gin.Context, name string) int {
	return int(queryInt64(c, name))
}
