package handlers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

func parsePaginationParams(pageStr, limitStr string, defaultLimit int64) (int64, int64, error) {
	page := int64(1)
	limit := defaultLimit

	if pageStr != "" {
		p, err := strconv.ParseInt(pageStr, 10, 64)
		if err != nil || p < 1 {
			return 0, 0, fmt.Errorf("invalid page: %s", pageStr)
		}
		page = p
	}

	if limitStr != "" {
		l, err := strconv.ParseInt(limitStr, 10, 64)
		if err != nil || l < 1 {
			return 0, 0, fmt.Errorf("invalid limit: %s", limitStr)
		}
		limit = l
	}

	return page, limit, nil
}

// paginationFromQuery reads page/limit query params with a per-endpoint
// default page size.
func paginationFromQuery(c *gin.Context, defaultLimit int64) (page, limit, skip int64, err error) {
	page, limit, err = parsePaginationParams(c.Query("page"), c.Query("limit"), defaultLimit)
	if err != nil {
		return 0, 0, 0, err
	}
	return page, limit, (page - 1) * limit, nil
}
