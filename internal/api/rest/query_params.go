package rest

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/feral-file/ff-marketplace/internal/api/shared/constants"
	"github.com/feral-file/ff-marketplace/internal/domain"
)

// PageQueryParams holds pagination query parameters
type PageQueryParams struct {
	Limit  uint64 `form:"limit,default=20"`
	Offset uint64 `form:"offset,default=0"`
}

// ParsePageQuery parses pagination query parameters
func ParsePageQuery(c *gin.Context) (*PageQueryParams, error) {
	var params PageQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}

	// Cap limits
	if params.Limit == 0 {
		params.Limit = constants.DEFAULT_PAGE_SIZE
	}
	params.Limit = min(params.Limit, constants.MAX_PAGE_SIZE)

	return &params, nil
}

// parseTokenID parses the token id path parameter
func parseTokenID(c *gin.Context, name string) (domain.TokenID, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid token id: %s", c.Param(name))
	}
	return domain.TokenID(id), nil
}

// parseUint64 parses an unsigned path parameter
func parseUint64(c *gin.Context, name string) (uint64, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", name, c.Param(name))
	}
	return v, nil
}
