package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/subsets-backend/internal/domain/subsets"
	"github.com/yungbote/subsets-backend/internal/platform/apierr"
)

// boolQuery reads an optional boolean query flag.
func boolQuery(c *gin.Context, name string, def bool) (bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apierr.Validationf("query parameter %s must be true or false, got %q", name, raw)
	}
	return v, nil
}

// dateQuery reads an optional YYYY-MM-DD query parameter. ok is false when it is absent.
func dateQuery(c *gin.Context, name string) (d types.Date, ok bool, err error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return types.Date{}, false, nil
	}
	if !types.IsYearMonthDay(raw) {
		return types.Date{}, false, apierr.Validationf("query parameter %s must be a date on the form YYYY-MM-DD, got %q", name, raw)
	}
	d, err = types.ParseDate(raw)
	if err != nil {
		return types.Date{}, false, apierr.Validationf("query parameter %s: %v", name, err)
	}
	return d, true, nil
}

func bindBody(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apierr.Validationf("could not read request body: %v", err)
	}
	return nil
}
