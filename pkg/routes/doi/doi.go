package doi

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/datacite/events/pkg/enrichments"
)

// Register registers enriched DOI routes. The DOI segment is a wildcard
// because DOI suffixes can contain slashes.
func Register(g *echo.Group) {
	g.GET("", ListEnrichedDOIs)
	g.GET("/*", GetEnrichedDOI)
}

// GetEnrichedDOI returns the registry metadata for a DOI with enrichments
// applied
func GetEnrichedDOI(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, service, err := ectoinject.GetContext[*enrichments.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	record, err := service.EnrichedDOI(ctx, c.Param("*"))
	if err != nil {
		return err
	}
	if record == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "no enrichments found for doi")
	}

	return c.JSON(http.StatusOK, record)
}

// ListEnrichedDOIs returns a page of enriched DOI records
func ListEnrichedDOIs(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, service, err := ectoinject.GetContext[*enrichments.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	records, err := service.EnrichedDOIs(ctx, page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, records)
}
