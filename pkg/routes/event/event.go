package event

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	eventrepo "github.com/datacite/events/internal/repositories/event"
)

// Register registers event routes
func Register(g *echo.Group) {
	g.GET("", ListEvents)
	g.GET("/:uuid", GetEvent)
}

// GetEvent returns a single event by uuid
func GetEvent(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("uuid")
	if uuid.Validate(id) != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid uuid")
	}

	ctx, repo, err := ectoinject.GetContext[*eventrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	event, err := repo.GetByUUID(ctx, id)
	if err != nil {
		return err
	}
	if event == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "event not found")
	}

	return c.JSON(http.StatusOK, event)
}

// ListEvents returns a page of events, filterable by the natural key fields
func ListEvents(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, repo, err := ectoinject.GetContext[*eventrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	filter := eventrepo.ListFilter{
		SubjID:         c.QueryParam("subj_id"),
		ObjID:          c.QueryParam("obj_id"),
		SourceID:       c.QueryParam("source_id"),
		RelationTypeID: c.QueryParam("relation_type_id"),
		Page:           page,
		PageSize:       pageSize,
	}

	events, err := repo.List(ctx, filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"data": events})
}
