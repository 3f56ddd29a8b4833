package billing

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/caseworks/caseworks/internal/platform/auth"
	"github.com/caseworks/caseworks/internal/platform/extract"
	"github.com/caseworks/caseworks/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleAttorney, auth.RoleParalegal, auth.RoleBilling))
	read.GET("/cases/:id/billing-items", h.ListLineItems)
	read.GET("/billing-items/:id", h.GetLineItem)
	read.GET("/cases/:id/billing-summary", h.GetSummary)

	write := api.Group("", auth.RequireRole(auth.RoleBilling))
	write.POST("/cases/:id/billing-items", h.CreateLineItem)
	write.PUT("/billing-items/:id", h.UpdateLineItem)
	write.DELETE("/billing-items/:id", h.DeleteLineItem)
	write.POST("/cases/:id/billing-items/import", h.ImportRecords)
	write.POST("/cases/:id/billing-summary/apply", h.ApplySummary)
}

func httpError(err error) error {
	var vErr *ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.As(err, &vErr):
		return echo.NewHTTPError(http.StatusBadRequest, vErr.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) CreateLineItem(c echo.Context) error {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid case id")
	}

	var item BillLineItem
	if err := c.Bind(&item); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	item.CaseID = caseID

	if err := h.svc.CreateLineItem(c.Request().Context(), &item); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *Handler) GetLineItem(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid line item id")
	}
	item, err := h.svc.GetLineItem(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *Handler) UpdateLineItem(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid line item id")
	}

	var item BillLineItem
	if err := c.Bind(&item); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	item.ID = id

	if err := h.svc.UpdateLineItem(c.Request().Context(), &item); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *Handler) DeleteLineItem(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid line item id")
	}
	if err := h.svc.DeleteLineItem(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListLineItems(c echo.Context) error {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid case id")
	}

	p := pagination.FromContext(c)
	items, total, err := h.svc.ListLineItems(c.Request().Context(), caseID, p.Limit, p.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) GetSummary(c echo.Context) error {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid case id")
	}
	summary, err := h.svc.Summary(c.Request().Context(), caseID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) ApplySummary(c echo.Context) error {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid case id")
	}
	summary, err := h.svc.ApplySummary(c.Request().Context(), caseID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

type importRequest struct {
	Records []extract.RawBillRecord `json:"records"`
}

type importResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

func (h *Handler) ImportRecords(c echo.Context) error {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid case id")
	}

	var req importRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	imported, skipped, err := h.svc.ImportRecords(c.Request().Context(), caseID, req.Records)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, importResponse{Imported: imported, Skipped: skipped})
}
