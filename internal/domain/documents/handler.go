package documents

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/caseworks/caseworks/internal/platform/auth"
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
	read.GET("/cases/:id/documents", h.List)
	read.GET("/documents/:id", h.Get)
	read.GET("/documents/:id/content", h.Download)

	write := api.Group("", auth.RequireRole(auth.RoleAttorney, auth.RoleParalegal))
	write.POST("/cases/:id/documents", h.Upload)
	write.DELETE("/documents/:id", h.Delete)

	extract := api.Group("", auth.RequireRole(auth.RoleBilling))
	extract.POST("/cases/:id/documents/extract-bills", h.ExtractBills)
}

// Upload accepts multipart form uploads with a `file` part, or a raw body
// with the document name in the `name` query parameter.
func (h *Handler) Upload(c echo.Context) error {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid case id")
	}

	doc := &CaseDocument{
		CaseID:   caseID,
		Category: c.QueryParam("category"),
	}
	if userID := auth.UserIDFromContext(c.Request().Context()); userID != "" {
		doc.UploadedBy = &userID
	}

	if file, err := c.FormFile("file"); err == nil {
		src, err := file.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		defer src.Close()

		content, err := io.ReadAll(io.LimitReader(src, maxDocumentBytes+1))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		doc.Name = file.Filename
		doc.ContentType = file.Header.Get("Content-Type")
		doc.Content = content
	} else {
		content, err := io.ReadAll(io.LimitReader(c.Request().Body, maxDocumentBytes+1))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		doc.Name = c.QueryParam("name")
		doc.ContentType = c.Request().Header.Get("Content-Type")
		doc.Content = content
	}

	if err := h.svc.Upload(c.Request().Context(), doc); err != nil {
		return uploadError(err)
	}

	doc.Content = nil // metadata only in the response
	return c.JSON(http.StatusCreated, doc)
}

func uploadError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "case not found")
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid document id")
	}
	doc, err := h.svc.Get(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "document not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	doc.Content = nil
	return c.JSON(http.StatusOK, doc)
}

func (h *Handler) Download(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid document id")
	}
	doc, err := h.svc.Get(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "document not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Blob(http.StatusOK, doc.ContentType, doc.Content)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid document id")
	}
	err = h.svc.Delete(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "document not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) List(c echo.Context) error {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid case id")
	}

	p := pagination.FromContext(c)
	docs, total, err := h.svc.List(c.Request().Context(), caseID, p.Limit, p.Offset)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "case not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(docs, total, p.Limit, p.Offset))
}

func (h *Handler) ExtractBills(c echo.Context) error {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid case id")
	}
	result, err := h.svc.ExtractBills(c.Request().Context(), caseID)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "case not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}
