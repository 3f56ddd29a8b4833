package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func testHandler(t *testing.T, caseID uuid.UUID) (*Handler, *memLineItemRepo) {
	t.Helper()
	svc, repo, _ := testService(t, caseID)
	return NewHandler(svc), repo
}

func request(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandlerCreateLineItem(t *testing.T) {
	caseID := uuid.New()
	h, repo := testHandler(t, caseID)

	c, rec := request(t, http.MethodPost, "/api/v1/cases/"+caseID.String()+"/billing-items",
		`{"provider_name":"Dr. Smith","service_code":"99213","billed_amount":500}`)
	c.SetParamNames("id")
	c.SetParamValues(caseID.String())

	if err := h.CreateLineItem(c); err != nil {
		t.Fatalf("CreateLineItem: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if len(repo.items) != 1 {
		t.Fatalf("stored %d items, want 1", len(repo.items))
	}

	var got BillLineItem
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.CaseID != caseID || got.BilledAmount != 500 {
		t.Errorf("response item = %+v", got)
	}
}

func TestHandlerCreateLineItem_InvalidCaseID(t *testing.T) {
	h, _ := testHandler(t, uuid.New())

	c, _ := request(t, http.MethodPost, "/api/v1/cases/not-a-uuid/billing-items", `{}`)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	err := h.CreateLineItem(c)
	var httpErr *echo.HTTPError
	if !asHTTPError(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("got %v, want 400", err)
	}
}

func TestHandlerCreateLineItem_ValidationError(t *testing.T) {
	caseID := uuid.New()
	h, _ := testHandler(t, caseID)

	c, _ := request(t, http.MethodPost, "/api/v1/cases/"+caseID.String()+"/billing-items",
		`{"billed_amount":100}`)
	c.SetParamNames("id")
	c.SetParamValues(caseID.String())

	err := h.CreateLineItem(c)
	var httpErr *echo.HTTPError
	if !asHTTPError(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("got %v, want 400 for missing provider", err)
	}
}

func TestHandlerGetLineItem_NotFound(t *testing.T) {
	h, _ := testHandler(t, uuid.New())

	id := uuid.New()
	c, _ := request(t, http.MethodGet, "/api/v1/billing-items/"+id.String(), "")
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	err := h.GetLineItem(c)
	var httpErr *echo.HTTPError
	if !asHTTPError(err, &httpErr) || httpErr.Code != http.StatusNotFound {
		t.Fatalf("got %v, want 404", err)
	}
}

func TestHandlerGetSummary(t *testing.T) {
	caseID := uuid.New()
	h, repo := testHandler(t, caseID)

	item := lineItem(1, "Dr. Smith", "99213", day("2024-03-15"), 500)
	item.CaseID = caseID
	repo.Create(context.Background(), item)

	c, rec := request(t, http.MethodGet, "/api/v1/cases/"+caseID.String()+"/billing-summary", "")
	c.SetParamNames("id")
	c.SetParamValues(caseID.String())

	if err := h.GetSummary(c); err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	var got BillingSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ItemCount != 1 || got.TotalBilled != 500 {
		t.Errorf("summary = %+v, want 1 item totaling 500", got)
	}
	if len(got.Rows) != 1 || got.Rows[0].Assessment != AssessmentExcessive {
		t.Errorf("rows = %+v, want one excessive assessment", got.Rows)
	}
}

func TestHandlerGetSummary_UnknownCase(t *testing.T) {
	h, _ := testHandler(t, uuid.New())

	other := uuid.New()
	c, _ := request(t, http.MethodGet, "/api/v1/cases/"+other.String()+"/billing-summary", "")
	c.SetParamNames("id")
	c.SetParamValues(other.String())

	err := h.GetSummary(c)
	var httpErr *echo.HTTPError
	if !asHTTPError(err, &httpErr) || httpErr.Code != http.StatusNotFound {
		t.Fatalf("got %v, want 404", err)
	}
}

func TestHandlerImportRecords(t *testing.T) {
	caseID := uuid.New()
	h, repo := testHandler(t, caseID)

	body := `{"records":[
		{"provider_name":"Mercy Hospital","service_code":"99285","amount":"$1,250.50"},
		{"provider_name":"Dr. Smith","service_code":"99213","amount":"bad"}
	]}`
	c, rec := request(t, http.MethodPost, "/api/v1/cases/"+caseID.String()+"/billing-items/import", body)
	c.SetParamNames("id")
	c.SetParamValues(caseID.String())

	if err := h.ImportRecords(c); err != nil {
		t.Fatalf("ImportRecords: %v", err)
	}
	var got importResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Imported != 1 || got.Skipped != 1 {
		t.Errorf("response = %+v, want 1 imported, 1 skipped", got)
	}
	if len(repo.items) != 1 {
		t.Errorf("stored %d items, want 1", len(repo.items))
	}
}

func TestHandlerDeleteLineItem(t *testing.T) {
	caseID := uuid.New()
	h, repo := testHandler(t, caseID)

	item := lineItem(1, "Dr. Smith", "99213", day("2024-03-15"), 100)
	item.CaseID = caseID
	repo.Create(context.Background(), item)

	c, rec := request(t, http.MethodDelete, "/api/v1/billing-items/"+item.ID.String(), "")
	c.SetParamNames("id")
	c.SetParamValues(item.ID.String())

	if err := h.DeleteLineItem(c); err != nil {
		t.Fatalf("DeleteLineItem: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if len(repo.items) != 0 {
		t.Error("item should be gone")
	}
}

func asHTTPError(err error, target **echo.HTTPError) bool {
	he, ok := err.(*echo.HTTPError)
	if ok {
		*target = he
	}
	return ok
}
