package documents

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

func testHandler(t *testing.T, caseID uuid.UUID) (*Handler, *memRepo) {
	t.Helper()
	svc, repo, _ := testService(t, caseID)
	return NewHandler(svc), repo
}

func TestHandlerUpload_RawBody(t *testing.T) {
	caseID := uuid.New()
	h, repo := testHandler(t, caseID)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost,
		"/api/v1/cases/"+caseID.String()+"/documents?name=bill.csv&category=billing",
		strings.NewReader("provider,amount\nDr. Smith,500\n"))
	req.Header.Set(echo.HeaderContentType, "text/csv")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(caseID.String())

	if err := h.Upload(c); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}

	var got CaseDocument
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Name != "bill.csv" || got.Category != CategoryBilling {
		t.Errorf("response doc = %+v", got)
	}
	if len(got.Content) != 0 {
		t.Error("response should carry metadata only, not content")
	}

	stored, err := repo.GetByID(context.Background(), got.ID)
	if err != nil {
		t.Fatalf("stored doc: %v", err)
	}
	if len(stored.Content) == 0 {
		t.Error("stored doc should keep content")
	}
}

func TestHandlerUpload_UnknownCase(t *testing.T) {
	h, _ := testHandler(t, uuid.New())

	other := uuid.New()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost,
		"/api/v1/cases/"+other.String()+"/documents?name=a.csv", strings.NewReader("x"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(other.String())

	err := h.Upload(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Fatalf("got %v, want 404", err)
	}
}

func TestHandlerDownload(t *testing.T) {
	caseID := uuid.New()
	h, repo := testHandler(t, caseID)

	doc := &CaseDocument{CaseID: caseID, Name: "a.csv", Category: CategoryBilling, ContentType: "text/csv", Content: []byte("a,b\n")}
	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("seed: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+doc.ID.String()+"/content", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(doc.ID.String())

	if err := h.Download(c); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "a,b\n" {
		t.Errorf("body = %q", got)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "text/csv" {
		t.Errorf("content type = %q, want text/csv", ct)
	}
}

func TestHandlerExtractBills_InvalidCaseID(t *testing.T) {
	h, _ := testHandler(t, uuid.New())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cases/nope/documents/extract-bills", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("nope")

	err := h.ExtractBills(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("got %v, want 400", err)
	}
}
