package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// CSVExtractor parses billing exports in CSV form. The first row must be a
// header; column names are matched case-insensitively.
type CSVExtractor struct{}

func NewCSVExtractor() *CSVExtractor {
	return &CSVExtractor{}
}

var csvColumns = map[string]string{
	"provider":       "provider",
	"provider_name":  "provider",
	"service_type":   "service_type",
	"encounter_type": "encounter_type",
	"code":           "code",
	"service_code":   "code",
	"cpt_code":       "code",
	"description":    "description",
	"date":           "date",
	"service_date":   "date",
	"amount":         "amount",
	"billed_amount":  "amount",
	"paid":           "paid",
	"paid_amount":    "paid",
	"status":         "status",
}

func (e *CSVExtractor) Extract(ctx context.Context, doc Document) ([]RawBillRecord, error) {
	reader := csv.NewReader(bytes.NewReader(doc.Content))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	cols := make(map[string]int)
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if canonical, ok := csvColumns[key]; ok {
			cols[canonical] = i
		}
	}
	if _, ok := cols["amount"]; !ok {
		return nil, fmt.Errorf("CSV missing amount column")
	}

	var records []RawBillRecord
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV row: %w", err)
		}

		rec := RawBillRecord{DocumentID: doc.ID}
		rec.ProviderName = field(row, cols, "provider")
		rec.ServiceType = field(row, cols, "service_type")
		rec.EncounterType = field(row, cols, "encounter_type")
		rec.ServiceCode = field(row, cols, "code")
		rec.Description = field(row, cols, "description")
		rec.Amount = field(row, cols, "amount")
		rec.PaidAmount = field(row, cols, "paid")
		rec.Status = field(row, cols, "status")
		if raw := field(row, cols, "date"); raw != "" {
			rec.ServiceDate = parseDate(raw)
		}
		records = append(records, rec)
	}
	return records, nil
}

func field(row []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	time.RFC3339,
}

func parseDate(raw string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// JSONExtractor parses billing exports serialized as a JSON array of line
// objects.
type JSONExtractor struct{}

func NewJSONExtractor() *JSONExtractor {
	return &JSONExtractor{}
}

type jsonBillLine struct {
	Provider      string `json:"provider"`
	ServiceType   string `json:"service_type"`
	EncounterType string `json:"encounter_type"`
	Code          string `json:"code"`
	Description   string `json:"description"`
	Date          string `json:"date"`
	Amount        string `json:"amount"`
	Paid          string `json:"paid,omitempty"`
	Status        string `json:"status,omitempty"`
}

func (e *JSONExtractor) Extract(ctx context.Context, doc Document) ([]RawBillRecord, error) {
	var lines []jsonBillLine
	if err := json.Unmarshal(doc.Content, &lines); err != nil {
		return nil, fmt.Errorf("decode JSON bill lines: %w", err)
	}

	records := make([]RawBillRecord, 0, len(lines))
	for _, line := range lines {
		rec := RawBillRecord{
			DocumentID:    doc.ID,
			ProviderName:  line.Provider,
			ServiceType:   line.ServiceType,
			EncounterType: line.EncounterType,
			ServiceCode:   line.Code,
			Description:   line.Description,
			Amount:        line.Amount,
			PaidAmount:    line.Paid,
			Status:        line.Status,
		}
		if line.Date != "" {
			rec.ServiceDate = parseDate(line.Date)
		}
		records = append(records, rec)
	}
	return records, nil
}

// ForContentType picks the extractor matching a document MIME type.
// Unsupported types return nil.
func ForContentType(contentType string) Extractor {
	switch {
	case strings.Contains(contentType, "csv"):
		return NewCSVExtractor()
	case strings.Contains(contentType, "json"):
		return NewJSONExtractor()
	default:
		return nil
	}
}

// AutoExtractor dispatches on each document's content type. Documents with
// an unsupported type fail individually, which the runner treats like any
// other parse failure.
type AutoExtractor struct{}

func NewAutoExtractor() *AutoExtractor { return &AutoExtractor{} }

func (a *AutoExtractor) Extract(ctx context.Context, doc Document) ([]RawBillRecord, error) {
	ext := ForContentType(doc.ContentType)
	if ext == nil {
		return nil, fmt.Errorf("unsupported content type %q", doc.ContentType)
	}
	return ext.Extract(ctx, doc)
}
