package chronology

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type memRepo struct {
	entries map[uuid.UUID]*Entry
}

func newMemRepo() *memRepo {
	return &memRepo{entries: make(map[uuid.UUID]*Entry)}
}

func (r *memRepo) Create(_ context.Context, e *Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.entries[e.ID] = e
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Entry, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

func (r *memRepo) Update(_ context.Context, e *Entry) error {
	if _, ok := r.entries[e.ID]; !ok {
		return ErrNotFound
	}
	r.entries[e.ID] = e
	return nil
}

func (r *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.entries[id]; !ok {
		return ErrNotFound
	}
	delete(r.entries, id)
	return nil
}

func (r *memRepo) ListByCase(_ context.Context, caseID uuid.UUID, filter ListFilter, limit, offset int) ([]*Entry, int, error) {
	var out []*Entry
	for _, e := range r.entries {
		if e.CaseID != caseID {
			continue
		}
		if filter.Kind != "" && e.Kind != filter.Kind {
			continue
		}
		if !filter.From.IsZero() && e.OccurredOn.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && e.OccurredOn.After(filter.To) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredOn.Before(out[j].OccurredOn) })
	return out, len(out), nil
}

type stubCases struct {
	known map[uuid.UUID]bool
}

func (s *stubCases) CaseExists(_ context.Context, id uuid.UUID) (bool, error) {
	return s.known[id], nil
}

func testService(caseID uuid.UUID) (*Service, *memRepo) {
	repo := newMemRepo()
	cases := &stubCases{known: map[uuid.UUID]bool{caseID: true}}
	return NewService(repo, cases, zerolog.Nop()), repo
}

func entryOn(caseID uuid.UUID, kind, title, dateStr string) *Entry {
	d, _ := time.Parse("2006-01-02", dateStr)
	return &Entry{CaseID: caseID, Kind: kind, Title: title, OccurredOn: d}
}

func TestCreate(t *testing.T) {
	caseID := uuid.New()
	svc, repo := testService(caseID)

	e := entryOn(caseID, "", "Initial consultation", "2024-01-10")
	if err := svc.Create(context.Background(), e); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if e.Kind != KindNote {
		t.Errorf("Kind = %q, want note default", e.Kind)
	}
	if len(repo.entries) != 1 {
		t.Errorf("stored %d entries, want 1", len(repo.entries))
	}
}

func TestCreate_Validation(t *testing.T) {
	caseID := uuid.New()
	svc, _ := testService(caseID)

	cases := []struct {
		name string
		e    *Entry
		want string
	}{
		{"missing title", entryOn(caseID, KindNote, "", "2024-01-10"), "title"},
		{"missing date", &Entry{CaseID: caseID, Kind: KindNote, Title: "t"}, "occurred_on"},
		{"bad kind", entryOn(caseID, "meeting", "t", "2024-01-10"), "kind"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Create(context.Background(), tc.e)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("got %v, want error mentioning %q", err, tc.want)
			}
		})
	}
}

func TestCreate_UnknownCase(t *testing.T) {
	svc, _ := testService(uuid.New())

	e := entryOn(uuid.New(), KindNote, "t", "2024-01-10")
	if err := svc.Create(context.Background(), e); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestList_TimelineOrderAndFilter(t *testing.T) {
	caseID := uuid.New()
	svc, _ := testService(caseID)

	entries := []*Entry{
		entryOn(caseID, KindTreatment, "ER visit", "2024-03-15"),
		entryOn(caseID, KindIncident, "Collision", "2024-03-01"),
		entryOn(caseID, KindBilling, "Hospital bill received", "2024-04-02"),
		entryOn(caseID, KindTreatment, "Follow-up", "2024-03-22"),
	}
	for _, e := range entries {
		if err := svc.Create(context.Background(), e); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	all, total, err := svc.List(context.Background(), caseID, ListFilter{}, 20, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 4 {
		t.Errorf("total = %d, want 4", total)
	}
	if all[0].Title != "Collision" || all[3].Title != "Hospital bill received" {
		t.Errorf("timeline out of order: %q .. %q", all[0].Title, all[3].Title)
	}

	treatments, _, err := svc.List(context.Background(), caseID, ListFilter{Kind: KindTreatment}, 20, 0)
	if err != nil {
		t.Fatalf("List filtered: %v", err)
	}
	if len(treatments) != 2 {
		t.Errorf("got %d treatment entries, want 2", len(treatments))
	}

	if _, _, err := svc.List(context.Background(), caseID, ListFilter{Kind: "party"}, 20, 0); err == nil {
		t.Error("invalid kind filter should be rejected")
	}
}
