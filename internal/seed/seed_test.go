package seed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"family-calendar/internal/model"
	"family-calendar/internal/service"
)

type recorder struct {
	created []service.ScheduleInput
	failAt  int
}

func (r *recorder) Create(_ context.Context, input service.ScheduleInput) (*model.Schedule, error) {
	if len(r.created) == r.failAt {
		return nil, model.Invalid("weekdays", "boom")
	}
	r.created = append(r.created, input)
	return &model.Schedule{ID: uint(len(r.created))}, nil
}

const sample = `
schedules:
  - title: Feed
    description: cat
    weekdays: [0, 2, 4]
    start_date: 2024-03-18
    end_date: 2024-03-22
  - title: Water plants
    weekdays: [6]
    active: false
    start_date: "2024-04-01"
`

func TestLoadAndImport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	rec := &recorder{failAt: -1}
	n, err := Import(context.Background(), rec, f)
	if err != nil || n != 2 {
		t.Fatalf("import: n=%d err=%v", n, err)
	}

	first := rec.created[0]
	if *first.Title != "Feed" || len(first.Weekdays) != 3 || !first.EndDate.Set {
		t.Fatalf("unexpected first input %+v", first)
	}
	if got := first.StartDate.Date.Format("2006-01-02"); got != "2024-03-18" {
		t.Fatalf("start = %s", got)
	}
	second := rec.created[1]
	if second.Active == nil || *second.Active || second.EndDate.Set {
		t.Fatalf("unexpected second input %+v", second)
	}
}

func TestImportStopsAtFirstFailure(t *testing.T) {
	f, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rec := &recorder{failAt: 1}
	n, err := Import(context.Background(), rec, f)
	if n != 1 || !model.IsValidation(err) || !strings.Contains(err.Error(), "#1") {
		t.Fatalf("n=%d err=%v", n, err)
	}
}

func TestImportRejectsBadDate(t *testing.T) {
	f, err := Parse([]byte("schedules:\n  - title: x\n    weekdays: [1]\n    start_date: 18/03/2024\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	n, err := Import(context.Background(), &recorder{failAt: -1}, f)
	if n != 0 || !model.IsValidation(err) {
		t.Fatalf("n=%d err=%v", n, err)
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	if _, err := Parse([]byte("schedules: [")); err == nil {
		t.Fatalf("expected decode error")
	}
}
