package remind

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/homevisit/homevisit/internal/domain/visit"
	"github.com/homevisit/homevisit/internal/platform/relay"
)

type stubLister struct {
	visits []*visit.StoredVisit
	err    error
}

func (s *stubLister) List(_ context.Context, limit, offset int) ([]*visit.StoredVisit, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	total := len(s.visits)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return s.visits[offset:end], total, nil
}

func collectReminders(t *testing.T, lister *stubLister) []relay.Event {
	t.Helper()

	var mu sync.Mutex
	var events []relay.Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var ev relay.Event
		if err := json.Unmarshal(body, &ev); err != nil {
			t.Errorf("unmarshal event: %v", err)
		}
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := relay.NewDispatcher(zerolog.Nop(), map[relay.Kind]string{relay.KindDoseReminder: srv.URL}, "",
		relay.WithQueueSize(512))
	d.Start()
	s := NewScheduler(lister, d, zerolog.Nop(), "0 8 * * *")
	s.RunOnce()
	d.Stop()

	mu.Lock()
	defer mu.Unlock()
	return append([]relay.Event(nil), events...)
}

func TestRunOnceDispatchesMappedTimings(t *testing.T) {
	lister := &stubLister{visits: []*visit.StoredVisit{
		{
			ID:          "v1",
			PatientName: "Asha",
			Record: &visit.Record{
				PatientName: "Asha",
				Phone:       "12345",
				Medications: []visit.Medication{
					{ID: "m1", Name: "Metformin", Dose: "500mg", Timing: "1-0-1"},
					{ID: "m2", Name: "Vitamin D", Dose: "60k", Timing: "once weekly"}, // unmapped
				},
			},
		},
		{
			ID:          "v2",
			PatientName: "Ravi",
			Record: &visit.Record{
				PatientName: "Ravi",
				Medications: []visit.Medication{
					{ID: "m3", Name: "Atorvastatin", Dose: "10mg", Timing: "Once a night after dinner"},
				},
			},
		},
	}}

	events := collectReminders(t, lister)
	if len(events) != 2 {
		t.Fatalf("dispatched %d reminders, want 2", len(events))
	}

	byMed := map[string]relay.Event{}
	for _, ev := range events {
		if ev.Kind != relay.KindDoseReminder {
			t.Errorf("event kind %q", ev.Kind)
		}
		byMed[ev.Fields["medication_id"]] = ev
	}
	if ev, ok := byMed["m1"]; !ok || ev.Fields["slots"] != "09:00 AM & 09:00 PM" {
		t.Errorf("metformin reminder: %+v", ev)
	}
	if ev, ok := byMed["m3"]; !ok || ev.Fields["slots"] != "10:00 PM" {
		t.Errorf("atorvastatin reminder: %+v", ev)
	}
	if _, ok := byMed["m2"]; ok {
		t.Error("unmapped timing should not produce a reminder")
	}
}

func TestRunOncePagesThroughWholeList(t *testing.T) {
	// More visits than one listing window; every one must get a reminder.
	lister := &stubLister{}
	for i := 0; i < 230; i++ {
		lister.visits = append(lister.visits, &visit.StoredVisit{
			ID:          fmt.Sprintf("v%d", i),
			PatientName: "P",
			Record: &visit.Record{
				PatientName: "P",
				Medications: []visit.Medication{
					{ID: fmt.Sprintf("m%d", i), Name: "Metformin", Timing: "1-0-1"},
				},
			},
		})
	}

	events := collectReminders(t, lister)
	if len(events) != 230 {
		t.Fatalf("dispatched %d reminders, want 230", len(events))
	}
	seen := map[string]bool{}
	for _, ev := range events {
		seen[ev.Fields["visit_id"]] = true
	}
	for _, id := range []string{"v0", "v99", "v100", "v229"} {
		if !seen[id] {
			t.Errorf("visit %s got no reminder", id)
		}
	}
}

func TestRunOnceSurvivesListFailure(t *testing.T) {
	d := relay.NewDispatcher(zerolog.Nop(), nil, "")
	d.Start()
	defer d.Stop()

	s := NewScheduler(&stubLister{err: errors.New("db down")}, d, zerolog.Nop(), "0 8 * * *")
	s.RunOnce() // must not panic
}

func TestRunOnceNoMedications(t *testing.T) {
	lister := &stubLister{visits: []*visit.StoredVisit{
		{ID: "v1", PatientName: "Asha", Record: &visit.Record{PatientName: "Asha"}},
	}}
	if events := collectReminders(t, lister); len(events) != 0 {
		t.Errorf("dispatched %d reminders for a visit without medications", len(events))
	}
}
