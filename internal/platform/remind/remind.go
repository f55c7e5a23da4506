// Package remind schedules daily medication-reminder dispatch. It walks
// the persisted visit list, maps each medication's timing text to clock
// slots, and hands reminder events to the relay layer. Everything is
// best-effort: failures are logged and the next run starts fresh.
package remind

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/homevisit/homevisit/internal/display"
	"github.com/homevisit/homevisit/internal/domain/visit"
	"github.com/homevisit/homevisit/internal/platform/relay"
)

// visitLister is the slice of the visit service the scheduler needs.
type visitLister interface {
	List(ctx context.Context, limit, offset int) ([]*visit.StoredVisit, int, error)
}

type Scheduler struct {
	visits visitLister
	relays *relay.Dispatcher
	logger zerolog.Logger
	cron   *cron.Cron
	spec   string
}

func NewScheduler(visits visitLister, relays *relay.Dispatcher, logger zerolog.Logger, spec string) *Scheduler {
	return &Scheduler{
		visits: visits,
		relays: relays,
		logger: logger.With().Str("component", "remind").Logger(),
		cron:   cron.New(),
		spec:   spec,
	}
}

// Start registers the cron entry and begins scheduling.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.RunOnce); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// pageSize is the listing window per repository round trip; the run pages
// until the whole visit list has been walked.
const pageSize = 100

// RunOnce dispatches reminders for every medication with a recognizable
// timing across the persisted visit list.
func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sent := 0
	for offset := 0; ; {
		visits, total, err := s.visits.List(ctx, pageSize, offset)
		if err != nil {
			s.logger.Error().Err(err).Msg("reminder run could not load visits")
			return
		}
		for _, sv := range visits {
			for _, m := range sv.Record.Medications {
				slots := display.MapTimingToClock(m.Timing)
				if slots == "" {
					continue
				}
				s.relays.Dispatch(relay.KindDoseReminder, "", map[string]string{
					"visit_id":      sv.ID,
					"patient_name":  sv.Record.PatientName,
					"phone":         sv.Record.Phone,
					"medication_id": m.ID,
					"medicine":      m.Name,
					"dose":          m.Dose,
					"slots":         slots,
				})
				sent++
			}
		}
		offset += len(visits)
		if len(visits) == 0 || offset >= total {
			break
		}
	}
	s.logger.Info().Int("reminders", sent).Msg("reminder run complete")
}
