package alarm

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/AbrarShakhi/wall-e/pkg/models"
)

// FireFunc is invoked when an alarm's trigger time arrives. It must not
// block: the coordinator's trigger path is fire-and-forget.
type FireFunc func(models.Alarm)

// Scheduler owns the timer facility that fires alarms. Live cron entry
// handles are kept in a side table keyed by alarm id; they are runtime
// attachments and are never serialized with the alarm records.
type Scheduler struct {
	cron  *cron.Cron
	store *Store
	fire  FireFunc

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// NewScheduler wires a scheduler to the store and fire callback.
func NewScheduler(store *Store, fire FireFunc) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		store:   store,
		fire:    fire,
		entries: make(map[string]cron.EntryID),
	}
}

// Start schedules every stored alarm and starts the clock. Alarms whose
// records cannot be scheduled are logged and skipped, not fatal.
func (s *Scheduler) Start() {
	for _, a := range s.store.List() {
		if err := s.Schedule(a); err != nil {
			log.Printf("[scheduler] Skipping alarm %s: %v", a.ID, err)
		}
	}
	s.cron.Start()
	log.Printf("[scheduler] Started with %d alarm(s)", len(s.entries))
}

// Stop halts the clock. Pending entries are not persisted; they are
// recreated from the store on the next Start.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[scheduler] Stopped")
}

// Schedule registers a pending timer for the alarm. The next occurrence
// is today at the alarm's time if that is still ahead, otherwise the
// next day, or the next matching weekday when repeat days are set.
func (s *Scheduler) Schedule(a models.Alarm) error {
	spec, err := CronSpec(a)
	if err != nil {
		return err
	}

	id := a.ID
	entryID, err := s.cron.AddFunc(spec, func() { s.onFire(id) })
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.mu.Lock()
	s.entries[a.ID] = entryID
	s.mu.Unlock()

	return nil
}

// Cancel removes the alarm's pending timer, preventing any further
// fires. Canceling an unscheduled alarm is a no-op.
func (s *Scheduler) Cancel(alarmID string) {
	s.mu.Lock()
	entryID, ok := s.entries[alarmID]
	if ok {
		delete(s.entries, alarmID)
	}
	s.mu.Unlock()

	if ok {
		s.cron.Remove(entryID)
	}
}

// CancelAll removes every pending timer.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	entries := s.entries
	s.entries = make(map[string]cron.EntryID)
	s.mu.Unlock()

	for _, entryID := range entries {
		s.cron.Remove(entryID)
	}
}

// NextRun reports the alarm's next fire time, or zero if the alarm has
// no pending timer.
func (s *Scheduler) NextRun(alarmID string) time.Time {
	s.mu.Lock()
	entryID, ok := s.entries[alarmID]
	s.mu.Unlock()

	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(entryID).Next
}

// onFire resolves the alarm from the store at fire time and invokes the
// callback. One-shot alarms are deactivated after firing; the record
// stays in the store until the user deletes it or a successful search
// clears it. Repeating alarms stay registered and cron computes the
// next matching weekday.
func (s *Scheduler) onFire(alarmID string) {
	a, ok := s.store.Get(alarmID)
	if !ok {
		// Deleted between scheduling and firing; drop the timer.
		s.Cancel(alarmID)
		return
	}

	if len(a.RepeatDays) == 0 {
		s.Cancel(alarmID)
	}

	log.Printf("[scheduler] Alarm %s fired (%s %s/%s)", a.ID, a.Time, a.CourseCode, a.Section)
	s.fire(a)
}

// CronSpec translates an alarm's wall-clock time and repeat days into a
// standard cron expression, e.g. "30 09 * * Mon,Wed".
func CronSpec(a models.Alarm) (string, error) {
	hour, minute, err := a.ClockTime()
	if err != nil {
		return "", err
	}

	days := "*"
	if len(a.RepeatDays) > 0 {
		days = strings.Join(a.RepeatDays, ",")
	}
	return fmt.Sprintf("%d %d * * %s", minute, hour, days), nil
}
