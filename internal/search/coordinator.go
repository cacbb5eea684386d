// Package search orchestrates seat searches: it enforces the
// one-search-at-a-time invariant, runs the portal session and seat
// evaluation on a worker goroutine, and drives the side effects of a
// match (notifications, alarm clearing, advisor email).
package search

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/AbrarShakhi/wall-e/internal/notify"
	"github.com/AbrarShakhi/wall-e/internal/portal"
	"github.com/AbrarShakhi/wall-e/internal/seats"
	"github.com/AbrarShakhi/wall-e/pkg/models"
)

// ErrBusy rejects a trigger while another search holds the browser.
// Callers get an immediate rejection, never a queue slot.
var ErrBusy = errors.New("a search is already in progress")

// ErrInvalidConfig rejects a trigger whose search config is not fully
// populated. Nothing is rejected later than this: no portal session is
// started for an invalid config.
var ErrInvalidConfig = errors.New("invalid search config")

// ClearPolicy decides which alarms a successful match disarms.
type ClearPolicy string

const (
	// ClearAll removes every stored alarm on success; the behavior
	// the app has always shipped with.
	ClearAll ClearPolicy = "all"
	// ClearFired removes only the alarm that triggered the search.
	ClearFired ClearPolicy = "fired"
)

// Searcher runs one portal session. Satisfied by *portal.Runner.
type Searcher interface {
	Run(ctx context.Context, searchID string, creds portal.Credentials, department, semester string) ([]models.SeatRow, error)
}

// ProfileDirectory resolves a profile id to its stored profile.
type ProfileDirectory interface {
	Get(id string) (models.Profile, error)
}

// AlarmKeeper is the slice of the alarm store the coordinator needs.
type AlarmKeeper interface {
	List() []models.Alarm
	Remove(id string) error
	RemoveAll() error
}

// TimerCanceler cancels pending alarm timers when alarms are cleared.
type TimerCanceler interface {
	Cancel(alarmID string)
	CancelAll()
}

// Mailer dispatches the advisor email. Satisfied by *mailer.Gmail.
type Mailer interface {
	Send(ctx context.Context, p models.Profile, courseCode, section string) error
}

// Coordinator is the search orchestrator. State machine: Idle ->
// Searching -> Idle, with the transition guarded by a weighted
// semaphore of size one.
type Coordinator struct {
	searcher  Searcher
	profiles  ProfileDirectory
	alarms    AlarmKeeper
	timers    TimerCanceler
	mailer    Mailer
	notifier  *notify.Center
	policy    ClearPolicy
	timeout   time.Duration
	searching atomic.Bool

	slot *semaphore.Weighted
}

// Options tune the coordinator.
type Options struct {
	ClearPolicy   ClearPolicy
	SearchTimeout time.Duration
}

// NewCoordinator wires the orchestrator.
func NewCoordinator(searcher Searcher, profiles ProfileDirectory, alarms AlarmKeeper, timers TimerCanceler, mailer Mailer, notifier *notify.Center, opts Options) *Coordinator {
	if opts.ClearPolicy == "" {
		opts.ClearPolicy = ClearAll
	}
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = 5 * time.Minute
	}
	return &Coordinator{
		searcher: searcher,
		profiles: profiles,
		alarms:   alarms,
		timers:   timers,
		mailer:   mailer,
		notifier: notifier,
		policy:   opts.ClearPolicy,
		timeout:  opts.SearchTimeout,
		slot:     semaphore.NewWeighted(1),
	}
}

// Searching reports whether a search worker is currently active.
func (c *Coordinator) Searching() bool {
	return c.searching.Load()
}

// Trigger starts a manual search. It validates and claims the search
// slot synchronously, then runs the session on a worker goroutine;
// triggering is fire-and-forget; the outcome arrives as a
// notification.
func (c *Coordinator) Trigger(req models.SearchRequest) error {
	if err := req.Config.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return c.trigger(req, "", nil)
}

// OnAlarm is the scheduler's fire callback. Alarms carry a full
// profile snapshot, so the search runs against that snapshot rather
// than a directory lookup; deleting the profile after arming an alarm
// does not break the alarm.
func (c *Coordinator) OnAlarm(a models.Alarm, notifyEmail bool) {
	c.notifier.Publish(notify.Event{
		Type:    notify.EventAlarmFired,
		Title:   "Alarm",
		Message: fmt.Sprintf("Alarm fired: searching %s section %s", a.CourseCode, a.Section),
	})

	var err error
	if !a.Valid() {
		err = fmt.Errorf("%w: alarm %s is incomplete", ErrInvalidConfig, a.ID)
	} else {
		profile := a.Profile
		req := models.SearchRequest{Config: a.Config(), NotifyEmail: notifyEmail}
		err = c.trigger(req, a.ID, &profile)
	}
	if err != nil {
		// Nobody is watching an alarm fire; the rejection still has
		// to reach the user as a queued notification.
		c.notifier.Publish(notify.Event{
			Type:    notify.EventSearchError,
			Title:   "Error",
			Message: fmt.Sprintf("Scheduled search skipped: %v", err),
		})
	}
}

func (c *Coordinator) trigger(req models.SearchRequest, firedAlarmID string, snapshot *models.Profile) error {
	if !c.slot.TryAcquire(1) {
		return ErrBusy
	}
	c.searching.Store(true)

	go c.run(req, firedAlarmID, snapshot)
	return nil
}

// run executes one search attempt. The slot release and the terminal
// notification are both unconditional: no exit path may leave the
// coordinator stuck in Searching or the attempt unreported.
func (c *Coordinator) run(req models.SearchRequest, firedAlarmID string, snapshot *models.Profile) {
	searchID := uuid.New().String()
	outcome := models.SearchOutcome{Status: models.SearchFailed}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[search] Worker panic: %v", r)
			outcome = models.SearchOutcome{
				Status: models.SearchFailed,
				Error:  "internal error during search",
			}
		}
		c.report(outcome)
		c.searching.Store(false)
		c.slot.Release(1)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	var profile models.Profile
	if snapshot != nil {
		profile = *snapshot
	} else {
		var err error
		profile, err = c.profiles.Get(req.Config.ProfileID)
		if err != nil {
			outcome = models.SearchOutcome{
				Status: models.SearchFailed,
				Error:  fmt.Sprintf("profile lookup failed: %v", err),
			}
			return
		}
	}

	log.Printf("[search] %s: searching %s section %s (%s, %s)",
		searchID[:8], req.Config.CourseCode, req.Config.Section,
		req.Config.Department, req.Config.Semester)

	creds := portal.Credentials{
		StudentID:      profile.StudentID,
		PortalPassword: profile.PortalPassword,
	}
	rows, err := c.searcher.Run(ctx, searchID, creds, req.Config.Department, req.Config.Semester)
	if err != nil {
		log.Printf("[search] %s: portal session failed: %v", searchID[:8], err)
		outcome = models.SearchOutcome{
			Status: models.SearchFailed,
			Error:  fmt.Sprintf("search failed: %v", err),
		}
		return
	}

	result, err := seats.Evaluate(rows, req.Config.CourseCode, req.Config.Section)
	if err != nil {
		var parseErr *seats.ParseError
		if errors.As(err, &parseErr) {
			// Reported to the user as "no seats", but logged loudly:
			// a parse failure means the portal's table format drifted.
			log.Printf("[search] %s: seat string parse failure: %v", searchID[:8], parseErr)
		}
		outcome = models.SearchOutcome{Status: models.SearchNotFound}
		return
	}

	if !result.Available {
		outcome = models.SearchOutcome{Status: models.SearchNotFound}
		return
	}

	outcome = models.SearchOutcome{
		Status:       models.SearchFound,
		SeatsDisplay: result.SeatsDisplay,
	}

	c.clearAlarms(firedAlarmID)

	if req.NotifyEmail {
		// Decoupled from the outcome report: a slow or failing mail
		// dispatch must not block marking the search complete.
		go c.sendEmail(profile, req.Config.CourseCode, req.Config.Section)
	}
}

func (c *Coordinator) report(outcome models.SearchOutcome) {
	switch outcome.Status {
	case models.SearchFound:
		c.notifier.Publish(notify.Event{
			Type:        notify.EventSearchResult,
			Title:       "Success",
			Message:     fmt.Sprintf("Found seats: %s", outcome.SeatsDisplay),
			ResetFields: true,
		})
	case models.SearchNotFound:
		c.notifier.Publish(notify.Event{
			Type:    notify.EventSearchResult,
			Title:   "Result",
			Message: "No available seats found",
		})
	default:
		c.notifier.Publish(notify.Event{
			Type:    notify.EventSearchError,
			Title:   "Error",
			Message: outcome.Error,
		})
	}
}

// clearAlarms disarms alarms after a successful match, per the
// configured policy.
func (c *Coordinator) clearAlarms(firedAlarmID string) {
	switch c.policy {
	case ClearFired:
		if firedAlarmID == "" {
			return
		}
		c.timers.Cancel(firedAlarmID)
		if err := c.alarms.Remove(firedAlarmID); err != nil {
			log.Printf("[search] Failed to remove fired alarm: %v", err)
		}
	default:
		c.timers.CancelAll()
		if err := c.alarms.RemoveAll(); err != nil {
			log.Printf("[search] Failed to clear alarms: %v", err)
		}
	}
}

func (c *Coordinator) sendEmail(profile models.Profile, courseCode, section string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := c.mailer.Send(ctx, profile, courseCode, section); err != nil {
		log.Printf("[search] Email dispatch failed: %v", err)
		c.notifier.Publish(notify.Event{
			Type:    notify.EventEmail,
			Title:   "Email Failed",
			Message: err.Error(),
		})
		return
	}

	c.notifier.Publish(notify.Event{
		Type:    notify.EventEmail,
		Title:   "Email Sent",
		Message: "Notification sent!",
	})
}
