// Package sweeper holds the expiry/retention maintenance jobs: the
// periodic sweep of expired messages, the expiry backfill, and orphaned
// notification cleanup. Runs are stateless; each one re-derives its
// target set from expires_at and the current time.
package sweeper

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hazemadel/edumsg/internal/database"
	"github.com/hazemadel/edumsg/internal/logger"
	"github.com/hazemadel/edumsg/internal/models"
)

// DefaultRetentionDays matches the default message lifetime of 48h.
const DefaultRetentionDays = 2

// Options configure a single sweep run.
type Options struct {
	// Now anchors the run; zero means the current time.
	Now time.Time
	// RetentionDays is the advertised retention window; messages carry
	// their own expiry horizon, so this only shapes the run's reporting.
	RetentionDays int
	// IncludeRead also purges read expired messages. When false, read
	// expired messages are retained and only unread ones are removed.
	IncludeRead bool
	// DryRun scans and reports without deleting anything.
	DryRun bool
}

// Report summarizes one sweep run.
type Report struct {
	Matched              int                 `json:"matched"`
	MessagesDeleted      int                 `json:"messages_deleted"`
	NotificationsDeleted int64               `json:"notifications_deleted"`
	ReadMatched          int                 `json:"read_matched"`
	UnreadMatched        int                 `json:"unread_matched"`
	BySenderRole         map[models.Role]int `json:"by_sender_role"`
	ByReceiverRole       map[models.Role]int `json:"by_receiver_role"`
	Sample               []string            `json:"sample,omitempty"`
	DryRun               bool                `json:"dry_run"`
}

// Sweeper serializes all maintenance runs behind one lock, so a sweep
// can never race a backfill into deleting a message whose expiry was
// just extended, and no sweep overlaps itself.
type Sweeper struct {
	store database.Store
	log   *logger.Logger
	mu    sync.Mutex
}

func New(store database.Store) *Sweeper {
	return &Sweeper{store: store, log: logger.New("sweeper")}
}

// Run scans for expired messages and, unless dry-run, deletes them one
// by one with their notifications (notifications first, per message).
// On a store error the run aborts; rows already deleted stand, nothing
// is left half-applied across a notification/message pair.
func (s *Sweeper) Run(opts Options) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	retention := opts.RetentionDays
	if retention <= 0 {
		retention = DefaultRetentionDays
	}

	s.log.Info("scanning for expired messages before %s (retention window %d days, include_read=%v)",
		now.Format(time.RFC3339), retention, opts.IncludeRead)

	matched, err := s.store.ListExpired(now, opts.IncludeRead)
	if err != nil {
		s.log.Error("expiry scan failed: %v", err)
		return nil, err
	}

	report := s.buildReport(matched, opts.DryRun)

	if opts.DryRun {
		ids := make([]uuid.UUID, len(matched))
		for i, msg := range matched {
			ids[i] = msg.ID
		}
		count, err := s.store.CountNotifications(ids)
		if err != nil {
			return nil, err
		}
		report.NotificationsDeleted = 0
		s.log.Info("dry run: %d messages and %d notifications would be deleted", report.Matched, count)
		return report, nil
	}

	for _, msg := range matched {
		notifDeleted, err := s.store.DeleteMessage(msg.ID)
		if err != nil {
			// A reply can vanish with its parent through the cascade.
			if errors.Is(err, database.ErrMessageNotFound) {
				continue
			}
			s.log.Error("sweep aborted at message %s: %v", msg.ID, err)
			return report, err
		}
		report.MessagesDeleted++
		report.NotificationsDeleted += notifDeleted
	}

	s.log.Info("sweep done: %d messages, %d notifications deleted",
		report.MessagesDeleted, report.NotificationsDeleted)
	return report, nil
}

func (s *Sweeper) buildReport(matched []*models.Message, dryRun bool) *Report {
	report := &Report{
		Matched:        len(matched),
		BySenderRole:   make(map[models.Role]int),
		ByReceiverRole: make(map[models.Role]int),
		DryRun:         dryRun,
	}
	for _, msg := range matched {
		report.BySenderRole[msg.Sender.Role]++
		report.ByReceiverRole[msg.Recipient.Role]++
		if msg.IsRead {
			report.ReadMatched++
		} else {
			report.UnreadMatched++
		}
		if len(report.Sample) < 5 {
			report.Sample = append(report.Sample, msg.Title)
		}
	}
	return report
}

// BackfillExpiry stamps created_at + 48h onto messages missing an
// expiry horizon. Idempotent: a second run reports zero. Shares the
// run-lock with Run so a sweep never observes a half-backfilled store.
func (s *Sweeper) BackfillExpiry(dryRun bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dryRun {
		return s.store.CountMissingExpiry()
	}

	fixed, err := s.store.BackfillExpiry(models.MessageTTL)
	if err != nil {
		s.log.Error("expiry backfill failed: %v", err)
		return 0, err
	}
	if fixed > 0 {
		s.log.Info("backfilled expiry on %d messages", fixed)
	}
	return fixed, nil
}

// CleanOrphans deletes notifications whose message no longer exists.
func (s *Sweeper) CleanOrphans(dryRun bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dryRun {
		return s.store.CountOrphanedNotifications()
	}

	deleted, err := s.store.DeleteOrphanedNotifications()
	if err != nil {
		s.log.Error("orphaned notification cleanup failed: %v", err)
		return 0, err
	}
	if deleted > 0 {
		s.log.Info("deleted %d orphaned notifications", deleted)
	}
	return deleted, nil
}
