// services/reminder_service.go
package services

import (
	"fmt"
	"log"
	"time"

	"memberhub-backend/config"
	"memberhub-backend/models"
	"memberhub-backend/utils"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// DispatchResult is the per-member outcome of one reminder send.
type DispatchResult struct {
	MemberID      uuid.UUID `json:"memberId"`
	FullName      string    `json:"fullName"`
	ContactNumber string    `json:"contactNumber"`
	Success       bool      `json:"success"`
	ErrorKind     string    `json:"errorKind,omitempty"`
	Error         string    `json:"error,omitempty"`
}

type ReminderService struct {
	db        *gorm.DB
	messenger Messenger
	settings  config.Settings
	cron      *cron.Cron

	// Overridable in tests so runs can be driven without wall-clock waits.
	now   func() time.Time
	sleep func(time.Duration)
}

func NewReminderService(db *gorm.DB, messenger Messenger, settings config.Settings) *ReminderService {
	return &ReminderService{
		db:        db,
		messenger: messenger,
		settings:  settings,
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

// FindEligible returns active members whose subscription ends between the
// start of today and the end of the lookahead window, and who have not been
// reminded within the cooldown. The cooldown is a best-effort dedup across
// overlapping trigger firings, not a lock.
func (s *ReminderService) FindEligible(now time.Time) ([]models.Member, error) {
	windowStart := utils.BeginningOfDay(now)
	windowEnd := utils.EndOfDay(now.AddDate(0, 0, s.settings.ReminderLookahead))
	cooldownCutoff := now.Add(-s.settings.ReminderCooldown)

	var members []models.Member
	err := s.db.Scopes(models.ActiveOnly).
		Where("subscription_end_date BETWEEN ? AND ?", windowStart, windowEnd).
		Where("last_reminder_sent IS NULL OR last_reminder_sent < ?", cooldownCutoff).
		Order("subscription_end_date asc").
		Find(&members).Error
	return members, err
}

// Dispatch sends one reminder per member, strictly in order, pausing between
// sends to stay inside the provider's rate limits. A failed send is recorded
// and never stops the rest of the batch. After the loop one batched update
// stamps lastReminderSent and bumps reminderCount for the successes only, so
// failed members stay eligible for the next trigger.
func (s *ReminderService) Dispatch(members []models.Member) []DispatchResult {
	now := s.now()
	results := make([]DispatchResult, 0, len(members))
	var succeeded []uuid.UUID

	for i := range members {
		if i > 0 {
			s.sleep(s.settings.ReminderSendGap)
		}
		result := s.sendOne(&members[i])
		if result.Success {
			succeeded = append(succeeded, result.MemberID)
		}
		results = append(results, result)
	}

	if err := s.markReminded(succeeded, now); err != nil {
		log.Printf("Failed to record sent reminders: %v", err)
	}

	return results
}

func (s *ReminderService) sendOne(member *models.Member) DispatchResult {
	body := ReminderMessage(member)
	err := s.messenger.Send(member.ContactNumber, body)

	result := DispatchResult{
		MemberID:      member.ID,
		FullName:      member.FullName,
		ContactNumber: member.ContactNumber,
		Success:       err == nil,
	}

	logRow := models.ReminderLog{
		MemberID: member.ID,
		Message:  body,
		Status:   "sent",
		Channel:  "whatsapp",
		SentAt:   s.now(),
	}

	if err != nil {
		log.Printf("Failed to send reminder to %s: %v", member.ContactNumber, err)
		result.ErrorKind = ErrorKind(err)
		result.Error = err.Error()
		logRow.Status = "failed"
		logRow.ErrorKind = result.ErrorKind
		logRow.ErrorMessage = result.Error
	}

	if err := s.db.Create(&logRow).Error; err != nil {
		log.Printf("Failed to log reminder for member %s: %v", member.ID, err)
	}

	return result
}

// SendReminder is the manual single-member path. Same template and same
// success-only update semantics as the batch path.
func (s *ReminderService) SendReminder(member *models.Member) DispatchResult {
	result := s.sendOne(member)
	if result.Success {
		if err := s.markReminded([]uuid.UUID{member.ID}, s.now()); err != nil {
			log.Printf("Failed to record sent reminder for member %s: %v", member.ID, err)
		}
	}
	return result
}

func (s *ReminderService) markReminded(ids []uuid.UUID, sentAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.Model(&models.Member{}).Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"last_reminder_sent": sentAt,
			"reminder_count":     gorm.Expr("reminder_count + 1"),
		}).Error
}

// CheckAndSend is one batch run: eligibility query, then dispatch. Errors are
// logged and swallowed here so a bad run never takes down the scheduler.
func (s *ReminderService) CheckAndSend() {
	members, err := s.FindEligible(s.now())
	if err != nil {
		log.Printf("Reminder run failed to query eligible members: %v", err)
		return
	}

	if len(members) == 0 {
		log.Println("No members need reminders at this time")
		return
	}

	log.Printf("Found %d members to send reminders to", len(members))
	results := s.Dispatch(members)

	sent := 0
	for _, r := range results {
		if r.Success {
			sent++
		}
	}
	log.Printf("Sent %d of %d reminders successfully", sent, len(results))
}

// StartScheduler registers the two daily triggers in the configured timezone:
// 09:00 every day, plus every 6 hours from midnight. Both call CheckAndSend;
// the 24h cooldown in FindEligible keeps the overlap near 09:00-12:00 from
// double-sending. Panics inside a run are recovered so later runs still fire.
func (s *ReminderService) StartScheduler() error {
	loc, err := time.LoadLocation(s.settings.SchedulerTimezone)
	if err != nil {
		return fmt.Errorf("invalid scheduler timezone %q: %w", s.settings.SchedulerTimezone, err)
	}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cron.DefaultLogger)),
	)

	if _, err := c.AddFunc("0 9 * * *", s.CheckAndSend); err != nil {
		return err
	}
	if _, err := c.AddFunc("0 */6 * * *", s.CheckAndSend); err != nil {
		return err
	}

	c.Start()
	s.cron = c
	log.Println("Reminder scheduler started")
	return nil
}

func (s *ReminderService) StopScheduler() {
	if s.cron == nil {
		return
	}
	s.cron.Stop()
	s.cron = nil
	log.Println("Reminder scheduler stopped")
}
