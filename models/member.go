package models

import (
	"memberhub-backend/utils"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubscriptionStatus string

const (
	StatusActive       SubscriptionStatus = "active"
	StatusExpiringSoon SubscriptionStatus = "expiring-soon"
	StatusExpired      SubscriptionStatus = "expired"
)

// ExpiringSoonWindowDays is the lookahead window for the expiring-soon
// bucket. A member whose subscription ends in exactly this many days still
// counts as expiring-soon, while one already past the end date is expired.
const ExpiringSoonWindowDays = 3

type Member struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index;not null" json:"createdBy"`

	FullName            string     `gorm:"not null" json:"fullName"`
	Age                 int        `gorm:"not null" json:"age"`
	ContactNumber       string     `gorm:"not null;index" json:"contactNumber"`
	JoinDate            time.Time  `gorm:"not null" json:"joinDate"`
	SubscriptionEndDate time.Time  `gorm:"not null;index" json:"subscriptionEndDate"`
	IsActive            bool       `gorm:"default:true;index" json:"isActive"`
	LastReminderSent    *time.Time `json:"lastReminderSent"`
	ReminderCount       int        `gorm:"default:0" json:"reminderCount"`

	gorm.Model
}

// Initialize UUID before creating
func (m *Member) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}

// ClassifySubscription buckets a subscription end date relative to now.
// Both dates are normalized to midnight first, so the result is
// calendar-day granular and never depends on the time of day. The returned
// day count is negative once the end date has passed.
func ClassifySubscription(subscriptionEndDate, now time.Time) (SubscriptionStatus, int) {
	days := utils.DaysBetween(now, subscriptionEndDate)
	switch {
	case days < 0:
		return StatusExpired, days
	case days <= ExpiringSoonWindowDays:
		// Day 0 (expiring today) and day 3 both land here.
		return StatusExpiringSoon, days
	default:
		return StatusActive, days
	}
}

func (m *Member) SubscriptionStatus(now time.Time) SubscriptionStatus {
	status, _ := ClassifySubscription(m.SubscriptionEndDate, now)
	return status
}

func (m *Member) DaysUntilExpiry(now time.Time) int {
	_, days := ClassifySubscription(m.SubscriptionEndDate, now)
	return days
}

// ActiveOnly is the default scope for member reads: soft-deleted members
// (is_active = false) never show up unless a caller bypasses it on purpose.
func ActiveOnly(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true)
}
