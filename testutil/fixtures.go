// testutil/fixtures.go
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"memberhub-backend/models"
)

var fixtureSeq int64

func nextSeq() int64 {
	fixtureSeq++
	return fixtureSeq
}

// TestMember creates a member with sensible defaults: active, joined a month
// ago, subscription ending in thirty days, never reminded.
func TestMember(t *testing.T, db *gorm.DB, opts ...func(*models.Member)) *models.Member {
	t.Helper()

	seq := nextSeq()
	now := time.Now()
	member := &models.Member{
		CreatedByUserID:     uuid.New(),
		FullName:            fmt.Sprintf("Test Member %d", seq),
		Age:                 30,
		ContactNumber:       fmt.Sprintf("+9198765%05d", seq),
		JoinDate:            now.AddDate(0, -1, 0),
		SubscriptionEndDate: now.AddDate(0, 0, 30),
		IsActive:            true,
	}

	for _, opt := range opts {
		opt(member)
	}

	if err := db.Create(member).Error; err != nil {
		t.Fatalf("Failed to create test member: %v", err)
	}

	return member
}

// WithFullName sets the member name
func WithFullName(name string) func(*models.Member) {
	return func(m *models.Member) {
		m.FullName = name
	}
}

// WithContactNumber sets the phone number
func WithContactNumber(number string) func(*models.Member) {
	return func(m *models.Member) {
		m.ContactNumber = number
	}
}

// WithSubscriptionEnd sets the subscription end date
func WithSubscriptionEnd(end time.Time) func(*models.Member) {
	return func(m *models.Member) {
		m.SubscriptionEndDate = end
	}
}

// WithLastReminder sets when the member was last reminded
func WithLastReminder(at time.Time) func(*models.Member) {
	return func(m *models.Member) {
		m.LastReminderSent = &at
	}
}

// WithReminderCount sets the reminder counter
func WithReminderCount(count int) func(*models.Member) {
	return func(m *models.Member) {
		m.ReminderCount = count
	}
}

// Inactive marks the member soft-deleted
func Inactive() func(*models.Member) {
	return func(m *models.Member) {
		m.IsActive = false
	}
}

// TestUser creates a user for auth and ownership references
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*models.User)) *models.User {
	t.Helper()

	user := &models.User{
		Email:    fmt.Sprintf("user_%d@example.com", nextSeq()),
		Name:     "Test User",
		Password: "supersecret123",
		IsActive: true,
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithEmail sets the user email
func WithEmail(email string) func(*models.User) {
	return func(u *models.User) {
		u.Email = email
	}
}
