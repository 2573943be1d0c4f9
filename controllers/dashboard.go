package controllers

import (
	"net/http"
	"time"

	"memberhub-backend/config"
	"memberhub-backend/models"
	"memberhub-backend/utils"

	"github.com/gin-gonic/gin"
)

type DashboardOverview struct {
	TotalMembers     int64            `json:"totalMembers"`
	ActiveMembers    int64            `json:"activeMembers"`
	ExpiringSoon     int64            `json:"expiringSoon"`
	ExpiredMembers   int64            `json:"expiredMembers"`
	RemindersSent    int64            `json:"remindersSent"`
	UpcomingExpiries []UpcomingExpiry `json:"upcomingExpiries"`
}

type UpcomingExpiry struct {
	Name      string `json:"name"`
	ExpiresOn string `json:"expiresOn"` // DD/MM/YYYY
	DaysLeft  int    `json:"daysLeft"`
}

// GetDashboardOverview returns member counts per subscription bucket plus the
// list of members expiring inside the lookahead window. The same date-range
// boundaries as the classifier apply, so the counts always add up.
func GetDashboardOverview(c *gin.Context) {
	now := time.Now()
	today := utils.BeginningOfDay(now)
	windowEnd := utils.EndOfDay(now.AddDate(0, 0, models.ExpiringSoonWindowDays))

	var totalMembers int64
	if err := config.DB.Model(&models.Member{}).Scopes(models.ActiveOnly).
		Count(&totalMembers).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	var expiredMembers int64
	config.DB.Model(&models.Member{}).Scopes(models.ActiveOnly).
		Where("subscription_end_date < ?", today).
		Count(&expiredMembers)

	var expiringSoon int64
	config.DB.Model(&models.Member{}).Scopes(models.ActiveOnly).
		Where("subscription_end_date BETWEEN ? AND ?", today, windowEnd).
		Count(&expiringSoon)

	var activeMembers int64
	config.DB.Model(&models.Member{}).Scopes(models.ActiveOnly).
		Where("subscription_end_date > ?", windowEnd).
		Count(&activeMembers)

	var remindersSent int64
	config.DB.Model(&models.ReminderLog{}).
		Where("status = ?", "sent").
		Count(&remindersSent)

	var expiring []models.Member
	config.DB.Scopes(models.ActiveOnly).
		Where("subscription_end_date BETWEEN ? AND ?", today, windowEnd).
		Order("subscription_end_date asc").
		Limit(10).
		Find(&expiring)

	upcoming := make([]UpcomingExpiry, 0, len(expiring))
	for _, m := range expiring {
		upcoming = append(upcoming, UpcomingExpiry{
			Name:      m.FullName,
			ExpiresOn: m.SubscriptionEndDate.Format("02/01/2006"),
			DaysLeft:  m.DaysUntilExpiry(now),
		})
	}

	c.JSON(http.StatusOK, DashboardOverview{
		TotalMembers:     totalMembers,
		ActiveMembers:    activeMembers,
		ExpiringSoon:     expiringSoon,
		ExpiredMembers:   expiredMembers,
		RemindersSent:    remindersSent,
		UpcomingExpiries: upcoming,
	})
}
