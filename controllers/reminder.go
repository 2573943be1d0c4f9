// controllers/reminder.go
package controllers

import (
	"errors"
	"net/http"

	"memberhub-backend/config"
	"memberhub-backend/models"
	"memberhub-backend/services"
	"memberhub-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReminderController handles manual reminder sends through the same
// pipeline the scheduler uses.
type ReminderController struct {
	Service *services.ReminderService
}

// SendMemberReminder sends a renewal reminder to one member. On success the
// member's lastReminderSent/reminderCount are updated exactly like a batch
// send; on failure they are left untouched.
func (rc *ReminderController) SendMemberReminder(c *gin.Context) {
	memberUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid member ID format")
		return
	}

	var member models.Member
	if err := config.DB.Scopes(models.ActiveOnly).
		Where("id = ?", memberUUID).
		First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Member not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	result := rc.Service.SendReminder(&member)
	if !result.Success {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":     "Failed to send reminder",
			"errorKind": result.ErrorKind,
			"detail":    result.Error,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reminder sent successfully"})
}
