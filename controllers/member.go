package controllers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"memberhub-backend/config"
	"memberhub-backend/models"
	"memberhub-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateMemberInput defines the expected JSON structure for creating a member
type CreateMemberInput struct {
	FullName            string    `json:"fullName" binding:"required"`
	Age                 int       `json:"age" binding:"required"`
	ContactNumber       string    `json:"contactNumber" binding:"required"`
	JoinDate            time.Time `json:"joinDate" binding:"required"`
	SubscriptionEndDate time.Time `json:"subscriptionEndDate" binding:"required"`
}

// UpdateMemberInput defines the expected JSON structure for updating a member
type UpdateMemberInput struct {
	FullName            *string    `json:"fullName"`
	Age                 *int       `json:"age"`
	ContactNumber       *string    `json:"contactNumber"`
	JoinDate            *time.Time `json:"joinDate"`
	SubscriptionEndDate *time.Time `json:"subscriptionEndDate"`
}

// MemberView is a member record plus its derived subscription fields.
// Status and days-until-expiry are always computed, never stored.
type MemberView struct {
	models.Member
	SubscriptionStatus models.SubscriptionStatus `json:"subscriptionStatus"`
	DaysUntilExpiry    int                       `json:"daysUntilExpiry"`
}

func toMemberView(m models.Member, now time.Time) MemberView {
	status, days := models.ClassifySubscription(m.SubscriptionEndDate, now)
	return MemberView{Member: m, SubscriptionStatus: status, DaysUntilExpiry: days}
}

func toMemberViews(members []models.Member, now time.Time) []MemberView {
	views := make([]MemberView, 0, len(members))
	for _, m := range members {
		views = append(views, toMemberView(m, now))
	}
	return views
}

// CreateMember creates a new member record
func CreateMember(c *gin.Context) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	userUUID, err := uuid.Parse(userID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid user ID format")
		return
	}

	var input CreateMemberInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if !utils.ValidateAge(input.Age) {
		utils.RespondWithError(c, http.StatusBadRequest, "Age must be between 1 and 120")
		return
	}

	if !utils.ValidatePhone(input.ContactNumber) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid contact number format")
		return
	}
	input.ContactNumber = utils.NormalizePhone(input.ContactNumber)

	if !utils.ValidateSubscriptionPeriod(input.JoinDate, input.SubscriptionEndDate) {
		utils.RespondWithError(c, http.StatusBadRequest, "Subscription end date must be after join date")
		return
	}

	// Check if contact number already belongs to an active member
	var existingMember models.Member
	if err := config.DB.Scopes(models.ActiveOnly).
		Where("contact_number = ?", input.ContactNumber).
		First(&existingMember).Error; err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Member with this contact number already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	member := models.Member{
		ID:                  uuid.New(),
		CreatedByUserID:     userUUID,
		FullName:            input.FullName,
		Age:                 input.Age,
		ContactNumber:       input.ContactNumber,
		JoinDate:            input.JoinDate,
		SubscriptionEndDate: input.SubscriptionEndDate,
		IsActive:            true,
	}

	if err := config.DB.Create(&member).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create member")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Member created successfully",
		"member":  toMemberView(member, time.Now()),
	})
}

// GetMembers lists active members with optional status filter, search and
// pagination. The status filter applies the same calendar-day boundaries as
// the classifier, expressed as date ranges so the store does the work.
func GetMembers(c *gin.Context) {
	now := time.Now()
	query := config.DB.Scopes(models.ActiveOnly).Model(&models.Member{})

	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("LOWER(full_name) LIKE LOWER(?) OR contact_number LIKE ?", pattern, pattern)
	}

	if status := c.Query("status"); status != "" {
		today := utils.BeginningOfDay(now)
		windowEnd := utils.EndOfDay(now.AddDate(0, 0, models.ExpiringSoonWindowDays))

		switch models.SubscriptionStatus(status) {
		case models.StatusExpired:
			query = query.Where("subscription_end_date < ?", today)
		case models.StatusExpiringSoon:
			query = query.Where("subscription_end_date BETWEEN ? AND ?", today, windowEnd)
		case models.StatusActive:
			query = query.Where("subscription_end_date > ?", windowEnd)
		default:
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid status filter")
			return
		}
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 {
		limit = 10
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve members")
		return
	}

	var members []models.Member
	if err := query.Order("created_at desc").
		Limit(limit).Offset((page - 1) * limit).
		Find(&members).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve members")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"members":     toMemberViews(members, now),
		"total":       total,
		"totalPages":  int(math.Ceil(float64(total) / float64(limit))),
		"currentPage": page,
	})
}

// GetExpiringMembers returns active members expiring between today and the
// end of the lookahead window, soonest first.
func GetExpiringMembers(c *gin.Context) {
	now := time.Now()
	today := utils.BeginningOfDay(now)
	windowEnd := utils.EndOfDay(now.AddDate(0, 0, models.ExpiringSoonWindowDays))

	var members []models.Member
	if err := config.DB.Scopes(models.ActiveOnly).
		Where("subscription_end_date BETWEEN ? AND ?", today, windowEnd).
		Order("subscription_end_date asc").
		Find(&members).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve expiring members")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"members": toMemberViews(members, now),
		"count":   len(members),
	})
}

// GetMember retrieves a specific member by ID
func GetMember(c *gin.Context) {
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

	c.JSON(http.StatusOK, gin.H{"member": toMemberView(member, time.Now())})
}

// UpdateMember updates an existing member
func UpdateMember(c *gin.Context) {
	memberUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid member ID format")
		return
	}

	var input UpdateMemberInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
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

	if input.FullName != nil {
		if *input.FullName == "" {
			utils.RespondWithError(c, http.StatusBadRequest, "Full name cannot be empty")
			return
		}
		member.FullName = *input.FullName
	}
	if input.Age != nil {
		if !utils.ValidateAge(*input.Age) {
			utils.RespondWithError(c, http.StatusBadRequest, "Age must be between 1 and 120")
			return
		}
		member.Age = *input.Age
	}
	if input.ContactNumber != nil {
		if !utils.ValidatePhone(*input.ContactNumber) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid contact number format")
			return
		}
		*input.ContactNumber = utils.NormalizePhone(*input.ContactNumber)

		if member.ContactNumber != *input.ContactNumber {
			var existingMember models.Member
			if err := config.DB.Scopes(models.ActiveOnly).
				Where("contact_number = ?", *input.ContactNumber).
				First(&existingMember).Error; err == nil {
				utils.RespondWithError(c, http.StatusConflict, "Another member with this contact number already exists")
				return
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
				return
			}
		}
		member.ContactNumber = *input.ContactNumber
	}
	if input.JoinDate != nil {
		member.JoinDate = *input.JoinDate
	}
	if input.SubscriptionEndDate != nil {
		member.SubscriptionEndDate = *input.SubscriptionEndDate
	}
	if input.JoinDate != nil || input.SubscriptionEndDate != nil {
		if !utils.ValidateSubscriptionPeriod(member.JoinDate, member.SubscriptionEndDate) {
			utils.RespondWithError(c, http.StatusBadRequest, "Subscription end date must be after join date")
			return
		}
	}

	if err := config.DB.Save(&member).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update member")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Member updated successfully",
		"member":  toMemberView(member, time.Now()),
	})
}

// DeleteMember soft deletes a member by clearing the active flag. Records
// are never physically removed.
func DeleteMember(c *gin.Context) {
	memberUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid member ID format")
		return
	}

	result := config.DB.Model(&models.Member{}).
		Scopes(models.ActiveOnly).
		Where("id = ?", memberUUID).
		Update("is_active", false)

	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete member")
		return
	}

	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Member not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member deleted successfully"})
}
