package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"memberhub-backend/config"
	"memberhub-backend/models"
	"memberhub-backend/services"
	"memberhub-backend/testutil"
)

type memberSend struct {
	To   string
	Body string
}

type stubMessenger struct {
	sent     []memberSend
	failWith map[string]error
}

func (s *stubMessenger) Send(to, body string) error {
	s.sent = append(s.sent, memberSend{To: to, Body: body})
	if err, ok := s.failWith[to]; ok {
		return err
	}
	return nil
}

// setupMemberRouter wires the member routes against a test database with the
// auth middleware replaced by a stub identity.
func setupMemberRouter(t *testing.T, db *gorm.DB, messenger services.Messenger) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.DB = db

	svc := services.NewReminderService(db, messenger, config.Settings{
		ReminderLookahead: 3,
		ReminderCooldown:  24 * time.Hour,
	})
	reminder := &ReminderController{Service: svc}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userId", uuid.New().String())
		c.Next()
	})

	members := r.Group("/api/members")
	{
		members.POST("", CreateMember)
		members.GET("", GetMembers)
		members.GET("/expiring", GetExpiringMembers)
		members.GET("/:id", GetMember)
		members.PUT("/:id", UpdateMember)
		members.DELETE("/:id", DeleteMember)
		members.POST("/:id/reminder", reminder.SendMemberReminder)
	}

	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func validCreateInput() map[string]interface{} {
	now := time.Now()
	return map[string]interface{}{
		"fullName":            "Asha Verma",
		"age":                 28,
		"contactNumber":       "+919876543210",
		"joinDate":            now.Format(time.RFC3339),
		"subscriptionEndDate": now.AddDate(0, 1, 0).Format(time.RFC3339),
	}
}

func TestCreateMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	r := setupMemberRouter(t, db, &stubMessenger{})

	w := doJSON(t, r, http.MethodPost, "/api/members", validCreateInput())

	require.Equal(t, http.StatusCreated, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.Member{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	body := decodeBody(t, w)
	member := body["member"].(map[string]interface{})
	assert.Equal(t, "Asha Verma", member["fullName"])
	assert.Equal(t, "active", member["subscriptionStatus"])
	assert.EqualValues(t, 0, member["reminderCount"])
}

func TestCreateMember_ValidationErrors(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	r := setupMemberRouter(t, db, &stubMessenger{})

	tests := []struct {
		name   string
		mutate func(map[string]interface{})
	}{
		{"missing name", func(in map[string]interface{}) { delete(in, "fullName") }},
		{"age too high", func(in map[string]interface{}) { in["age"] = 121 }},
		{"age too low", func(in map[string]interface{}) { in["age"] = 0 }},
		{"bad phone", func(in map[string]interface{}) { in["contactNumber"] = "not-a-phone" }},
		{"leading zero phone", func(in map[string]interface{}) { in["contactNumber"] = "0987654321" }},
		{"end before join", func(in map[string]interface{}) {
			in["subscriptionEndDate"] = time.Now().AddDate(0, 0, -10).Format(time.RFC3339)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validCreateInput()
			tt.mutate(input)

			w := doJSON(t, r, http.MethodPost, "/api/members", input)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	// Nothing was ever persisted.
	var count int64
	require.NoError(t, db.Model(&models.Member{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestCreateMember_DuplicatePhone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	r := setupMemberRouter(t, db, &stubMessenger{})

	testutil.TestMember(t, db, testutil.WithContactNumber("+919876543210"))

	w := doJSON(t, r, http.MethodPost, "/api/members", validCreateInput())
	assert.Equal(t, http.StatusConflict, w.Code)
}

func seedStatusBuckets(t *testing.T, db *gorm.DB) (expired, expiring, active *models.Member) {
	t.Helper()
	now := time.Now()
	expired = testutil.TestMember(t, db,
		testutil.WithFullName("Expired Eddy"),
		testutil.WithSubscriptionEnd(now.AddDate(0, 0, -2)))
	expiring = testutil.TestMember(t, db,
		testutil.WithFullName("Expiring Elsa"),
		testutil.WithSubscriptionEnd(now.AddDate(0, 0, 3)))
	active = testutil.TestMember(t, db,
		testutil.WithFullName("Active Arun"),
		testutil.WithSubscriptionEnd(now.AddDate(0, 0, 4)))
	return
}

func membersFromList(t *testing.T, w *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	body := decodeBody(t, w)
	raw, ok := body["members"].([]interface{})
	require.True(t, ok, "response has no members list")
	out := make([]map[string]interface{}, 0, len(raw))
	for _, item := range raw {
		out = append(out, item.(map[string]interface{}))
	}
	return out
}

func TestGetMembers_StatusFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	r := setupMemberRouter(t, db, &stubMessenger{})

	expired, expiring, active := seedStatusBuckets(t, db)

	tests := []struct {
		status string
		wantID string
	}{
		{"expired", expired.ID.String()},
		{"expiring-soon", expiring.ID.String()},
		{"active", active.ID.String()},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			w := doJSON(t, r, http.MethodGet, "/api/members?status="+tt.status, nil)
			require.Equal(t, http.StatusOK, w.Code)

			members := membersFromList(t, w)
			require.Len(t, members, 1)
			assert.Equal(t, tt.wantID, members[0]["id"])
			assert.Equal(t, tt.status, members[0]["subscriptionStatus"])
		})
	}
}

func TestGetMembers_InvalidStatusFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	r := setupMemberRouter(t, db, &stubMessenger{})

	w := doJSON(t, r, http.MethodGet, "/api/members?status=frozen", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetMembers_Search(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	r := setupMemberRouter(t, db, &stubMessenger{})

	testutil.TestMember(t, db, testutil.WithFullName("Priya Nair"))
	testutil.TestMember(t, db, testutil.WithFullName("Rahul Iyer"))

	w := doJSON(t, r, http.MethodGet, "/api/members?search=priya", nil)
	require.Equal(t, http.StatusOK, w.Code)

	members := membersFromList(t, w)
	require.Len(t, members, 1)
	assert.Equal(t, "Priya Nair", members[0]["fullName"])
}

func TestGetMembers_ExcludesSoftDeleted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	r := setupMemberRouter(t, db, &stubMessenger{})

	testutil.TestMember(t, db, testutil.Inactive())
	kept := testutil.TestMember(t, db)

	w := doJSON(t, r, http.MethodGet, "/api/members", nil)
	require.Equal(t, http.StatusOK, w.Code)

	members := membersFromList(t, w)
	require.Len(t, members, 1)
	assert.Equal(t, kept.ID.String(), members[0]["id"])
}

func TestGetMembers_Pagination(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	r := setupMemberRouter(t, db, &stubMessenger{})

	for i := 0; i < 5; i++ {
		testutil.TestMember(t, db)
	}

	w := doJSON(t, r, http.MethodGet, "/api/members?page=2&limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.EqualValues(t, 5, body["total"])
	assert.EqualValues(t, 3, body["totalPages"])
	assert.EqualValues(t, 2, body["currentPage"])
	assert.Len(t, body["members"], 2)
}

func TestGetExpiringMembers_SortedByEndDate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	r := setupMemberRouter(t, db, &stubMessenger{})

	now := time.Now()
	later := testutil.TestMember(t, db, testutil.WithSubscriptionEnd(now.AddDate(0, 0, 3)))
	sooner := testutil.TestMember(t, db, testutil.WithSubscriptionEnd(now.AddDate(0, 0, 1)))
	testutil.TestMember(t, db, testutil.WithSubscriptionEnd(now.AddDate(0, 0, 30))) // outside window

	w := doJSON(t, r, http.MethodGet, "/api/members/expiring", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.EqualValues(t, 2, body["count"])

	members := membersFromList(t, w)
	require.Len(t, members, 2)
	assert.Equal(t, sooner.ID.String(), members[0]["id"])
	assert.Equal(t, later.ID.String(), members[1]["id"])
}

func TestGetMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	r := setupMemberRouter(t, db, &stubMessenger{})

	member := testutil.TestMember(t, db)

	w := doJSON(t, r, http.MethodGet, "/api/members/"+member.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	got := body["member"].(map[string]interface{})
	assert.Equal(t, member.ID.String(), got["id"])
}

func TestGetMember_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	r := setupMemberRouter(t, db, &stubMessenger{})

	deleted := testutil.TestMember(t, db, testutil.Inactive())

	// Unknown ID.
	w := doJSON(t, r, http.MethodGet, "/api/members/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Soft-deleted members read as missing too.
	w = doJSON(t, r, http.MethodGet, "/api/members/"+deleted.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Malformed ID.
	w = doJSON(t, r, http.MethodGet, "/api/members/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateMember_Partial(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	r := setupMemberRouter(t, db, &stubMessenger{})

	member := testutil.TestMember(t, db, testutil.WithFullName("Before Update"))

	w := doJSON(t, r, http.MethodPut, "/api/members/"+member.ID.String(),
		map[string]interface{}{"age": 45})
	require.Equal(t, http.StatusOK, w.Code)

	var got models.Member
	require.NoError(t, db.Where("id = ?", member.ID).First(&got).Error)
	assert.Equal(t, 45, got.Age)
	assert.Equal(t, "Before Update", got.FullName)
}

func TestUpdateMember_InvalidFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	r := setupMemberRouter(t, db, &stubMessenger{})

	member := testutil.TestMember(t, db)

	w := doJSON(t, r, http.MethodPut, "/api/members/"+member.ID.String(),
		map[string]interface{}{"contactNumber": "oops"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPut, "/api/members/"+member.ID.String(),
		map[string]interface{}{"age": 500})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateMember_RejectsInvertedDates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	r := setupMemberRouter(t, db, &stubMessenger{})

	member := testutil.TestMember(t, db)

	// End date moved to before the join date.
	w := doJSON(t, r, http.MethodPut, "/api/members/"+member.ID.String(),
		map[string]interface{}{
			"subscriptionEndDate": member.JoinDate.AddDate(0, 0, -1).Format(time.RFC3339),
		})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Join date moved past the end date.
	w = doJSON(t, r, http.MethodPut, "/api/members/"+member.ID.String(),
		map[string]interface{}{
			"joinDate": member.SubscriptionEndDate.AddDate(0, 0, 1).Format(time.RFC3339),
		})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Stored dates are untouched.
	var got models.Member
	require.NoError(t, db.Where("id = ?", member.ID).First(&got).Error)
	assert.WithinDuration(t, member.JoinDate, got.JoinDate, time.Second)
	assert.WithinDuration(t, member.SubscriptionEndDate, got.SubscriptionEndDate, time.Second)
}

func TestCreateMember_NormalizesPhone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	r := setupMemberRouter(t, db, &stubMessenger{})

	input := validCreateInput()
	input["contactNumber"] = "+91 (98765) 432-10"

	w := doJSON(t, r, http.MethodPost, "/api/members", input)
	require.Equal(t, http.StatusCreated, w.Code)

	// The separator-free form is what gets stored, so duplicate checks and
	// outbound sends all see one spelling.
	var got models.Member
	require.NoError(t, db.Where("full_name = ?", "Asha Verma").First(&got).Error)
	assert.Equal(t, "+919876543210", got.ContactNumber)

	// A differently-punctuated duplicate is still caught.
	input = validCreateInput()
	input["contactNumber"] = "+91 98765-43210"
	w = doJSON(t, r, http.MethodPost, "/api/members", input)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateMember_NormalizesPhone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	r := setupMemberRouter(t, db, &stubMessenger{})

	member := testutil.TestMember(t, db)

	w := doJSON(t, r, http.MethodPut, "/api/members/"+member.ID.String(),
		map[string]interface{}{"contactNumber": "+91 (91234) 567-89"})
	require.Equal(t, http.StatusOK, w.Code)

	var got models.Member
	require.NoError(t, db.Where("id = ?", member.ID).First(&got).Error)
	assert.Equal(t, "+919123456789", got.ContactNumber)
}

func TestDeleteMember_SoftDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	r := setupMemberRouter(t, db, &stubMessenger{})

	member := testutil.TestMember(t, db)

	w := doJSON(t, r, http.MethodDelete, "/api/members/"+member.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Row survives with the active flag cleared.
	var got models.Member
	require.NoError(t, db.Where("id = ?", member.ID).First(&got).Error)
	assert.False(t, got.IsActive)

	// A second delete reads as not found.
	w = doJSON(t, r, http.MethodDelete, "/api/members/"+member.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSendMemberReminder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	messenger := &stubMessenger{}
	r := setupMemberRouter(t, db, messenger)

	now := time.Now()
	member := testutil.TestMember(t, db, testutil.WithSubscriptionEnd(now.AddDate(0, 0, 2)))

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/members/%s/reminder", member.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, messenger.sent, 1)
	assert.Contains(t, messenger.sent[0].Body, member.FullName)

	var got models.Member
	require.NoError(t, db.Where("id = ?", member.ID).First(&got).Error)
	require.NotNil(t, got.LastReminderSent)
	assert.Equal(t, 1, got.ReminderCount)
}

func TestSendMemberReminder_Failure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	member := testutil.TestMember(t, db, testutil.WithContactNumber("+915555555555"))
	messenger := &stubMessenger{failWith: map[string]error{
		"+915555555555": services.ErrRecipientNotOptedIn,
	}}
	r := setupMemberRouter(t, db, messenger)

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/members/%s/reminder", member.ID), nil)
	require.Equal(t, http.StatusBadGateway, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "recipient-not-opted-in", body["errorKind"])

	var got models.Member
	require.NoError(t, db.Where("id = ?", member.ID).First(&got).Error)
	assert.Nil(t, got.LastReminderSent)
	assert.Equal(t, 0, got.ReminderCount)
}

func TestSendMemberReminder_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	r := setupMemberRouter(t, db, &stubMessenger{})

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/members/%s/reminder", uuid.NewString()), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
