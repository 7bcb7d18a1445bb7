package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handa/internal/registration"
	"handa/internal/storage"
)

type stubIssuer struct{}

func (stubIssuer) Issue(identityID uint, role registration.Role, profileID uint) (string, error) {
	return fmt.Sprintf("tok-%d", identityID), nil
}

func newSignupRouter(t *testing.T) (*gin.Engine, *storage.Memory) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mem := storage.NewMemory()
	orch := registration.New(mem.Stores(), nil, nil, stubIssuer{})
	auth := &AuthController{Reg: orch}

	r := gin.New()
	r.POST("/auth/signup", auth.Signup)
	return r, mem
}

func postJSON(t *testing.T, r *gin.Engine, path string, payload map[string]interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func leadPayload(email string) map[string]interface{} {
	return map[string]interface{}{
		"name":           "Maria Santos",
		"email":          email,
		"password":       "secret123",
		"role":           "household_lead",
		"family_members": 4,
		"latitude":       "14.5",
		"longitude":      "121.0",
	}
}

func TestSignupHouseholdLead(t *testing.T) {
	r, _ := newSignupRouter(t)

	w, body := postJSON(t, r, "/auth/signup", leadPayload("maria@example.com"))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, body["success"])

	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, data["token"])

	user, ok := data["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "household_lead", user["role"])

	// The lead needs the generated household code straight away; members
	// quote it when they sign up.
	profile, ok := user["household_lead"].(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, profile["household_code"])
	assert.Equal(t, float64(1), profile["total_members"])
}

func TestSignupRejectsMalformedPayload(t *testing.T) {
	r, _ := newSignupRouter(t)

	// email is not an email, role missing
	w, body := postJSON(t, r, "/auth/signup", map[string]interface{}{
		"name":     "X",
		"email":    "not-an-email",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestSignupUnsupportedRole(t *testing.T) {
	r, _ := newSignupRouter(t)

	payload := leadPayload("x@example.com")
	payload["role"] = "admin"
	w, body := postJSON(t, r, "/auth/signup", payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestSignupDuplicateEmail(t *testing.T) {
	r, _ := newSignupRouter(t)

	w, _ := postJSON(t, r, "/auth/signup", leadPayload("dup@example.com"))
	require.Equal(t, http.StatusCreated, w.Code)

	w, body := postJSON(t, r, "/auth/signup", leadPayload("dup@example.com"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "email")
}

func TestSignupValidationErrorsAreFieldKeyed(t *testing.T) {
	r, _ := newSignupRouter(t)

	w, body := postJSON(t, r, "/auth/signup", map[string]interface{}{
		"name":     "Rico",
		"email":    "rico@example.com",
		"password": "secret123",
		"role":     "rescuer",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	errs, ok := body["errors"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, errs, "id_number")
	assert.Contains(t, errs, "organization")
}

func TestSignupMemberAgainstUnknownHouseholdIs404(t *testing.T) {
	r, _ := newSignupRouter(t)

	w, body := postJSON(t, r, "/auth/signup", map[string]interface{}{
		"name":           "Jose",
		"email":          "jose@example.com",
		"password":       "secret123",
		"role":           "household_member",
		"household_code": "NOSUCH",
		"relationship":   "child",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestSignupInvalidLocation(t *testing.T) {
	r, _ := newSignupRouter(t)

	payload := leadPayload("badloc@example.com")
	delete(payload, "latitude")
	delete(payload, "longitude")
	payload["gps_coordinates"] = "garbage"

	w, body := postJSON(t, r, "/auth/signup", payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])

	// The failed attempt left no identity behind, so retrying with a fixed
	// location succeeds.
	payload["gps_coordinates"] = "14.5,121.0"
	w, _ = postJSON(t, r, "/auth/signup", payload)
	assert.Equal(t, http.StatusCreated, w.Code)
}
