package controllers_test

import (
	"encoding/hex"
	"net/http"
	"testing"
	"time"

	"anime-api-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterCreatesUserWithKey(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(t, db, "http://127.0.0.1:0")

	resp, _, out := doJSON(t, app, http.MethodPost, "/auth/register",
		`{"username":"alice","password":"secret1"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, out["success"])

	data := out["data"].(map[string]interface{})
	assert.Equal(t, "alice", data["username"])
	assert.NotNil(t, data["id"])
	// the hash and key never appear in the response
	assert.NotContains(t, data, "password")
	assert.NotContains(t, data, "api_key")

	var user models.User
	require.NoError(t, db.Where("username = ?", "alice").First(&user).Error)
	assert.Equal(t, models.RoleUser, user.Role)
	require.NotNil(t, user.ApiKey)
	require.Len(t, *user.ApiKey, 64)
	_, err := hex.DecodeString(*user.ApiKey)
	assert.NoError(t, err)
	assert.NoError(t, user.ComparePassword("secret1"))
}

func TestRegisterIgnoresRoleField(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(t, db, "http://127.0.0.1:0")

	resp, _, _ := doJSON(t, app, http.MethodPost, "/auth/register",
		`{"username":"mallory","password":"pw123456","role":"admin"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var user models.User
	require.NoError(t, db.Where("username = ?", "mallory").First(&user).Error)
	assert.Equal(t, models.RoleUser, user.Role)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(t, db, "http://127.0.0.1:0")

	body := `{"username":"alice","password":"secret1"}`
	resp, _, _ := doJSON(t, app, http.MethodPost, "/auth/register", body, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// the violation comes from the unique index itself, so the same answer
	// holds for a concurrent duplicate
	resp, _, out := doJSON(t, app, http.MethodPost, "/auth/register", body, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "Username already exists", out["message"])

	var n int64
	db.Model(&models.User{}).Count(&n)
	assert.EqualValues(t, 1, n)
}

func TestRegisterValidation(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(t, db, "http://127.0.0.1:0")

	for name, body := range map[string]string{
		"missing password": `{"username":"alice"}`,
		"missing username": `{"password":"secret1"}`,
		"empty body":       `{}`,
		"short username":   `{"username":"ab","password":"secret1"}`,
	} {
		resp, _, out := doJSON(t, app, http.MethodPost, "/auth/register", body, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, name)
		assert.Equal(t, false, out["success"], name)
	}

	var n int64
	db.Model(&models.User{}).Count(&n)
	assert.Zero(t, n)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(t, db, "http://127.0.0.1:0")

	resp, _, _ := doJSON(t, app, http.MethodPost, "/auth/register",
		`{"username":"alice","password":"secret1"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	wrongPw, wrongPwBody, _ := doJSON(t, app, http.MethodPost, "/auth/login",
		`{"username":"alice","password":"wrong"}`, nil)
	unknown, unknownBody, _ := doJSON(t, app, http.MethodPost, "/auth/login",
		`{"username":"nobody","password":"wrong"}`, nil)

	assert.Equal(t, http.StatusUnauthorized, wrongPw.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, unknown.StatusCode)
	// byte-identical bodies: no username enumeration
	assert.Equal(t, wrongPwBody, unknownBody)

	var out map[string]interface{}
	_, _, out = doJSON(t, app, http.MethodPost, "/auth/login",
		`{"username":"alice","password":"wrong"}`, nil)
	assert.Equal(t, "Invalid username or password", out["message"])
}

func TestLoginSuccess(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(t, db, "http://127.0.0.1:0")

	before := time.Now().Add(-time.Second)
	resp, _, _ := doJSON(t, app, http.MethodPost, "/auth/register",
		`{"username":"alice","password":"secret1"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _, out := doJSON(t, app, http.MethodPost, "/auth/login",
		`{"username":"alice","password":"secret1"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, out["token"])

	user := out["user"].(map[string]interface{})
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, models.RoleUser, user["role"])

	var stored models.User
	require.NoError(t, db.Where("username = ?", "alice").First(&stored).Error)
	require.NotNil(t, stored.LastLoginAt)
	assert.True(t, stored.LastLoginAt.After(before))
}

func TestLoginMissingFields(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(t, db, "http://127.0.0.1:0")

	resp, _, _ := doJSON(t, app, http.MethodPost, "/auth/login", `{"username":"alice"}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
