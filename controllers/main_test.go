package controllers_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"anime-api-backend/jikan"
	"anime-api-backend/middlewares"
	"anime-api-backend/models"
	"anime-api-backend/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testJWT = middlewares.JWTConfig{
	Secret: []byte("test-secret"),
	TTL:    time.Hour,
}

// newTestDB opens a per-test in-memory database. The name keeps the shared
// cache private to this test while letting GORM's pool see one store.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.ApiLog{}))
	return db
}

// newTestApp wires the full route surface against db and a fake upstream.
func newTestApp(t *testing.T, db *gorm.DB, upstreamURL string) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: middlewares.ErrorHandler})
	routes.Register(app, routes.Deps{
		DB:    db,
		JWT:   testJWT,
		Jikan: jikan.New(upstreamURL, 2*time.Second),
	})
	return app
}

// doJSON performs one request against the app and decodes the response
// envelope. The raw body is returned too for byte-level comparisons.
func doJSON(t *testing.T, app *fiber.App, method, path, body string, headers map[string]string) (*http.Response, []byte, map[string]interface{}) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp, raw, out
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func apiKeyHeader(key string) map[string]string {
	return map[string]string{middlewares.APIKeyHeader: key}
}

// registerAndLogin creates a fresh account through the public endpoints and
// returns its session token.
func registerAndLogin(t *testing.T, app *fiber.App, username, password string) string {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"password":%q}`, username, password)
	resp, _, _ := doJSON(t, app, http.MethodPost, "/auth/register", body, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _, out := doJSON(t, app, http.MethodPost, "/auth/login", body, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := out["token"].(string)
	require.NotEmpty(t, token)
	return token
}

// fetchAPIKey pulls the caller's gateway key via the session route.
func fetchAPIKey(t *testing.T, app *fiber.App, token string) string {
	t.Helper()
	resp, _, out := doJSON(t, app, http.MethodGet, "/user/api-key", "", bearer(token))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, _ := out["data"].(map[string]interface{})
	key, _ := data["api_key"].(string)
	require.Len(t, key, 64)
	return key
}

// fakeUpstream serves canned Jikan-style answers keyed by exact request path.
func fakeUpstream(t *testing.T, responses map[string]fakeResponse) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fr, ok := responses[r.URL.Path]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(fr.status)
			_, _ = w.Write([]byte(fr.body))
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":404,"type":"HttpException","message":"Resource does not exist"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

type fakeResponse struct {
	status int
	body   string
}

func countLogs(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.ApiLog{}).Count(&n).Error)
	return n
}
