package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t-race/typerace/internal/app/engagement"
	"github.com/t-race/typerace/internal/health"
	"github.com/t-race/typerace/internal/infra/retry"
	"github.com/t-race/typerace/internal/infra/sqlite"
)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	catalog := engagement.DefaultCatalog()
	ach := engagement.NewAchievementService(db, catalog, retry.Config{MaxRetries: 1, BaseDelay: time.Millisecond})
	stats := engagement.NewStatService(db, engagement.NewTracker(catalog))
	checker := health.NewChecker(db, catalog, "")
	checker.RunOnce(t.Context())

	srv := NewServer(Services{
		Catalog:       catalog,
		Achievements:  ach,
		Stats:         stats,
		Sessions:      engagement.NewSessionService(db, ach, stats, 0),
		Progress:      engagement.NewProgressService(db, catalog),
		Notifications: engagement.NewNotificationService(db, catalog),
		Profiles:      engagement.NewProfileService(db),
		Health:        checker,
	}, opts)
	srv.EnableMetrics()
	return srv
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var out map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func createUser(t *testing.T, h http.Handler, id string) {
	t.Helper()
	w, _ := do(t, h, "POST", "/api/users", `{"userId":"`+id+`","displayName":"`+id+`","email":"`+id+`@example.com"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

// ─── Health & Version ───────────────────────────────────────────────────────

func TestHealthEndpoint(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()
	w, body := do(t, h, "GET", "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Len(t, body["checks"], 2)
}

func TestVersionEndpoint(t *testing.T) {
	h := newTestServer(t, Options{Version: "1.2.3"}).Handler()
	_, body := do(t, h, "GET", "/api/version", "")
	assert.Equal(t, "1.2.3", body["version"])
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()
	do(t, h, "GET", "/api/badges", "")

	w, _ := do(t, h, "GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "typerace_http_requests_total")
}

// ─── Badges ─────────────────────────────────────────────────────────────────

func TestListBadges(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()
	w, body := do(t, h, "GET", "/api/badges", "")

	require.Equal(t, http.StatusOK, w.Code)
	badges := body["badges"].([]any)
	require.Len(t, badges, 19)
	first := badges[0].(map[string]any)
	assert.Equal(t, "warm_up_starter", first["badgeId"])
	assert.Equal(t, "wpm", first["criteria"].(map[string]any)["type"])
}

func TestRecordSessionFlow(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()
	createUser(t, h, "u1")

	w, body := do(t, h, "POST", "/api/typing-stats", `{"userId":"u1","wpm":45,"accuracy":96,"timePlayed":30}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	result := body["result"].(map[string]any)
	assert.Contains(t, result["newBadges"], "first_steps")
	assert.Equal(t, true, result["levelUp"])
	assert.Equal(t, "🎯 Skilled", result["skillLevel"])

	w, body = do(t, h, "GET", "/api/typing-stats/u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["stats"], 1)

	w, body = do(t, h, "GET", "/api/badges/progress/u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	progress := body["progress"].(map[string]any)
	steps := progress["first_steps"].(map[string]any)
	assert.Equal(t, true, steps["unlocked"])
	assert.Equal(t, 100.0, steps["progress"])

	w, body = do(t, h, "GET", "/api/badges/user-stat/u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	stat := body["stat"].(map[string]any)
	assert.Equal(t, 1.0, stat["racesCompleted"])
	assert.Equal(t, 45.0, stat["xpPoints"])
}

func TestRecordSession_Validation(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()

	w, _ := do(t, h, "POST", "/api/typing-stats", `{"userId":"u1","wpm":45}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "missing fields")

	w, _ = do(t, h, "POST", "/api/typing-stats", `{"userId":"u1","wpm":45,"accuracy":140,"timePlayed":30}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "accuracy out of range")

	w, _ = do(t, h, "POST", "/api/typing-stats", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body := do(t, h, "POST", "/api/typing-stats", `{"userId":"ghost","wpm":45,"accuracy":96,"timePlayed":30}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestEvaluate(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()

	w, _ := do(t, h, "POST", "/api/badges/evaluate", `{"userId":"ghost","wpm":45,"accuracy":96,"timePlayed":30}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	createUser(t, h, "u1")
	w, body := do(t, h, "POST", "/api/badges/evaluate", `{"userId":"u1","wpm":100,"accuracy":100,"timePlayed":30}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 19.0, body["totalEvaluated"])
	assert.Contains(t, body["newBadges"], "lightning_hands")
	assert.Contains(t, body["newBadges"], "perfect_typist")
	assert.NotContains(t, body["newBadges"], "first_steps", "no game recorded yet")
}

func TestMarkViewedAndUnviewed(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()
	createUser(t, h, "u1")
	w, _ := do(t, h, "POST", "/api/typing-stats", `{"userId":"u1","wpm":25,"accuracy":90,"timePlayed":30}`)
	require.Equal(t, http.StatusCreated, w.Code)

	_, body := do(t, h, "GET", "/api/badges/unviewed/u1", "")
	assert.Len(t, body["celebrations"], 2, "warm_up_starter and first_steps")

	w, _ = do(t, h, "POST", "/api/badges/mark-viewed", `{"userId":"u1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, h, "POST", "/api/badges/mark-viewed", `{"userId":"u1","badgeId":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = do(t, h, "POST", "/api/badges/mark-viewed", `{"userId":"u1","badgeId":"first_steps"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, body["updated"])
	assert.Equal(t, "1 badge(s) marked as viewed", body["message"])

	_, body = do(t, h, "GET", "/api/badges/unviewed/u1", "")
	assert.Len(t, body["celebrations"], 1)

	_, body = do(t, h, "POST", "/api/badges/unviewed/u1/ack", "")
	assert.Equal(t, 1.0, body["updated"])

	_, body = do(t, h, "GET", "/api/badges/unviewed/u1", "")
	assert.Empty(t, body["celebrations"])
}

// ─── Users ──────────────────────────────────────────────────────────────────

func TestUpsertUser(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()
	createUser(t, h, "u1")

	w, body := do(t, h, "POST", "/api/users", `{"userId":"u1","displayName":"Renamed"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["created"])

	w, body = do(t, h, "GET", "/api/users/u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Renamed", body["user"].(map[string]any)["displayName"])

	w, _ = do(t, h, "POST", "/api/users", `{"displayName":"anon"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, h, "GET", "/api/users/ghost", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLeaderboard(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()
	for i, id := range []string{"a", "b", "c"} {
		createUser(t, h, id)
		w, _ := do(t, h, "PUT", "/api/users/"+id+"/score", `{"score":`+[]string{"50", "90", "70"}[i]+`,"gameTime":30}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w, body := do(t, h, "GET", "/api/users/leaderboard?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	rows := body["leaderboard"].([]any)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[0].(map[string]any)["userId"])
	assert.Equal(t, 1.0, rows[0].(map[string]any)["rank"])
	assert.Equal(t, "c", rows[1].(map[string]any)["userId"])
	page := body["pagination"].(map[string]any)
	assert.Equal(t, 3.0, page["total"])
	assert.Equal(t, true, page["hasMore"])

	w, _ = do(t, h, "GET", "/api/users/leaderboard?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, h, "PUT", "/api/users/a/score", `{"score":-5,"gameTime":30}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ─── Middleware ─────────────────────────────────────────────────────────────

func TestRateLimit(t *testing.T) {
	h := newTestServer(t, Options{RateLimitRPS: 1, RateLimitBurst: 2}).Handler()

	codes := make([]int, 3)
	for i := range codes {
		w, _ := do(t, h, "GET", "/api/version", "")
		codes[i] = w.Code
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestCORS(t *testing.T) {
	h := newTestServer(t, Options{CORSOrigins: []string{"https://t-race.app"}}).Handler()

	req := httptest.NewRequest("OPTIONS", "/api/badges", nil)
	req.Header.Set("Origin", "https://t-race.app")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://t-race.app", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/api/version", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
