package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"krelay/internal/app/access"
	"krelay/internal/app/relay"
	"krelay/internal/app/stats"
	"krelay/internal/configs"
	"krelay/internal/pkg/auth/jwt"
)

type openAccess struct{}

func (openAccess) GetAccess(addr string) int              { return access.Normal }
func (openAccess) IsEmulatorAllowed(emulator string) bool { return true }
func (openAccess) IsGameAllowed(game string) bool         { return true }
func (openAccess) IsSilenced(addr string) bool            { return false }
func (openAccess) GetAnnouncement(addr string) string     { return "" }

func testDeps(t *testing.T) *AppDeps {
	t.Helper()

	cfg := &configs.AppConfig{
		Environment:          "development",
		JWTSecret:            "test-secret",
		MaxUsers:             10,
		MaxGames:             5,
		MaxPing:              300,
		ConnectionTypes:      []int{1, 2, 3, 4, 5, 6},
		MaxUserNameLength:    30,
		MaxClientNameLength:  127,
		MaxGameNameLength:    127,
		MaxChatLength:        150,
		MaxQuitMessageLength: 100,
		KeepAliveTimeout:     100 * time.Second,
		GameDataCacheSize:    16,
		EventQueueSize:       64,
	}
	registry := relay.NewServer(cfg, openAccess{}, nil, nil, nil, "test server")

	return &AppDeps{
		Registry: registry,
		Gauges:   stats.NewGauges(),
		Config:   cfg,
		Version:  "test",
	}
}

func operatorToken(t *testing.T, deps *AppDeps) string {
	t.Helper()
	token, err := jwt.GenerateToken(
		&jwt.Payload{Operator: "tester", Role: "admin"},
		deps.Config.JWTSecret, jwt.OperatorTokenExpiration)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	return token
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	return body
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	router := Router(testDeps(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("health returned %d, want 200", rec.Code)
	}
	body := decodeResponse(t, rec)
	if body["code"].(float64) != 0 {
		t.Fatalf("health code = %v, want 0", body["code"])
	}
}

func TestStatusRequiresToken(t *testing.T) {
	t.Parallel()

	router := Router(testDeps(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status without token returned %d, want 401", rec.Code)
	}
}

func TestStatusReportsRegistryState(t *testing.T) {
	t.Parallel()

	deps := testDeps(t)
	router := Router(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer "+operatorToken(t, deps))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status returned %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeResponse(t, rec)
	data := body["data"].(map[string]any)
	if data["version"] != "test" {
		t.Fatalf("status version = %v, want test", data["version"])
	}
}

func TestAnnounceValidatesBody(t *testing.T) {
	t.Parallel()

	deps := testDeps(t)
	router := Router(deps)

	req := httptest.NewRequest(http.MethodPost, "/api/announce",
		strings.NewReader(`{"message": "   "}`))
	req.Header.Set("Authorization", "Bearer "+operatorToken(t, deps))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank announcement returned %d, want 400", rec.Code)
	}
}

func TestAnnounceUnknownTarget(t *testing.T) {
	t.Parallel()

	deps := testDeps(t)
	router := Router(deps)

	req := httptest.NewRequest(http.MethodPost, "/api/announce",
		strings.NewReader(`{"message": "hello", "target": "nobody"}`))
	req.Header.Set("Authorization", "Bearer "+operatorToken(t, deps))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown target returned %d, want 404", rec.Code)
	}
}

func TestBansNeedStore(t *testing.T) {
	t.Parallel()

	deps := testDeps(t)
	router := Router(deps)

	req := httptest.NewRequest(http.MethodPost, "/api/bans",
		strings.NewReader(`{"pattern": "10.0.0.*", "reason": "test"}`))
	req.Header.Set("Authorization", "Bearer "+operatorToken(t, deps))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("ban without store returned %d, want 503", rec.Code)
	}
}
