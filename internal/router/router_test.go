package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"pollboard/internal/config"
	"pollboard/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Mode: gin.TestMode},
		JWT:    config.JWTConfig{Secret: "test-secret", ExpireHours: 1},
		Admin:  config.AdminConfig{Emails: []string{"admin@example.com"}},
		RateLimit: config.RateLimitConfig{
			Login:      config.RateRule{Max: 5, WindowSeconds: 300},
			Register:   config.RateRule{Max: 100, WindowSeconds: 600},
			CreatePoll: config.RateRule{Max: 100, WindowSeconds: 300},
			Vote:       config.RateRule{Max: 100, WindowSeconds: 60},
		},
	}
}

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Poll{}, &models.Option{}, &models.Vote{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	return SetupRouter(testConfig(), db)
}

func doJSON(r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope struct {
		Code int                    `json:"code"`
		Data map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return envelope.Data
}

// registerAndLogin creates an account and returns its bearer token.
func registerAndLogin(t *testing.T, r *gin.Engine, email string) string {
	t.Helper()

	w := doJSON(r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": email, "password": "Passw0rdX", "name": "Test User",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", email, w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": email, "password": "Passw0rdX",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", email, w.Code, w.Body.String())
	}
	token, _ := decodeData(t, w)["token"].(string)
	if token == "" {
		t.Fatalf("login %s: no token in %s", email, w.Body.String())
	}
	return token
}

func createTestPoll(t *testing.T, r *gin.Engine, token string) string {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/polls", token, gin.H{
		"question": "Color?", "options": []string{"Red", "Blue"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create poll: status %d body %s", w.Code, w.Body.String())
	}
	poll, _ := decodeData(t, w)["poll"].(map[string]interface{})
	id, _ := poll["id"].(string)
	if id == "" {
		t.Fatalf("create poll: no id in %s", w.Body.String())
	}
	return id
}

func TestRegisterValidationAndConflict(t *testing.T) {
	r := setupTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "bad", "password": "Passw0rdX", "name": "X",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad email: status %d, want 400", w.Code)
	}

	w = doJSON(r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "u@example.com", "password": "weak", "name": "X",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("weak password: status %d, want 400", w.Code)
	}

	w = doJSON(r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "u@example.com", "password": "Passw0rdX", "name": "X",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: status %d, want 201", w.Code)
	}

	// same email, different case, still a conflict
	w = doJSON(r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "U@Example.com", "password": "Passw0rdX", "name": "X",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate email: status %d, want 409", w.Code)
	}
}

func TestLoginFailuresAndRateLimit(t *testing.T) {
	r := setupTestRouter(t)
	registerAndLogin(t, r, "u@example.com")

	// limit is 5 per email; attempts 2-5 fail auth, the 6th is rate limited
	for i := 0; i < 4; i++ {
		w := doJSON(r, http.MethodPost, "/api/auth/login", "", gin.H{
			"email": "u@example.com", "password": "WrongPass1",
		})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("wrong password attempt %d: status %d, want 401", i+1, w.Code)
		}
	}

	w := doJSON(r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "u@example.com", "password": "WrongPass1",
	})
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("6th attempt: status %d, want 429", w.Code)
	}

	// other accounts have their own window
	registerAndLogin(t, r, "fresh@example.com")
}

func TestPollCRUDStatusCodes(t *testing.T) {
	r := setupTestRouter(t)
	owner := registerAndLogin(t, r, "owner@example.com")
	other := registerAndLogin(t, r, "other@example.com")

	// unauthenticated create
	w := doJSON(r, http.MethodPost, "/api/polls", "", gin.H{
		"question": "Q?", "options": []string{"a", "b"},
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("create without token: status %d, want 401", w.Code)
	}

	pollID := createTestPoll(t, r, owner)

	// public reads need no token
	w = doJSON(r, http.MethodGet, "/api/polls", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("list: status %d, want 200", w.Code)
	}
	w = doJSON(r, http.MethodGet, "/api/polls/"+pollID, "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("get: status %d, want 200", w.Code)
	}

	w = doJSON(r, http.MethodGet, "/api/polls/not-a-uuid", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("get with bad id: status %d, want 400", w.Code)
	}
	w = doJSON(r, http.MethodGet, "/api/polls/7b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get missing poll: status %d, want 404", w.Code)
	}

	// update: non-owner forbidden, owner ok
	w = doJSON(r, http.MethodPut, "/api/polls/"+pollID, other, gin.H{
		"question": "Mine now?", "options": []string{"a", "b"},
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("update by non-owner: status %d, want 403", w.Code)
	}
	w = doJSON(r, http.MethodPut, "/api/polls/"+pollID, owner, gin.H{
		"question": "Still mine?", "options": []string{"a", "b"},
	})
	if w.Code != http.StatusOK {
		t.Errorf("update by owner: status %d, want 200", w.Code)
	}

	// delete: non-owner forbidden, owner ok, second delete 404
	w = doJSON(r, http.MethodDelete, "/api/polls/"+pollID, other, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("delete by non-owner: status %d, want 403", w.Code)
	}
	w = doJSON(r, http.MethodDelete, "/api/polls/"+pollID, owner, nil)
	if w.Code != http.StatusOK {
		t.Errorf("delete by owner: status %d, want 200", w.Code)
	}
	w = doJSON(r, http.MethodDelete, "/api/polls/"+pollID, owner, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("delete again: status %d, want 404", w.Code)
	}
}

func TestVoteStatusCodes(t *testing.T) {
	r := setupTestRouter(t)
	owner := registerAndLogin(t, r, "owner@example.com")
	voter := registerAndLogin(t, r, "voter@example.com")
	pollID := createTestPoll(t, r, owner)

	w := doJSON(r, http.MethodPost, "/api/polls/"+pollID+"/vote", "", gin.H{"option_index": 0})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("vote without token: status %d, want 401", w.Code)
	}

	w = doJSON(r, http.MethodPost, "/api/polls/"+pollID+"/vote", voter, gin.H{"option_index": 5})
	if w.Code != http.StatusBadRequest {
		t.Errorf("vote out of range: status %d, want 400", w.Code)
	}

	w = doJSON(r, http.MethodPost, "/api/polls/"+pollID+"/vote", voter, gin.H{"option_index": 1})
	if w.Code != http.StatusCreated {
		t.Fatalf("vote: status %d, want 201, body %s", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodPost, "/api/polls/"+pollID+"/vote", voter, gin.H{"option_index": 0})
	if w.Code != http.StatusConflict {
		t.Errorf("second vote: status %d, want 409", w.Code)
	}

	// tallies show up on the public read
	w = doJSON(r, http.MethodGet, "/api/polls/"+pollID, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: status %d, want 200", w.Code)
	}
	data := decodeData(t, w)
	if total, _ := data["total_votes"].(float64); total != 1 {
		t.Errorf("total_votes = %v, want 1", data["total_votes"])
	}
	if data["your_vote"] != nil {
		t.Errorf("anonymous your_vote = %v, want null", data["your_vote"])
	}

	// with the voter's token the same read names their choice
	w = doJSON(r, http.MethodGet, "/api/polls/"+pollID, voter, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get with token: status %d, want 200", w.Code)
	}
	data = decodeData(t, w)
	if idx, ok := data["your_vote"].(float64); !ok || idx != 1 {
		t.Errorf("voter your_vote = %v, want 1", data["your_vote"])
	}

	// a non-voter's token reads as not-yet-voted, and a garbage token
	// still gets the public view instead of a rejection
	w = doJSON(r, http.MethodGet, "/api/polls/"+pollID, owner, nil)
	if data := decodeData(t, w); data["your_vote"] != nil {
		t.Errorf("non-voter your_vote = %v, want null", data["your_vote"])
	}
	w = doJSON(r, http.MethodGet, "/api/polls/"+pollID, "not-a-jwt", nil)
	if w.Code != http.StatusOK {
		t.Errorf("get with garbage token: status %d, want 200", w.Code)
	}
}

func TestAdminEndpoints(t *testing.T) {
	r := setupTestRouter(t)
	owner := registerAndLogin(t, r, "owner@example.com")
	admin := registerAndLogin(t, r, "admin@example.com")
	regular := registerAndLogin(t, r, "user@example.com")
	pollID := createTestPoll(t, r, owner)

	w := doJSON(r, http.MethodGet, "/api/admin/polls", regular, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("admin list as regular user: status %d, want 403", w.Code)
	}
	w = doJSON(r, http.MethodGet, "/api/admin/polls", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("admin list unauthenticated: status %d, want 401", w.Code)
	}

	w = doJSON(r, http.MethodGet, "/api/admin/polls", admin, nil)
	if w.Code != http.StatusOK {
		t.Errorf("admin list: status %d, want 200", w.Code)
	}

	w = doJSON(r, http.MethodDelete, "/api/admin/polls/"+pollID, regular, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("admin delete as regular user: status %d, want 403", w.Code)
	}
	w = doJSON(r, http.MethodDelete, "/api/admin/polls/"+pollID, admin, nil)
	if w.Code != http.StatusOK {
		t.Errorf("admin delete: status %d, want 200", w.Code)
	}
	w = doJSON(r, http.MethodGet, "/api/polls/"+pollID, "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after admin delete: status %d, want 404", w.Code)
	}
}

func TestGetMe(t *testing.T) {
	r := setupTestRouter(t)
	admin := registerAndLogin(t, r, "admin@example.com")
	regular := registerAndLogin(t, r, "user@example.com")

	w := doJSON(r, http.MethodGet, "/api/me", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("me without token: status %d, want 401", w.Code)
	}

	w = doJSON(r, http.MethodGet, "/api/me", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: status %d, want 200", w.Code)
	}
	user, _ := decodeData(t, w)["user"].(map[string]interface{})
	if isAdmin, _ := user["admin"].(bool); !isAdmin {
		t.Errorf("admin flag = %v for allow-listed user, want true", user["admin"])
	}

	w = doJSON(r, http.MethodGet, "/api/me", regular, nil)
	user, _ = decodeData(t, w)["user"].(map[string]interface{})
	if isAdmin, _ := user["admin"].(bool); isAdmin {
		t.Errorf("admin flag = %v for regular user, want false", user["admin"])
	}

	// garbage token is rejected, not treated as anonymous
	w = doJSON(r, http.MethodGet, "/api/me", "not-a-jwt", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("me with garbage token: status %d, want 401", w.Code)
	}
}

func TestMinePollsRoute(t *testing.T) {
	r := setupTestRouter(t)
	u1 := registerAndLogin(t, r, "u1@example.com")
	u2 := registerAndLogin(t, r, "u2@example.com")
	createTestPoll(t, r, u1)

	w := doJSON(r, http.MethodGet, "/api/polls/mine", u1, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("mine: status %d, want 200", w.Code)
	}
	polls, _ := decodeData(t, w)["polls"].([]interface{})
	if len(polls) != 1 {
		t.Errorf("mine for u1 = %d polls, want 1", len(polls))
	}

	w = doJSON(r, http.MethodGet, "/api/polls/mine", u2, nil)
	polls, _ = decodeData(t, w)["polls"].([]interface{})
	if len(polls) != 0 {
		t.Errorf("mine for u2 = %d polls, want 0", len(polls))
	}
}
