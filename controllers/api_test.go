package controllers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"ChatterAI/models"
	"ChatterAI/pkg/config"
	"ChatterAI/pkg/services"
	"ChatterAI/pkg/store"
	"ChatterAI/pkg/token"
	"ChatterAI/routes"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestAPI wires the full router against a throwaway sqlite database with
// the assistant disabled, so every chat turn completes with fallback text.
func newTestAPI(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "api.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Conversation{}, &models.Message{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	st := store.New(db)
	tokens := token.NewService("test-secret")
	assistant := services.NewAssistantService(&config.Config{
		GeminiModel:             "gemini-2.0-flash",
		AssistantTimeoutSeconds: 1,
	}, zap.NewNop())

	r := gin.New()
	routes.RegisterRoutes(r, st, tokens, assistant)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON response %q: %v", w.Body.String(), err)
	}
	return out
}

func signup(t *testing.T, r *gin.Engine, username string) string {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/auth/signup", "", gin.H{"username": username, "password": "pw1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("signup failed with %d: %s", w.Code, w.Body.String())
	}
	tok, _ := decode(t, w)["token"].(string)
	if tok == "" {
		t.Fatal("signup returned no token")
	}
	return tok
}

func TestSignup(t *testing.T) {
	r := newTestAPI(t)

	w := do(t, r, http.MethodPost, "/api/auth/signup", "", gin.H{"username": "alice", "password": "pw1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode(t, w)
	user, _ := resp["user"].(map[string]any)
	if user == nil || user["username"] != "alice" || user["id"] == "" {
		t.Fatalf("unexpected user payload: %v", resp["user"])
	}
	if resp["token"] == "" {
		t.Fatal("expected a token")
	}

	// same username again is a conflict
	w = do(t, r, http.MethodPost, "/api/auth/signup", "", gin.H{"username": "alice", "password": "pw2"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on duplicate, got %d", w.Code)
	}
}

func TestSignupValidation(t *testing.T) {
	r := newTestAPI(t)

	for _, body := range []gin.H{
		{"username": "", "password": "pw1"},
		{"username": "alice", "password": ""},
		{},
	} {
		w := do(t, r, http.MethodPost, "/api/auth/signup", "", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %v, got %d", body, w.Code)
		}
	}
}

func TestLogin(t *testing.T) {
	r := newTestAPI(t)
	signup(t, r, "alice")

	w := do(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", w.Code)
	}
	w = do(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"username": "nobody", "password": "pw1"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown user, got %d", w.Code)
	}

	w = do(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "pw1"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if decode(t, w)["token"] == "" {
		t.Fatal("expected a token")
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestAPI(t)

	for _, req := range []struct{ method, path string }{
		{http.MethodGet, "/api/conversations"},
		{http.MethodPost, "/api/conversations"},
		{http.MethodGet, "/api/conversations/some-id"},
		{http.MethodPost, "/api/conversations/some-id/messages"},
	} {
		w := do(t, r, req.method, req.path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", req.method, req.path, w.Code)
		}
	}
}

func TestChatTurn(t *testing.T) {
	r := newTestAPI(t)
	tok := signup(t, r, "alice")

	w := do(t, r, http.MethodPost, "/api/conversations", tok, gin.H{"title": "My chat"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	convID, _ := decode(t, w)["id"].(string)
	if convID == "" {
		t.Fatal("conversation response missing id")
	}

	// assistant is disabled, so the turn must complete with fallback text
	w = do(t, r, http.MethodPost, "/api/conversations/"+convID+"/messages", tok, gin.H{"content": "Hello"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	msg := decode(t, w)
	if msg["role"] != models.RoleAssistant {
		t.Fatalf("expected assistant message, got %v", msg["role"])
	}
	if msg["content"] != services.FallbackText {
		t.Fatalf("expected fallback content, got %v", msg["content"])
	}

	w = do(t, r, http.MethodGet, "/api/conversations/"+convID, tok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	msgs, _ := decode(t, w)["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	first, _ := msgs[0].(map[string]any)
	second, _ := msgs[1].(map[string]any)
	if first["role"] != models.RoleUser || first["content"] != "Hello" {
		t.Fatalf("unexpected first message: %v", first)
	}
	if second["role"] != models.RoleAssistant {
		t.Fatalf("unexpected second message: %v", second)
	}

	w = do(t, r, http.MethodGet, "/api/conversations", tok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var list []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("invalid list response: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(list))
	}
	if list[0]["last_message"] != services.FallbackText {
		t.Fatalf("expected fallback as last message, got %v", list[0]["last_message"])
	}
}

func TestEmptyMessageContent(t *testing.T) {
	r := newTestAPI(t)
	tok := signup(t, r, "alice")

	w := do(t, r, http.MethodPost, "/api/conversations", tok, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	convID, _ := decode(t, w)["id"].(string)

	for _, body := range []gin.H{{"content": ""}, {"content": "   "}, {}} {
		w := do(t, r, http.MethodPost, "/api/conversations/"+convID+"/messages", tok, body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %v, got %d", body, w.Code)
		}
	}
}

func TestCrossUserAccessLooksLikeMissing(t *testing.T) {
	r := newTestAPI(t)
	aliceTok := signup(t, r, "alice")
	bobTok := signup(t, r, "bob")

	w := do(t, r, http.MethodPost, "/api/conversations", aliceTok, gin.H{"title": "private"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	convID, _ := decode(t, w)["id"].(string)

	other := do(t, r, http.MethodGet, "/api/conversations/"+convID, bobTok, nil)
	missing := do(t, r, http.MethodGet, "/api/conversations/does-not-exist", bobTok, nil)
	if other.Code != http.StatusNotFound || missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for both, got %d and %d", other.Code, missing.Code)
	}
	if other.Body.String() != missing.Body.String() {
		t.Fatalf("responses must be indistinguishable: %q vs %q", other.Body.String(), missing.Body.String())
	}

	w = do(t, r, http.MethodPost, "/api/conversations/"+convID+"/messages", bobTok, gin.H{"content": "sneaky"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on cross-user write, got %d", w.Code)
	}

	// alice's conversation is untouched
	w = do(t, r, http.MethodGet, "/api/conversations/"+convID, aliceTok, nil)
	msgs, _ := decode(t, w)["messages"].([]any)
	if len(msgs) != 0 {
		t.Fatalf("expected no messages, got %d", len(msgs))
	}
}
