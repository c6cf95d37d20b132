package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"emaihl-library/internal/adapters/gateway"
	"emaihl-library/internal/adapters/http/middleware"
	"emaihl-library/internal/adapters/persistence/repositories"
	"emaihl-library/internal/adapters/persistence/store"
	"emaihl-library/internal/config"
	"emaihl-library/internal/core/services"
	"emaihl-library/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testPassphrase = "9595"

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Meta    json.RawMessage   `json:"meta"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields"`
}

type testServer struct {
	app     *fiber.App
	library *services.LibraryService
	token   string
}

func newTestServer(t *testing.T, check services.ConnectionCheck) *testServer {
	t.Helper()

	logger := zap.NewNop()
	cfg := &config.Config{
		AppMode: "dev",
		Session: config.SessionConfig{Passphrase: testPassphrase, Secret: "test-secret", TokenMinutes: 60},
	}

	gw := gateway.NewService(store.NewMemoryStore(), logger)
	v := validation.New()
	repo := repositories.NewLibraryRepository(gw, v, logger)
	library := services.NewLibraryService(repo, check, logger)
	_ = library.Load(context.Background())

	sessions, err := services.NewSessionService(cfg.Session, logger)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.CustomErrorHandler})
	Setup(app, &Dependencies{
		Config:    cfg,
		Store:     gw,
		Gateway:   gw,
		Library:   library,
		Assistant: services.NewInsightService(nil, library, logger),
		Sessions:  sessions,
		Dashboard: services.NewDashboardService(library),
		Feedback:  services.NewFeedbackService(repo, logger),
		Validator: v,
	})

	return &testServer{app: app, library: library}
}

func (s *testServer) do(t *testing.T, method, path, body string) (int, *envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, &env
}

func (s *testServer) login(t *testing.T) {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/api/v1/session", `{"passphrase":"`+testPassphrase+`"}`)
	require.Equal(t, http.StatusOK, status)

	var session services.Session
	require.NoError(t, json.Unmarshal(env.Data, &session))
	require.NotEmpty(t, session.Token)
	s.token = session.Token
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func TestStatus_Ready(t *testing.T) {
	s := newTestServer(t, nil)

	status, env := s.do(t, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, status)

	body := decode[map[string]any](t, env.Data)
	assert.Equal(t, "ready", body["phase"])
	assert.NotContains(t, body, "diagnostic")
}

func TestSession_Gate(t *testing.T) {
	s := newTestServer(t, nil)

	status, _ := s.do(t, http.MethodGet, "/api/v1/books", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env := s.do(t, http.MethodPost, "/api/v1/session", `{"passphrase":"1234"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Wrong passphrase", env.Error)

	s.token = "not-a-token"
	status, _ = s.do(t, http.MethodGet, "/api/v1/books", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	s.login(t)
	status, _ = s.do(t, http.MethodGet, "/api/v1/books", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestReadyGate_ReportsDiagnostic(t *testing.T) {
	s := newTestServer(t, func() error { return config.ErrWrongURLFormat })
	s.login(t)

	status, env := s.do(t, http.MethodGet, "/api/v1/books", "")
	require.Equal(t, http.StatusServiceUnavailable, status)

	diag := decode[services.Diagnostic](t, env.Data)
	assert.Equal(t, services.DiagnosticWrongURLFormat, diag.Code)

	status, env = s.do(t, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, status)
	body := decode[map[string]any](t, env.Data)
	assert.Equal(t, "error", body["phase"])
	assert.Contains(t, body, "diagnostic")

	status, _ = s.do(t, http.MethodPost, "/api/v1/status/reload", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestLibraryFlow(t *testing.T) {
	s := newTestServer(t, nil)
	s.login(t)

	// Add a book with only a title
	status, env := s.do(t, http.MethodPost, "/api/v1/books", `{"title":"Sefiller"}`)
	require.Equal(t, http.StatusCreated, status, env.Error)
	book := decode[map[string]any](t, env.Data)
	assert.Equal(t, services.DefaultAuthor, book["author"])
	assert.Equal(t, services.DefaultISBN, book["isbn"])
	assert.Equal(t, "Available", book["status"])
	bookID := book["id"].(string)

	status, env = s.do(t, http.MethodGet, "/api/v1/books?q=SEF", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]map[string]any](t, env.Data), 1)
	assert.EqualValues(t, 1, decode[map[string]any](t, env.Meta)["total"])

	// Add a student
	status, env = s.do(t, http.MethodPost, "/api/v1/students",
		`{"name":"Ali Veli","studentNumber":"1001","grade":"9-A"}`)
	require.Equal(t, http.StatusCreated, status, env.Error)
	studentID := decode[map[string]any](t, env.Data)["id"].(string)

	status, env = s.do(t, http.MethodGet, "/api/v1/students/grades", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"9-A"}, decode[[]string](t, env.Data))

	status, env = s.do(t, http.MethodGet, "/api/v1/loans/candidates/students?q=al", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]map[string]any](t, env.Data), 1)

	// Lend it with the default period
	status, env = s.do(t, http.MethodPost, "/api/v1/loans",
		`{"bookId":"`+bookID+`","studentId":"`+studentID+`"}`)
	require.Equal(t, http.StatusCreated, status, env.Error)
	loan := decode[map[string]any](t, env.Data)
	assert.Equal(t, "Active", loan["status"])
	loanID := loan["id"].(string)
	assert.True(t, strings.HasPrefix(loanID, "L-"))

	status, _ = s.do(t, http.MethodPost, "/api/v1/loans",
		`{"bookId":"`+bookID+`","studentId":"`+studentID+`"}`)
	assert.Equal(t, http.StatusConflict, status)

	status, env = s.do(t, http.MethodGet, "/api/v1/loans/candidates/books?q=sef", "")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[[]map[string]any](t, env.Data))

	status, env = s.do(t, http.MethodGet, "/api/v1/loans", "")
	require.Equal(t, http.StatusOK, status)
	rows := decode[[]map[string]any](t, env.Data)
	require.Len(t, rows, 1)
	assert.Equal(t, "Sefiller", rows[0]["bookTitle"])
	assert.Equal(t, "Ali Veli", rows[0]["studentName"])
	assert.Equal(t, true, rows[0]["canReturn"])

	status, env = s.do(t, http.MethodGet, "/api/v1/dashboard", "")
	require.Equal(t, http.StatusOK, status)
	dash := decode[map[string]any](t, env.Data)
	assert.EqualValues(t, 1, dash["activeLoans"])
	assert.Len(t, dash["recentLoans"], 1)

	// Return it, twice
	status, env = s.do(t, http.MethodPost, "/api/v1/loans/"+loanID+"/return", "")
	require.Equal(t, http.StatusOK, status, env.Error)
	assert.Equal(t, "Returned", decode[map[string]any](t, env.Data)["status"])

	status, _ = s.do(t, http.MethodPost, "/api/v1/loans/"+loanID+"/return", "")
	assert.Equal(t, http.StatusConflict, status)

	snap := s.library.Snapshot()
	require.Len(t, snap.Books, 1)
	assert.True(t, snap.Books[0].IsAvailable())

	// Delete
	status, _ = s.do(t, http.MethodDelete, "/api/v1/books/"+bookID, "")
	assert.Equal(t, http.StatusOK, status)
	status, _ = s.do(t, http.MethodDelete, "/api/v1/books/"+bookID, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRequestValidation(t *testing.T) {
	s := newTestServer(t, nil)
	s.login(t)

	status, env := s.do(t, http.MethodPost, "/api/v1/books", `{"author":"Victor Hugo"}`)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Fields, "title")

	status, env = s.do(t, http.MethodPost, "/api/v1/loans", `{"bookId":"B1","studentId":"S1","days":61}`)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Fields, "days")

	status, _ = s.do(t, http.MethodPost, "/api/v1/loans", `{"bookId":"B1","studentId":"S1","days":10}`)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = s.do(t, http.MethodPost, "/api/v1/feedback", `{"type":"praise","message":"hi"}`)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Fields, "type")

	status, _ = s.do(t, http.MethodPost, "/api/v1/feedback", `{"type":"bug","message":"Scanner froze"}`)
	assert.Equal(t, http.StatusCreated, status)
}

func TestAssistant_WithoutGenerator(t *testing.T) {
	s := newTestServer(t, nil)
	s.login(t)

	status, env := s.do(t, http.MethodGet, "/api/v1/assistant/insights", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, services.InsightsFallback, decode[map[string]string](t, env.Data)["insight"])

	status, _ = s.do(t, http.MethodPost, "/api/v1/assistant/chat", `{"message":"  "}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = s.do(t, http.MethodPost, "/api/v1/assistant/chat", `{"message":"How many books?"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, services.ChatFallback, decode[map[string]string](t, env.Data)["reply"])
}

func TestGatewayEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	status, env := s.do(t, http.MethodGet, "/api/mongo", "")
	assert.Equal(t, http.StatusMethodNotAllowed, status)
	assert.Equal(t, "Method Not Allowed", env.Message)

	status, env = s.do(t, http.MethodPost, "/api/mongo", `{"action":"drop","collection":"books"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid action", env.Message)

	status, _ = s.do(t, http.MethodPost, "/api/mongo", `{"action":"find"}`)
	assert.Equal(t, http.StatusInternalServerError, status)

	status, _ = s.do(t, http.MethodPost, "/api/mongo",
		`{"action":"insertOne","collection":"notes","body":{"document":{"id":"n1","text":"hello"}}}`)
	require.Equal(t, http.StatusOK, status)

	req := httptest.NewRequest(http.MethodPost, "/api/mongo",
		strings.NewReader(`{"action":"find","collection":"notes","body":{"filter":{"id":"n1"}}}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out struct {
		Documents []map[string]any `json:"documents"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Documents, 1)
	assert.Equal(t, "hello", out.Documents[0]["text"])
}
