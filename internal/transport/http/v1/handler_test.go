package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskdeck/taskdeck/internal/adapter/llm"
	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/domain"
	"github.com/taskdeck/taskdeck/internal/gate"
	"github.com/taskdeck/taskdeck/internal/policy"
	store "github.com/taskdeck/taskdeck/internal/repository"
	"github.com/taskdeck/taskdeck/internal/service"
	"github.com/taskdeck/taskdeck/internal/tools"
)

func newTestHandler(t *testing.T) (*Handler, *llm.MockClient, store.Store) {
	t.Helper()

	db, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	registry, err := tools.NewTaskRegistry(db)
	if err != nil {
		t.Fatalf("NewTaskRegistry failed: %v", err)
	}
	policyEngine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	cfg := &config.Config{
		LLMModel:           "test-model",
		MaxMessageChars:    10000,
		RateLimitPerMinute: 1000,
		MaxAgentRounds:     6,
		MaxHistoryMessages: 200,
	}
	mock := llm.NewMockClient()
	svc := service.New(db, mock, registry, policyEngine, gate.New(cfg.MaxMessageChars, cfg.RateLimitPerMinute), cfg)
	return NewHandler(svc, auth.New("test-secret")), mock, db
}

func userContext(e *echo.Echo, req *http.Request, userID string) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("user_id")
	c.SetParamValues(userID)
	c.Set(userIDKey, userID)
	return c, rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestRequireUser(t *testing.T) {
	e := echo.New()
	h, _, _ := newTestHandler(t)
	signer := auth.New("test-secret")

	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	run := func(authorization, paramUser string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/"+paramUser+"/tasks", nil)
		if authorization != "" {
			req.Header.Set(echo.HeaderAuthorization, authorization)
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("user_id")
		c.SetParamValues(paramUser)
		if err := h.requireUser(next)(c); err != nil {
			t.Fatalf("middleware error: %v", err)
		}
		return rec
	}

	t.Run("valid token", func(t *testing.T) {
		rec := run("Bearer "+signer.Sign("u1", time.Hour), "u1")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing credential", func(t *testing.T) {
		rec := run("", "u1")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "auth", decodeError(t, rec).Error.Kind)
	})

	t.Run("invalid token", func(t *testing.T) {
		rec := run("Bearer nonsense", "u1")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "auth", decodeError(t, rec).Error.Kind)
	})

	t.Run("user id mismatch", func(t *testing.T) {
		rec := run("Bearer "+signer.Sign("u2", time.Hour), "u1")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "auth", decodeError(t, rec).Error.Kind)
	})
}

func TestChatEndpoint(t *testing.T) {
	e := echo.New()
	h, mock, _ := newTestHandler(t)

	mock.Enqueue(llm.TextResponse("hi there"))

	req := httptest.NewRequest(http.MethodPost, "/api/u1/chat", strings.NewReader(`{"message":"hello"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, rec := userContext(e, req, "u1")

	require.NoError(t, h.Chat(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp domain.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.RoleAssistant, resp.Role)
	assert.Equal(t, "hi there", resp.Content)
	assert.NotEmpty(t, resp.MessageID)
	assert.NotNil(t, resp.ToolCalls)
}

func TestChatEndpointRejectsEmptyMessage(t *testing.T) {
	e := echo.New()
	h, _, db := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/u1/chat", strings.NewReader(`{"message":""}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, rec := userContext(e, req, "u1")

	require.NoError(t, h.Chat(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", decodeError(t, rec).Error.Kind)

	// Nothing was written.
	msgs, err := db.ListMessages(context.Background(), "u1", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestChatEndpointUpstreamFailure(t *testing.T) {
	e := echo.New()
	h, mock, _ := newTestHandler(t)

	mock.Fail(context.DeadlineExceeded)

	req := httptest.NewRequest(http.MethodPost, "/api/u1/chat", strings.NewReader(`{"message":"hello"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, rec := userContext(e, req, "u1")

	require.NoError(t, h.Chat(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "upstream_agent", body.Error.Kind)
	assert.NotContains(t, body.Error.Message, "deadline")
}

func TestListTasksEndpoint(t *testing.T) {
	e := echo.New()
	h, mock, _ := newTestHandler(t)

	mock.Enqueue(
		llm.ToolCallResponse(llm.Call("call_1", "add_task", `{"title":"buy milk"}`)),
		llm.TextResponse("Added."),
	)
	req := httptest.NewRequest(http.MethodPost, "/api/u1/chat", strings.NewReader(`{"message":"add task buy milk"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, _ := userContext(e, req, "u1")
	require.NoError(t, h.Chat(c))

	req = httptest.NewRequest(http.MethodGet, "/api/u1/tasks", nil)
	c, rec := userContext(e, req, "u1")
	require.NoError(t, h.ListTasks(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Tasks []domain.Task `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Tasks, 1)
	assert.Equal(t, "buy milk", resp.Tasks[0].Title)

	// Another user sees nothing.
	req = httptest.NewRequest(http.MethodGet, "/api/u2/tasks", nil)
	c, rec = userContext(e, req, "u2")
	require.NoError(t, h.ListTasks(c))
	require.Equal(t, http.StatusOK, rec.Code)
	resp.Tasks = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Tasks)
}

func TestListTasksEndpointBadFilter(t *testing.T) {
	e := echo.New()
	h, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/u1/tasks?completed=maybe", nil)
	c, rec := userContext(e, req, "u1")
	require.NoError(t, h.ListTasks(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", decodeError(t, rec).Error.Kind)
}

func TestListMessagesEndpoint(t *testing.T) {
	e := echo.New()
	h, mock, _ := newTestHandler(t)

	mock.Enqueue(llm.TextResponse("hi there"))
	req := httptest.NewRequest(http.MethodPost, "/api/u1/chat", strings.NewReader(`{"message":"hello"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, _ := userContext(e, req, "u1")
	require.NoError(t, h.Chat(c))

	req = httptest.NewRequest(http.MethodGet, "/api/u1/messages", nil)
	c, rec := userContext(e, req, "u1")
	require.NoError(t, h.ListMessages(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Messages []domain.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, domain.RoleUser, resp.Messages[0].Role)
	assert.Equal(t, domain.RoleAssistant, resp.Messages[1].Role)
}

func TestHealth(t *testing.T) {
	e := echo.New()
	h, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.Health(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}
