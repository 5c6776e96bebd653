package routes

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/haguru/llmvault/internal/apperrors"
	"github.com/haguru/llmvault/internal/interfaces/mocks"
	"github.com/haguru/llmvault/internal/models"
	"github.com/haguru/llmvault/pkg/metrics"
	"github.com/haguru/llmvault/pkg/zerolog"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testRoute struct {
	route     *Route
	users     *mocks.MockUserService
	responses *mocks.MockResponseService
	db        *mocks.MockDBClient
	engine    *gin.Engine
}

func newTestRoute(t *testing.T) *testRoute {
	t.Helper()
	m := metrics.NewMetrics("routes-test")
	RegisterMetrics(m)

	tr := &testRoute{
		users:     mocks.NewMockUserService(t),
		responses: mocks.NewMockResponseService(t),
		db:        mocks.NewMockDBClient(t),
	}
	tr.route = NewRoute(m, tr.users, tr.responses, tr.db, zerolog.NewLoggerWithWriter("test", io.Discard), "llmvault")

	tr.engine = gin.New()
	tr.engine.POST(UsersRouteAPI, tr.route.UpsertUser)
	tr.engine.POST(ResponsesRouteAPI, tr.route.UpsertResponse)
	tr.engine.GET(HistoryRouteAPI, tr.route.History)
	tr.engine.GET(HealthRouteAPI, tr.route.Health)
	return tr
}

func (tr *testRoute) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	tr.engine.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body["error"]
}

func TestRoute_UpsertUser(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		wantInput      *models.UserInput
		serviceErr     error
		wantStatusCode int
		wantError      string
	}{
		{
			name:           "Valid upsert",
			body:           `{"id":"user_1","email":"a@example.com","firstName":"Ada"}`,
			wantInput:      &models.UserInput{ClerkID: "user_1", Email: "a@example.com", FirstName: "Ada"},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "Missing id",
			body:           `{"email":"a@example.com"}`,
			wantStatusCode: http.StatusBadRequest,
			wantError:      "clerkId is required",
		},
		{
			name:           "Empty body",
			body:           "",
			wantStatusCode: http.StatusBadRequest,
			wantError:      "clerkId is required",
		},
		{
			name:           "Invalid JSON body",
			body:           `{"id":"user_1""email":"x"}`,
			wantStatusCode: http.StatusBadRequest,
			wantError:      ErrInvalidRequestBody,
		},
		{
			name:           "Non string id",
			body:           `{"id":42}`,
			wantStatusCode: http.StatusBadRequest,
			wantError:      ErrInvalidRequestBody,
		},
		{
			name:           "Storage failure",
			body:           `{"id":"user_1"}`,
			wantInput:      &models.UserInput{ClerkID: "user_1"},
			serviceErr:     apperrors.Storage("failed to upsert user", errors.New("server selection timeout")),
			wantStatusCode: http.StatusInternalServerError,
			wantError:      "failed to upsert user: server selection timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestRoute(t)
			if tt.wantInput != nil {
				var ret *models.User
				if tt.serviceErr == nil {
					ret = &models.User{ID: "id-1", ClerkID: tt.wantInput.ClerkID, Email: models.Nullable(tt.wantInput.Email)}
				}
				tr.users.On("UpsertUser", mock.Anything, *tt.wantInput).Return(ret, tt.serviceErr).Once()
			}

			rr := tr.do(http.MethodPost, UsersRouteAPI, tt.body)
			assert.Equal(t, tt.wantStatusCode, rr.Code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decodeError(t, rr))
				return
			}

			var got map[string]interface{}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			assert.Equal(t, "id-1", got["_id"])
			assert.Equal(t, "user_1", got["clerkId"])
			assert.Equal(t, "a@example.com", got["email"])
			assert.Contains(t, got, "lastName")
			assert.Nil(t, got["lastName"])
		})
	}
}

func TestRoute_UpsertResponse(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		wantInput      *models.ResponseInput
		serviceErr     error
		wantStatusCode int
		wantError      string
	}{
		{
			name: "Valid upsert",
			body: `{"id":"r1","clerkId":"user_1","request":"hi","response":{"ok":true}}`,
			wantInput: &models.ResponseInput{
				ResponseID: "r1", ClerkID: "user_1", Request: models.Nullable("hi"), Payload: json.RawMessage(`{"ok":true}`),
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "Empty request kept as sent",
			body: `{"id":"r1","clerkId":"user_1","request":"","response":{"ok":true}}`,
			wantInput: &models.ResponseInput{
				ResponseID: "r1", ClerkID: "user_1", Request: new(string), Payload: json.RawMessage(`{"ok":true}`),
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "Missing responseId reported first",
			body:           `{"response":"x"}`,
			wantStatusCode: http.StatusBadRequest,
			wantError:      "responseId is required",
		},
		{
			name:           "Missing clerkId",
			body:           `{"id":"r1","response":"x"}`,
			wantStatusCode: http.StatusBadRequest,
			wantError:      "clerkId is required",
		},
		{
			name:           "Unknown user",
			body:           `{"id":"r1","clerkId":"missing","response":"x"}`,
			wantInput:      &models.ResponseInput{ResponseID: "r1", ClerkID: "missing", Payload: json.RawMessage(`"x"`)},
			serviceErr:     apperrors.Referential("User not found in database"),
			wantStatusCode: http.StatusBadRequest,
			wantError:      "User not found in database",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestRoute(t)
			if tt.wantInput != nil {
				var ret *models.Response
				if tt.serviceErr == nil {
					ret = &models.Response{ID: "doc-1", ResponseID: tt.wantInput.ResponseID, UserID: "id-1", Payload: `{"ok":true}`}
				}
				tr.responses.On("UpsertResponse", mock.Anything, *tt.wantInput).Return(ret, tt.serviceErr).Once()
			}

			rr := tr.do(http.MethodPost, ResponsesRouteAPI, tt.body)
			assert.Equal(t, tt.wantStatusCode, rr.Code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decodeError(t, rr))
				return
			}

			var got map[string]interface{}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			assert.Equal(t, "r1", got["responseId"])
			assert.Equal(t, "id-1", got["user"])
			assert.Equal(t, `{"ok":true}`, got["response"])
		})
	}
}

func TestRoute_History(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tr := newTestRoute(t)
	tr.responses.On("History", mock.Anything, "user_1").Return([]models.Response{
		{ResponseID: "b", CreatedAt: t0.Add(time.Second)},
		{ResponseID: "a", CreatedAt: t0},
	}, nil).Once()
	tr.responses.On("History", mock.Anything, "quiet").Return([]models.Response{}, nil).Once()
	tr.responses.On("History", mock.Anything, "ghost").Return(nil, apperrors.Referential("User not found")).Once()

	rr := tr.do(http.MethodGet, "/api/llm/history/user_1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var got []models.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ResponseID)

	rr = tr.do(http.MethodGet, "/api/llm/history/quiet", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	rr = tr.do(http.MethodGet, "/api/llm/history/ghost", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "User not found", decodeError(t, rr))
}

func TestRoute_Health(t *testing.T) {
	tr := newTestRoute(t)
	tr.db.On("Ping", mock.Anything).Return(nil).Once()
	tr.db.On("Ping", mock.Anything).Return(errors.New("no reachable servers")).Once()

	rr := tr.do(http.MethodGet, HealthRouteAPI, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","service":"llmvault"}`, rr.Body.String())

	rr = tr.do(http.MethodGet, HealthRouteAPI, "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"status":"unavailable","service":"llmvault"}`, rr.Body.String())
}
