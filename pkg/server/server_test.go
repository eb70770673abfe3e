package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/textweave/notifier/pkg/common"
	"github.com/textweave/notifier/pkg/middleware"
	"github.com/textweave/notifier/pkg/notification"
)

type jsonBody map[string]interface{}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := newServer(Config{
		StoreProvider:    common.StoreProviderMemory,
		NotifierProvider: common.NotifierProviderMemory,
	})
	require.NoError(t, err)
	return s
}

func do(s *Server, method string, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	request := httptest.NewRequest(method, path, reader)
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	s.router.ServeHTTP(recorder, request)
	return recorder
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)
	recorder := do(s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestSubscriptionEndpoints(t *testing.T) {
	s := newTestServer(t)

	recorder := do(s, http.MethodPost, "/api/v1/subscriptions", jsonBody{
		"user_id":      "hans",
		"notification": "MergeFailure",
		"scope":        "component",
		"frequency":    "instant",
		"component_id": "sandbox/docs",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)
	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))
	require.NotZero(t, created.ID)

	// Scope and reference must agree.
	recorder = do(s, http.MethodPost, "/api/v1/subscriptions", jsonBody{
		"user_id":      "hans",
		"notification": "MergeFailure",
		"scope":        "component",
		"frequency":    "instant",
	})
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = do(s, http.MethodPost, "/api/v1/subscriptions", jsonBody{
		"user_id":      "hans",
		"notification": "NoSuchType",
		"scope":        "default",
		"frequency":    "daily",
	})
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = do(s, http.MethodGet, "/api/v1/subscriptions?user=hans", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	var listed struct {
		Subscriptions []struct {
			ID int64 `json:"id"`
		} `json:"subscriptions"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &listed))
	require.Len(t, listed.Subscriptions, 1)

	recorder = do(s, http.MethodDelete, "/api/v1/subscriptions/9999", nil)
	require.Equal(t, http.StatusNotFound, recorder.Code)
	recorder = do(s, http.MethodDelete, "/api/v1/subscriptions/1", nil)
	require.Equal(t, http.StatusNoContent, recorder.Code)
}

func TestIngestChangeDispatches(t *testing.T) {
	s := newTestServer(t)

	recorder := do(s, http.MethodPost, "/api/v1/users", jsonBody{
		"id":    "hans",
		"email": "hans@example.com",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)
	recorder = do(s, http.MethodPut, "/api/v1/users/hans/watches/sandbox", nil)
	require.Equal(t, http.StatusNoContent, recorder.Code)

	recorder = do(s, http.MethodPost, "/api/v1/subscriptions", jsonBody{
		"user_id":      "hans",
		"notification": "MergeFailure",
		"scope":        "default",
		"frequency":    "instant",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = do(s, http.MethodPost, "/api/v1/changes", jsonBody{
		"action":       "failed_merge",
		"project_id":   "sandbox",
		"component_id": "sandbox/docs",
	})
	require.Equal(t, http.StatusOK, recorder.Code)
	var response struct {
		ChangeID int64 `json:"change_id"`
		Dispatch struct {
			Submitted int `json:"submitted"`
		} `json:"dispatch"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	require.NotZero(t, response.ChangeID)
	require.Equal(t, 1, response.Dispatch.Submitted)

	messages := s.notifier.(*notification.MemoryNotifier).Messages()
	require.Len(t, messages, 1)
	require.Equal(t, "hans", messages[0].UserID)
	require.Equal(t, "hans@example.com", messages[0].Email)

	recorder = do(s, http.MethodPost, "/api/v1/changes", jsonBody{"project_id": "sandbox"})
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestDigestEndpoint(t *testing.T) {
	s := newTestServer(t)

	recorder := do(s, http.MethodPut, "/api/v1/users/hans/watches/sandbox", nil)
	require.Equal(t, http.StatusNoContent, recorder.Code)
	recorder = do(s, http.MethodPost, "/api/v1/subscriptions", jsonBody{
		"user_id":      "hans",
		"notification": "MergeFailure",
		"scope":        "default",
		"frequency":    "daily",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = do(s, http.MethodPost, "/api/v1/changes", jsonBody{
		"action":       "failed_merge",
		"project_id":   "sandbox",
		"component_id": "sandbox/docs",
	})
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Empty(t, s.notifier.(*notification.MemoryNotifier).Messages())

	recorder = do(s, http.MethodPost, "/api/v1/digests/daily/run", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	var result struct {
		Events    int  `json:"events"`
		Submitted int  `json:"submitted"`
		Advanced  bool `json:"advanced"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &result))
	require.Equal(t, 1, result.Events)
	require.Equal(t, 1, result.Submitted)
	require.True(t, result.Advanced)

	recorder = do(s, http.MethodPost, "/api/v1/digests/instant/run", nil)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	recorder = do(s, http.MethodPost, "/api/v1/digests/hourly/run", nil)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestExplainEndpoint(t *testing.T) {
	s := newTestServer(t)

	recorder := do(s, http.MethodPut, "/api/v1/users/hans/watches/sandbox", nil)
	require.Equal(t, http.StatusNoContent, recorder.Code)
	recorder = do(s, http.MethodPost, "/api/v1/subscriptions", jsonBody{
		"user_id":      "hans",
		"notification": "MergeFailure",
		"scope":        "default",
		"frequency":    "weekly",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = do(s, http.MethodGet, "/api/v1/subscriptions/explain?user=hans&notification=MergeFailure&project=sandbox", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	var response struct {
		Decision struct {
			Subscribed bool   `json:"subscribed"`
			Frequency  int    `json:"frequency"`
			Reason     string `json:"reason"`
		} `json:"decision"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	require.True(t, response.Decision.Subscribed)
	require.NotEmpty(t, response.Decision.Reason)

	recorder = do(s, http.MethodGet, "/api/v1/subscriptions/explain?user=hans", nil)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestUserConflict(t *testing.T) {
	s := newTestServer(t)
	body := jsonBody{"id": "hans", "email": "hans@example.com"}
	require.Equal(t, http.StatusCreated, do(s, http.MethodPost, "/api/v1/users", body).Code)
	require.Equal(t, http.StatusConflict, do(s, http.MethodPost, "/api/v1/users", body).Code)
}

func TestServiceAuthGuardsAPI(t *testing.T) {
	s, err := newServer(Config{
		StoreProvider:    common.StoreProviderMemory,
		NotifierProvider: common.NotifierProviderMemory,
		JWTSecret:        "test-secret",
	})
	require.NoError(t, err)

	recorder := do(s, http.MethodGet, "/api/v1/subscriptions?user=hans", nil)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)

	// Health stays open for probes.
	require.Equal(t, http.StatusOK, do(s, http.MethodGet, "/health", nil).Code)

	token, err := middleware.GenerateServiceToken("test-secret", "translate-web")
	require.NoError(t, err)
	request := httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions?user=hans", nil)
	request.Header.Set("Authorization", "Bearer "+token)
	authed := httptest.NewRecorder()
	s.router.ServeHTTP(authed, request)
	require.Equal(t, http.StatusOK, authed.Code)
}
