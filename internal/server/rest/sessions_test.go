package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Akshaj-Bisht/droply/internal/server/models"
	"github.com/Akshaj-Bisht/droply/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "feedfacefeedfacefeedfacefeedface"

func TestCreateSession_Created(t *testing.T) {
	router, deps := newTestRouter()
	deps.sessions.token = testToken

	body := `{"files":[{"name":"a.txt","size":5,"storageKey":"k1","path":"a.txt"}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, testToken, response["token"])

	require.Len(t, deps.sessions.gotInputs, 1)
	assert.Equal(t, "a.txt", deps.sessions.gotInputs[0].Name)
}

func TestCreateSession_ValidationError(t *testing.T) {
	router, deps := newTestRouter()
	deps.sessions.createErr = fmt.Errorf("%w: total file size cannot exceed the limit", shared.ErrorValidation)

	body := `{"files":[{"name":"a.txt","size":5,"storageKey":"k1","path":"a.txt"}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "total file size")
}

func TestCreateSession_MalformedBody(t *testing.T) {
	router, _ := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSession_OK(t *testing.T) {
	router, deps := newTestRouter()
	deps.sessions.session = &models.Session{
		ID:        "s1",
		Token:     testToken,
		ExpiresAt: time.Now().UTC().Add(time.Hour),
		Files: []*models.File{
			{ID: "f1", SessionID: "s1", Name: "a.txt", Size: 5, Path: "a.txt", StorageKey: "k1"},
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+testToken, nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response models.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, testToken, response.Token)
	require.Len(t, response.Files, 1)
	assert.Equal(t, "a.txt", response.Files[0].Name)
}

func TestGetSession_StatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		getErr   error
		wantCode int
	}{
		{"unknown token", testToken, shared.ErrorNotFound, http.StatusNotFound},
		{"expired session", testToken, shared.ErrorSessionExpired, http.StatusGone},
		{"malformed token", "UPPERCASE-and-short", nil, http.StatusBadRequest},
		{"truncated token", testToken[:31], nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, deps := newTestRouter()
			deps.sessions.getErr = tt.getErr

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+tt.token, nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}
