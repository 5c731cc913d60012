package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"catalog-admin/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type verifierFunc func(username, password string) (string, error)

func (f verifierFunc) Verify(username, password string) (string, error) {
	return f(username, password)
}

func newAttempts() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "t_login_attempts", Help: "t"}, []string{"result"})
}

func setupAuthRouter(v Verifier, attempts *prometheus.CounterVec) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/login", NewAuthHandler(v, attempts).Login)
	return r
}

func TestAuthHandler_Login(t *testing.T) {
	creds := auth.NewStatic("rayyan", "rayyan123", "admin-token")

	tests := []struct {
		name        string
		verifier    Verifier
		body        string
		wantStatus  int
		wantToken   string
		wantMessage string
		wantResult  string
	}{
		{
			name:       "exact credentials",
			verifier:   creds,
			body:       `{"username":"rayyan","password":"rayyan123"}`,
			wantStatus: http.StatusOK,
			wantToken:  "admin-token",
			wantResult: resultSuccess,
		},
		{
			name:        "wrong password",
			verifier:    creds,
			body:        `{"username":"rayyan","password":"wrong"}`,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: msgInvalidCredentials,
			wantResult:  resultFailure,
		},
		{
			name:        "case variation",
			verifier:    creds,
			body:        `{"username":"RAYYAN","password":"rayyan123"}`,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: msgInvalidCredentials,
			wantResult:  resultFailure,
		},
		{
			name:        "empty strings",
			verifier:    creds,
			body:        `{"username":"","password":""}`,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: msgInvalidCredentials,
			wantResult:  resultFailure,
		},
		{
			name:        "missing fields",
			verifier:    creds,
			body:        `{}`,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: msgInvalidCredentials,
			wantResult:  resultFailure,
		},
		{
			name:        "empty body",
			verifier:    creds,
			body:        ``,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: msgInvalidCredentials,
			wantResult:  resultFailure,
		},
		{
			name:        "non-string credentials",
			verifier:    creds,
			body:        `{"username":1,"password":2}`,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: msgInvalidCredentials,
			wantResult:  resultFailure,
		},
		{
			name:        "array credentials",
			verifier:    creds,
			body:        `{"username":["rayyan"],"password":"rayyan123"}`,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: msgInvalidCredentials,
			wantResult:  resultFailure,
		},
		{
			name:        "malformed json",
			verifier:    creds,
			body:        `not json`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: msgInvalidBody,
			wantResult:  resultFailure,
		},
		{
			name: "verifier failure",
			verifier: verifierFunc(func(_, _ string) (string, error) {
				return "", errors.New("backend down")
			}),
			body:        `{"username":"rayyan","password":"rayyan123"}`,
			wantStatus:  http.StatusInternalServerError,
			wantMessage: msgLoginFailed,
			wantResult:  resultFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := newAttempts()
			r := setupAuthRouter(tt.verifier, attempts)
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("want status %d, got %d, body: %s", tt.wantStatus, w.Code, w.Body.String())
			}

			if tt.wantToken != "" {
				var resp loginResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("decode response: %v", err)
				}
				if !resp.Success || resp.Token != tt.wantToken {
					t.Fatalf("want {true, %q}, got %+v", tt.wantToken, resp)
				}
			} else {
				resp := decodeStatus(t, w.Body)
				if resp.Success || resp.Message != tt.wantMessage {
					t.Fatalf("want {false, %q}, got %+v", tt.wantMessage, resp)
				}
			}

			if got := testutil.ToFloat64(attempts.WithLabelValues(tt.wantResult)); got != 1 {
				t.Fatalf("want one %s attempt counted, got %v", tt.wantResult, got)
			}
		})
	}
}
