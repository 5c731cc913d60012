package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"catalog-admin/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgInvalidBody        = "Invalid request body"
	msgLoginFailed        = "Login failed"

	resultSuccess = "success"
	resultFailure = "failure"
)

type Verifier interface {
	Verify(username, password string) (string, error)
}

type AuthHandler struct {
	verifier Verifier
	attempts *prometheus.CounterVec
}

// NewAuthHandler expects attempts to have a single "result" label.
func NewAuthHandler(v Verifier, attempts *prometheus.CounterVec) *AuthHandler {
	return &AuthHandler{verifier: v, attempts: attempts}
}

type loginRequest struct {
	Username string `json:"username" example:"rayyan"`
	Password string `json:"password" example:"rayyan123"`
}

type loginResponse struct {
	Success bool   `json:"success" example:"true"`
	Token   string `json:"token" example:"admin-token"`
}

// Login godoc
// @Summary      Check admin credentials
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  statusResponse
// @Failure      401   {object}  statusResponse
// @Router       /api/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.attempts.WithLabelValues(resultFailure).Inc()
		if isCredentialMismatch(err) {
			fail(c, http.StatusUnauthorized, msgInvalidCredentials)
			return
		}
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}

	token, err := h.verifier.Verify(req.Username, req.Password)
	if err != nil {
		h.attempts.WithLabelValues(resultFailure).Inc()
		if errors.Is(err, auth.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, msgInvalidCredentials)
			return
		}
		fail(c, http.StatusInternalServerError, msgLoginFailed)
		return
	}

	h.attempts.WithLabelValues(resultSuccess).Inc()
	c.JSON(http.StatusOK, loginResponse{Success: true, Token: token})
}

// isCredentialMismatch reports bind errors for well-formed requests that
// simply do not carry a string username and password.
func isCredentialMismatch(err error) bool {
	var typeErr *json.UnmarshalTypeError
	return errors.Is(err, io.EOF) || errors.As(err, &typeErr)
}
