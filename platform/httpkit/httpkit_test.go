package httpkit

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"onboarding_backend/platform/apperr"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type staticJWTConfig string

func (s staticJWTConfig) GetJWTAccessSecret() string { return string(s) }

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHandleErrorMapsWrappedKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperr.NotFound("job not found"), http.StatusNotFound},
		{fmt.Errorf("pay: %w", apperr.StateConflict("instance already paid")), http.StatusConflict},
		{apperr.Validation("windowDays must be 7 or 14"), http.StatusBadRequest},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		if !HandleError(c, tc.err) {
			t.Fatalf("expected error to be handled: %v", tc.err)
		}
		if w.Code != tc.status {
			t.Fatalf("expected status %d for %v, got %d", tc.status, tc.err, w.Code)
		}
	}
}

func TestHandleErrorNilIsNoop(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	if HandleError(c, nil) {
		t.Fatalf("expected nil error to be ignored")
	}
}

func TestAuthRequiredAcceptsAccessToken(t *testing.T) {
	secret := staticJWTConfig("s3cret")
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "ops-user",
		"type":  "access",
		"roles": []string{"admin"},
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	router := gin.New()
	router.GET("/whoami", AuthRequired(secret), func(c *gin.Context) {
		id := GetIdentity(c)
		c.JSON(http.StatusOK, gin.H{"subject": id.Subject(), "admin": id.HasRole("admin")})
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAuthRequiredRejectsRefreshToken(t *testing.T) {
	secret := staticJWTConfig("s3cret")
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "ops-user", "type": "refresh"})
	signed, _ := token.SignedString([]byte(secret))

	router := gin.New()
	router.GET("/whoami", AuthRequired(secret), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
