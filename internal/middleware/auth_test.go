package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"user_id": "user-1",
		"phone":   "+905550000002",
		"role":    "customer",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
}

func TestParseToken(t *testing.T) {
	claims, err := ParseToken(signToken(t, validClaims(), testSecret), testSecret)
	require.NoError(t, err)
	assert.Equal(t, UserClaims{UserID: "user-1", Phone: "+905550000002", Role: "customer"}, claims)
}

func TestParseToken_Rejects(t *testing.T) {
	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	noRole := validClaims()
	delete(noRole, "role")

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims()).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"wrong secret", signToken(t, validClaims(), "other"), testSecret},
		{"expired", signToken(t, expired, testSecret), testSecret},
		{"missing role", signToken(t, noRole, testSecret), testSecret},
		{"unsigned", noneToken, testSecret},
		{"garbage", "not-a-token", testSecret},
		{"no secret configured", signToken(t, validClaims(), testSecret), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.token, tt.secret)
			assert.Error(t, err)
		})
	}
}

func TestAuth(t *testing.T) {
	var seen UserClaims
	handler := Auth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserFromContext(r)
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + signToken(t, validClaims(), testSecret), http.StatusNoContent},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/routes", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusUnauthorized {
				var body map[string]interface{}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, false, body["success"])
				assert.Equal(t, "Unauthorized", body["error"])
			}
		})
	}

	assert.Equal(t, "user-1", seen.UserID)
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole("employee", "admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		claims *UserClaims
		status int
	}{
		{"admin", &UserClaims{UserID: "a", Role: "admin"}, http.StatusOK},
		{"employee", &UserClaims{UserID: "e", Role: "employee"}, http.StatusOK},
		{"customer", &UserClaims{UserID: "c", Role: "customer"}, http.StatusForbidden},
		{"anonymous", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/schedules/1/sessions", nil)
			if tt.claims != nil {
				req = req.WithContext(WithUser(req.Context(), *tt.claims))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
