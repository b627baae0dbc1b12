package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"adroute-backend/pkg/utils"
)

type contextKey string

const UserContextKey contextKey = "user"

// UserClaims are the fields we read from tokens issued by the OTP service
type UserClaims struct {
	UserID string `json:"user_id"`
	Phone  string `json:"phone"`
	Role   string `json:"role"`
}

var errMissingClaim = errors.New("token is missing a required claim")

// ParseToken validates an HMAC-signed token and extracts its claims
func ParseToken(tokenString, secret string) (UserClaims, error) {
	if secret == "" {
		return UserClaims{}, fmt.Errorf("JWT secret not configured")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return UserClaims{}, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return UserClaims{}, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return UserClaims{}, fmt.Errorf("unexpected claims type %T", token.Claims)
	}

	userID, _ := claims["user_id"].(string)
	role, _ := claims["role"].(string)
	phone, _ := claims["phone"].(string)
	if userID == "" || role == "" {
		return UserClaims{}, errMissingClaim
	}

	return UserClaims{UserID: userID, Phone: phone, Role: role}, nil
}

// Auth validates the bearer token and adds user claims to context
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logrus.WithField("path", r.URL.Path).Debug("❌ No authorization header")
				utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				logrus.WithField("parts", len(parts)).Debug("❌ Invalid authorization header format")
				utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			userClaims, err := ParseToken(parts[1], secret)
			if err != nil {
				logrus.WithError(err).WithField("path", r.URL.Path).Warn("❌ Rejected token")
				utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			logrus.WithFields(logrus.Fields{
				"user_id": userClaims.UserID,
				"role":    userClaims.Role,
			}).Debug("✅ Authenticated")

			ctx := context.WithValue(r.Context(), UserContextKey, userClaims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole middleware checks if user has one of the given roles (must be used after Auth)
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userClaims, ok := r.Context().Value(UserContextKey).(UserClaims)
			if !ok {
				logrus.Warn("❌ User claims not found in context")
				utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			if !slices.Contains(roles, userClaims.Role) {
				logrus.WithFields(logrus.Fields{
					"required": roles,
					"got":      userClaims.Role,
				}).Warn("❌ Insufficient permissions")
				utils.RespondError(w, http.StatusForbidden, "Forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(r *http.Request) (UserClaims, bool) {
	userClaims, ok := r.Context().Value(UserContextKey).(UserClaims)
	return userClaims, ok
}

// WithUser returns a copy of ctx carrying claims
func WithUser(ctx context.Context, claims UserClaims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}
