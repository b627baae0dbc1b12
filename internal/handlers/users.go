package handlers

import (
	"encoding/json"
	"net/http"

	"adroute-backend/internal/database"
	"adroute-backend/internal/models"
	"adroute-backend/pkg/utils"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// GetProfile returns the caller's account
func GetProfile(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}

		user, err := database.GetUser(r.Context(), db, claims.UserID)
		if err != nil {
			respondStoreError(w, err, "User")
			return
		}

		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    user.ToUserResponse(),
		})
	}
}

// UpdateProfile edits name, email and company name
func UpdateProfile(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}

		var req models.UpdateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		user, err := database.UpdateUser(r.Context(), db, claims.UserID, req)
		if err != nil {
			respondStoreError(w, err, "User")
			return
		}

		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    user.ToUserResponse(),
		})
	}
}

// DeleteProfile deletes the caller's account and everything it owns
func DeleteProfile(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}

		if err := database.DeleteUser(r.Context(), db, claims.UserID); err != nil {
			respondStoreError(w, err, "User")
			return
		}

		logrus.WithField("user_id", claims.UserID).Info("🗑️  Account deleted")
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Account deleted",
		})
	}
}

// RegisterFCMToken stores a device token for push notifications
func RegisterFCMToken(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}

		var req models.RegisterFCMTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.Token == "" {
			utils.RespondError(w, http.StatusBadRequest, "token is required")
			return
		}
		if req.DeviceType != "ios" && req.DeviceType != "android" {
			utils.RespondError(w, http.StatusBadRequest, "device_type must be 'ios' or 'android'")
			return
		}

		if err := database.UpsertFCMToken(r.Context(), db, claims.UserID, req.Token, req.DeviceType); err != nil {
			logrus.WithError(err).Error("❌ Failed to save FCM token")
			utils.RespondError(w, http.StatusInternalServerError, "Failed to save token")
			return
		}

		logrus.WithFields(logrus.Fields{
			"user_id":     claims.UserID,
			"device_type": req.DeviceType,
		}).Info("📱 FCM token registered")

		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Token registered",
		})
	}
}
