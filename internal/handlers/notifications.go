package handlers

import (
	"errors"
	"net/http"

	"github.com/gestistock/gestistock/internal/middleware"
	"github.com/gestistock/gestistock/internal/models"
	"github.com/gestistock/gestistock/internal/pagination"
	"gorm.io/gorm"
)

// listNotifications returns the logged-in user's notifications, newest
// first, unread gated by ?unread=1
func (rt *Router) listNotifications(w http.ResponseWriter, req *http.Request) {
	claims, _ := middleware.UserFromContext(req.Context())
	query := rt.db.Model(&models.Notification{}).
		Where("user_id = ?", claims.UserID).Order("date_creation DESC")
	if req.URL.Query().Get("unread") == "1" {
		query = query.Where("est_lue = ?", false)
	}
	if typ := req.URL.Query().Get("type"); typ != "" {
		query = query.Where("type = ?", typ)
	}
	var notifications []models.Notification
	page, err := pagination.Paginate(query, pagination.PageParam(req), &notifications)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// unreadNotifications returns the unread badge count
func (rt *Router) unreadNotifications(w http.ResponseWriter, req *http.Request) {
	claims, _ := middleware.UserFromContext(req.Context())
	query := rt.db.Model(&models.Notification{}).
		Where("user_id = ? AND est_lue = ?", claims.UserID, false)
	if typ := req.URL.Query().Get("type"); typ != "" {
		query = query.Where("type = ?", typ)
	}
	var count int64
	err := query.Count(&count).Error
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{
		"count": count,
	})
}

// markNotificationRead flags one of the user's notifications as read
func (rt *Router) markNotificationRead(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	claims, _ := middleware.UserFromContext(req.Context())
	var notification models.Notification
	err = rt.db.Where("id = ? AND user_id = ?", id, claims.UserID).
		First(&notification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Notification introuvable")
			return
		}
		respondServiceError(w, err)
		return
	}
	if err := rt.db.Model(&notification).Update("est_lue", true).Error; err != nil {
		respondServiceError(w, err)
		return
	}
	notification.EstLue = true
	respondJSON(w, http.StatusOK, notification)
}

// deleteNotification removes one of the user's notifications
func (rt *Router) deleteNotification(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	claims, _ := middleware.UserFromContext(req.Context())
	result := rt.db.Where("id = ? AND user_id = ?", id, claims.UserID).
		Delete(&models.Notification{})
	if result.Error != nil {
		respondServiceError(w, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(w, http.StatusNotFound, "Notification introuvable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Notification supprimée",
	})
}

// streamNotifications upgrades to a websocket and pushes the user's new
// notifications in real time. The frontends pass the token as ?token=
// because browsers cannot set headers on websocket connects.
func (rt *Router) streamNotifications(w http.ResponseWriter, req *http.Request) {
	claims, ok := middleware.UserFromContext(req.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Non authentifié")
		return
	}
	rt.hub.ServeWS(w, req, claims.UserID)
}
