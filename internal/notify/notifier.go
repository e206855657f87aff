package notify

import (
	"time"

	"github.com/gestistock/gestistock/internal/models"
	"gorm.io/gorm"
)

// Notifier writes notification rows and pushes them to connected
// recipients. Rows are inserted through the transaction handle of the
// calling workflow so the insert commits or rolls back with it; the
// websocket push happens after commit, from Push.
type Notifier struct {
	hub *Hub
}

// NewNotifier creates a Notifier. hub may be nil (tests, CLI tools); the
// websocket push is then skipped.
func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

// Create inserts one notification row for a user
func (n *Notifier) Create(tx *gorm.DB, userID uint, typ, titre, message string) (*models.Notification, error) {
	notif := &models.Notification{
		UserID:       userID,
		Type:         typ,
		Titre:        titre,
		Message:      message,
		EstLue:       false,
		DateCreation: time.Now(),
	}
	if err := tx.Create(notif).Error; err != nil {
		return nil, err
	}
	return notif, nil
}

// CreateDedup inserts a notification unless an identical unread one already
// exists for the user. The check-then-insert is only guarded by the
// caller's transaction, not by a unique constraint; concurrent triggers can
// still slip through. Best-effort by contract.
func (n *Notifier) CreateDedup(tx *gorm.DB, userID uint, typ, titre, message string) (*models.Notification, error) {
	var count int64
	err := tx.Model(&models.Notification{}).
		Where("user_id = ? AND type = ? AND titre = ? AND message = ? AND est_lue = ?",
			userID, typ, titre, message, false).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, nil
	}
	return n.Create(tx, userID, typ, titre, message)
}

// CreateForRoles fans one notification out to every user holding one of the
// given roles
func (n *Notifier) CreateForRoles(tx *gorm.DB, roles []string, typ, titre, message string) ([]*models.Notification, error) {
	var users []models.User
	if err := tx.Where("role IN ?", roles).Find(&users).Error; err != nil {
		return nil, err
	}

	created := make([]*models.Notification, 0, len(users))
	for _, u := range users {
		notif, err := n.Create(tx, u.ID, typ, titre, message)
		if err != nil {
			return nil, err
		}
		created = append(created, notif)
	}
	return created, nil
}

// Push sends committed notifications to their recipients' live connections
func (n *Notifier) Push(notifs ...*models.Notification) {
	if n.hub == nil {
		return
	}
	for _, notif := range notifs {
		if notif == nil {
			continue
		}
		n.hub.SendToUser(notif.UserID, map[string]interface{}{
			"type":         "notification",
			"notification": notif,
		})
	}
}
