// Package alerts raises low-stock notifications after product writes.
package alerts

import (
	"fmt"

	"github.com/gestistock/gestistock/internal/models"
	"github.com/gestistock/gestistock/internal/notify"
	"gorm.io/gorm"
)

// Service checks products against their alert threshold
type Service struct {
	db       *gorm.DB
	notifier *notify.Notifier
}

// NewService creates a low-stock alert service
func NewService(db *gorm.DB, notifier *notify.Notifier) *Service {
	return &Service{db: db, notifier: notifier}
}

// CheckProduct fires a stock_bas notification to every admin and
// gestionnaire when the product sits at or below its threshold. Identical
// unread alerts are deduplicated per recipient, so repeated saves of an
// unchanged product stay quiet until someone reads the alert.
func (s *Service) CheckProduct(produit *models.Produit) error {
	if !produit.EnRupture() {
		return nil
	}

	message := fmt.Sprintf("Le produit %s a un stock de %d (seuil %d).",
		produit.Nom, produit.Stock, produit.SeuilAlerte)

	var created []*models.Notification
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var staff []models.User
		if err := tx.Where("role IN ?", []string{models.RoleAdmin, models.RoleGestionnaire}).
			Find(&staff).Error; err != nil {
			return err
		}

		for _, user := range staff {
			notif, err := s.notifier.CreateDedup(tx, user.ID,
				models.NotifStockBas, "Stock bas", message)
			if err != nil {
				return err
			}
			if notif != nil {
				created = append(created, notif)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.notifier.Push(created...)
	return nil
}
