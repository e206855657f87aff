package orders

import (
	"errors"
	"fmt"
	"time"

	"github.com/gestistock/gestistock/internal/apperr"
	"github.com/gestistock/gestistock/internal/models"
	"gorm.io/gorm"
)

// LivraisonUpdateInput holds the mutable delivery fields. A nil field
// means "leave unchanged".
type LivraisonUpdateInput struct {
	CommandeID *uint
	Date       *time.Time
	Statut     *models.LivraisonStatut
}

// GetLivraison loads a delivery with the relations the frontends render
func (s *Service) GetLivraison(id uint) (*models.Livraison, error) {
	var livraison models.Livraison
	err := s.db.
		Preload("Commande.Utilisateur").
		Preload("Commande.LignesDeCommande.Produit").
		First(&livraison, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Livraison non trouvée")
	}
	if err != nil {
		return nil, err
	}
	return &livraison, nil
}

// UpdateLivraison applies a partial delivery update. A supplier may only
// touch deliveries of its own orders. Entering "livree" cascades the parent
// order to "livree" and notifies the ordering user; entering "annulee"
// notifies without reversing the stock incremented at acceptance.
func (s *Service) UpdateLivraison(user *models.User, id uint, in LivraisonUpdateInput) (*models.Livraison, error) {
	var livraison models.Livraison
	err := s.db.Preload("Commande").First(&livraison, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Livraison non trouvée")
	}
	if err != nil {
		return nil, err
	}

	if user.Role == models.RoleFournisseur {
		if user.Fournisseur == nil || livraison.Commande == nil ||
			livraison.Commande.FournisseurID != user.Fournisseur.ID {
			return nil, apperr.Forbidden("Non autorisé")
		}
	}

	if in.Statut != nil && !in.Statut.Valid() {
		return nil, apperr.NewValidation().Add("statut", "Statut invalide")
	}
	if in.CommandeID != nil {
		var count int64
		s.db.Model(&models.Commande{}).Where("id = ?", *in.CommandeID).Count(&count)
		if count == 0 {
			return nil, apperr.NewValidation().Add("commande_id", "Commande inexistante")
		}
	}

	ancienStatut := livraison.Statut

	var pushed *models.Notification
	err = s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{}
		if in.CommandeID != nil {
			updates["commande_id"] = *in.CommandeID
		}
		if in.Date != nil {
			updates["date"] = *in.Date
		}
		if in.Statut != nil {
			updates["statut"] = *in.Statut
		}
		if len(updates) > 0 {
			if err := tx.Model(&livraison).Updates(updates).Error; err != nil {
				return err
			}
		}

		if in.Statut == nil || livraison.Commande == nil {
			return nil
		}

		switch {
		case *in.Statut == models.LivraisonLivree && ancienStatut != models.LivraisonLivree:
			if err := tx.Model(&models.Commande{}).
				Where("id = ?", livraison.CommandeID).
				Update("statut", models.CommandeLivree).Error; err != nil {
				return err
			}
			notif, err := s.notifier.Create(tx, livraison.Commande.UserID,
				models.NotifLivraisonTerminee,
				"Livraison terminée",
				fmt.Sprintf("La livraison de la commande #%d a été marquée comme livrée", livraison.CommandeID))
			if err != nil {
				return err
			}
			pushed = notif

		case *in.Statut == models.LivraisonAnnulee && ancienStatut != models.LivraisonAnnulee:
			notif, err := s.notifier.Create(tx, livraison.Commande.UserID,
				models.NotifLivraisonAnnulee,
				"Livraison annulée",
				fmt.Sprintf("La livraison de la commande #%d a été annulée par le fournisseur", livraison.CommandeID))
			if err != nil {
				return err
			}
			pushed = notif
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Push(pushed)

	return s.GetLivraison(id)
}
