// Package orders implements the order/delivery workflow: creation with
// lines, the supplier accept/reject transition with its stock and delivery
// side effects, role-gated deletion and the delivery status cascade. Every
// multi-row mutation runs inside one transaction; notification pushes go
// out after commit.
package orders

import (
	"errors"
	"fmt"
	"time"

	"github.com/gestistock/gestistock/internal/apperr"
	"github.com/gestistock/gestistock/internal/models"
	"github.com/gestistock/gestistock/internal/notify"
	"gorm.io/gorm"
)

// Service executes order and delivery workflows
type Service struct {
	db       *gorm.DB
	notifier *notify.Notifier
}

// NewService creates a new order workflow service
func NewService(db *gorm.DB, notifier *notify.Notifier) *Service {
	return &Service{db: db, notifier: notifier}
}

// LigneInput is one requested order line
type LigneInput struct {
	ProduitID uint    `json:"produit_id"`
	Quantite  int     `json:"quantite"`
	Prix      float64 `json:"prix"`
}

// CreateInput is a new order with its lines
type CreateInput struct {
	Date          time.Time
	Statut        models.CommandeStatut
	Total         float64
	UserID        uint
	FournisseurID uint
	Lignes        []LigneInput
}

// Create persists the order and its lines in one transaction and notifies
// the supplier's user. Stock is neither checked nor changed here; it moves
// only when the supplier accepts.
func (s *Service) Create(in CreateInput) (*models.Commande, error) {
	if verr := s.validateCreate(in); !verr.Empty() {
		return nil, verr
	}

	commande := &models.Commande{
		Date:          in.Date,
		Statut:        in.Statut,
		Total:         in.Total,
		UserID:        in.UserID,
		FournisseurID: in.FournisseurID,
	}

	var pushed *models.Notification
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(commande).Error; err != nil {
			return err
		}

		for _, l := range in.Lignes {
			ligne := models.LigneDeCommande{
				CommandeID: commande.ID,
				ProduitID:  l.ProduitID,
				Quantite:   l.Quantite,
				Prix:       l.Prix,
			}
			if err := tx.Create(&ligne).Error; err != nil {
				return err
			}
		}

		// Notify the supplier's account of the waiting order
		var fournisseur models.Fournisseur
		if err := tx.First(&fournisseur, in.FournisseurID).Error; err != nil {
			return err
		}
		notif, err := s.notifier.Create(tx, fournisseur.UserID,
			models.NotifNouvelleCommande,
			"Nouvelle commande reçue",
			fmt.Sprintf("Vous avez reçu une nouvelle commande #%d d'un montant de %.2f€", commande.ID, in.Total))
		if err != nil {
			return err
		}
		pushed = notif
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Push(pushed)

	return s.Get(commande.ID)
}

func (s *Service) validateCreate(in CreateInput) *apperr.ValidationError {
	verr := apperr.NewValidation()

	if in.Date.IsZero() {
		verr.Add("date", "La date est requise")
	}
	if !in.Statut.Valid() {
		verr.Add("statut", "Statut invalide")
	}
	if in.Total < 0 {
		verr.Add("total", "Le total doit être positif")
	}

	var count int64
	s.db.Model(&models.User{}).Where("id = ?", in.UserID).Count(&count)
	if count == 0 {
		verr.Add("user_id", "Utilisateur inexistant")
	}
	s.db.Model(&models.Fournisseur{}).Where("id = ?", in.FournisseurID).Count(&count)
	if count == 0 {
		verr.Add("fournisseur_id", "Fournisseur inexistant")
	}

	if len(in.Lignes) == 0 {
		verr.Add("lignes", "Au moins une ligne est requise")
	}
	for i, l := range in.Lignes {
		if l.Quantite < 1 {
			verr.Add(fmt.Sprintf("lignes.%d.quantite", i), "La quantité doit être au moins 1")
		}
		if l.Prix < 0 {
			verr.Add(fmt.Sprintf("lignes.%d.prix", i), "Le prix doit être positif")
		}
		s.db.Model(&models.Produit{}).Where("id = ?", l.ProduitID).Count(&count)
		if count == 0 {
			verr.Add(fmt.Sprintf("lignes.%d.produit_id", i), "Produit inexistant")
		}
	}

	return verr
}

// Get loads one order with its relations for API responses
func (s *Service) Get(id uint) (*models.Commande, error) {
	var commande models.Commande
	err := s.db.
		Preload("Utilisateur").
		Preload("Fournisseur").
		Preload("LignesDeCommande.Produit").
		First(&commande, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Commande non trouvée")
	}
	if err != nil {
		return nil, err
	}
	return &commande, nil
}

// ChangeStatus is the supplier accept/reject transition. Accepting
// increments each line's product stock by the ordered quantity, creates the
// pending delivery and notifies the ordering user; rejecting only notifies.
// The stock/delivery/notification triple commits atomically.
func (s *Service) ChangeStatus(orderID uint, target models.CommandeStatut, fournisseur *models.Fournisseur) (*models.Commande, error) {
	if fournisseur == nil {
		return nil, apperr.Forbidden("Non autorisé")
	}
	if target != models.CommandeEnCours && target != models.CommandeAnnulee {
		return nil, apperr.NewValidation().Add("statut", "Statut invalide: en_cours ou annulee attendu")
	}

	var commande models.Commande
	err := s.db.Preload("LignesDeCommande").First(&commande, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Commande non trouvée")
	}
	if err != nil {
		return nil, err
	}
	if commande.FournisseurID != fournisseur.ID {
		return nil, apperr.Forbidden("Accès interdit à cette commande")
	}

	var pushed *models.Notification
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&commande).Update("statut", target).Error; err != nil {
			return err
		}

		switch target {
		case models.CommandeEnCours:
			// Replenishment semantics: accepted quantities enter the stock
			for _, ligne := range commande.LignesDeCommande {
				if err := tx.Model(&models.Produit{}).
					Where("id = ?", ligne.ProduitID).
					Update("stock", gorm.Expr("stock + ?", ligne.Quantite)).Error; err != nil {
					return err
				}
			}

			livraison := models.Livraison{
				CommandeID:    commande.ID,
				FournisseurID: fournisseur.ID,
				Date:          time.Now(),
				Statut:        models.LivraisonEnAttente,
			}
			if err := tx.Create(&livraison).Error; err != nil {
				return err
			}

			notif, err := s.notifier.Create(tx, commande.UserID,
				models.NotifCommandeAcceptee,
				"Commande acceptée",
				fmt.Sprintf("La commande #%d a été acceptée par le fournisseur", commande.ID))
			if err != nil {
				return err
			}
			pushed = notif

		case models.CommandeAnnulee:
			notif, err := s.notifier.Create(tx, commande.UserID,
				models.NotifCommandeRefusee,
				"Commande refusée",
				fmt.Sprintf("La commande #%d a été refusée par le fournisseur", commande.ID))
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

	return s.Get(orderID)
}

// Delete removes an order. Staff may delete any; a supplier only its own
// orders already accepted or rejected. Pending and delivered ones are off
// limits. Stock changes are never compensated on deletion.
func (s *Service) Delete(user *models.User, orderID uint) error {
	var commande models.Commande
	err := s.db.First(&commande, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("Commande non trouvée")
	}
	if err != nil {
		return err
	}

	switch {
	case user.Role == models.RoleFournisseur:
		if user.Fournisseur == nil || commande.FournisseurID != user.Fournisseur.ID {
			return apperr.Forbidden("Accès interdit à cette commande")
		}
		if commande.Statut != models.CommandeEnCours && commande.Statut != models.CommandeAnnulee {
			return apperr.Forbidden("Vous ne pouvez supprimer que les commandes acceptées ou refusées")
		}
	case user.IsStaff():
		// unrestricted
	default:
		return apperr.Forbidden("Non autorisé")
	}

	return s.db.Select("LignesDeCommande").Delete(&commande).Error
}
