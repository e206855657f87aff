package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gestistock/gestistock/internal/apperr"
	"github.com/gestistock/gestistock/internal/models"
	"github.com/gestistock/gestistock/internal/pagination"
	"github.com/gestistock/gestistock/internal/services/orders"
	"gorm.io/gorm"
)

func (rt *Router) listLivraisons(w http.ResponseWriter, req *http.Request) {
	user, err := rt.currentUser(req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	query := rt.db.Model(&models.Livraison{}).
		Preload("Commande.Utilisateur").Preload("Commande.Fournisseur").Order("id DESC")
	if user.Role == models.RoleFournisseur {
		if user.Fournisseur == nil {
			respondError(w, http.StatusForbidden, "Non autorisé")
			return
		}
		query = query.Where("fournisseur_id = ?", user.Fournisseur.ID)
	}
	if statut := req.URL.Query().Get("statut"); statut != "" {
		query = query.Where("statut = ?", statut)
	}

	var livraisons []models.Livraison
	page, err := pagination.Paginate(query, pagination.PageParam(req), &livraisons)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// mesLivraisons lists the deliveries owned by the logged-in supplier
func (rt *Router) mesLivraisons(w http.ResponseWriter, req *http.Request) {
	_, fournisseur, err := rt.currentFournisseur(req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	query := rt.db.Model(&models.Livraison{}).
		Preload("Commande.Utilisateur").Preload("Commande.LignesDeCommande.Produit").
		Where("fournisseur_id = ?", fournisseur.ID).Order("id DESC")
	if statut := req.URL.Query().Get("statut"); statut != "" {
		query = query.Where("statut = ?", statut)
	}

	var livraisons []models.Livraison
	page, err := pagination.Paginate(query, pagination.PageParam(req), &livraisons)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

type livraisonRequest struct {
	CommandeID *uint   `json:"commande_id"`
	Date       *string `json:"date"`
	Statut     *string `json:"statut"`
}

// createLivraison registers a delivery by hand. The usual path creates one
// automatically when a supplier accepts an order.
func (rt *Router) createLivraison(w http.ResponseWriter, req *http.Request) {
	var in livraisonRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	verr := apperr.NewValidation()
	if in.CommandeID == nil {
		verr.Add("commande_id", "La commande est obligatoire.")
		respondServiceError(w, verr)
		return
	}
	var commande models.Commande
	if err := rt.db.First(&commande, *in.CommandeID).Error; err != nil {
		verr.Add("commande_id", "La commande est invalide.")
		respondServiceError(w, verr)
		return
	}

	livraison := models.Livraison{
		CommandeID:    commande.ID,
		FournisseurID: commande.FournisseurID,
		Date:          time.Now(),
		Statut:        models.LivraisonEnAttente,
	}
	if in.Date != nil {
		if parsed, err := time.Parse("2006-01-02", *in.Date); err == nil {
			livraison.Date = parsed
		}
	}
	if in.Statut != nil {
		statut := models.LivraisonStatut(*in.Statut)
		if !statut.Valid() {
			verr.Add("statut", "Le statut est invalide.")
			respondServiceError(w, verr)
			return
		}
		livraison.Statut = statut
	}
	if err := rt.db.Create(&livraison).Error; err != nil {
		respondServiceError(w, err)
		return
	}
	created, err := rt.orders.GetLivraison(livraison.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (rt *Router) getLivraison(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	livraison, err := rt.orders.GetLivraison(id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	user, err := rt.currentUser(req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if user.Role == models.RoleFournisseur &&
		(user.Fournisseur == nil || livraison.FournisseurID != user.Fournisseur.ID) {
		respondError(w, http.StatusForbidden, "Non autorisé")
		return
	}
	respondJSON(w, http.StatusOK, livraison)
}

// updateLivraison runs the delivery workflow. Completing a delivery
// cascades to the order and notifies the order's author.
func (rt *Router) updateLivraison(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	user, err := rt.currentUser(req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	var in livraisonRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	update := orders.LivraisonUpdateInput{CommandeID: in.CommandeID}
	if in.Date != nil {
		if parsed, err := time.Parse("2006-01-02", *in.Date); err == nil {
			update.Date = &parsed
		}
	}
	if in.Statut != nil {
		statut := models.LivraisonStatut(*in.Statut)
		update.Statut = &statut
	}
	livraison, err := rt.orders.UpdateLivraison(user, id, update)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Livraison mise à jour",
		"livraison": livraison,
	})
}

func (rt *Router) deleteLivraison(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	var livraison models.Livraison
	if err := rt.db.First(&livraison, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Livraison introuvable")
			return
		}
		respondServiceError(w, err)
		return
	}
	if err := rt.db.Delete(&livraison).Error; err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Livraison supprimée",
	})
}
