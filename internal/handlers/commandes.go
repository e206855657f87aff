package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gestistock/gestistock/internal/middleware"
	"github.com/gestistock/gestistock/internal/models"
	"github.com/gestistock/gestistock/internal/pagination"
	"github.com/gestistock/gestistock/internal/services/orders"
)

// listCommandes returns a page of orders. Staff sees everything, a supplier
// only ever sees their own despite the shared route.
func (rt *Router) listCommandes(w http.ResponseWriter, req *http.Request) {
	user, err := rt.currentUser(req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	query := rt.db.Model(&models.Commande{}).
		Preload("Utilisateur").Preload("Fournisseur").
		Preload("LignesDeCommande.Produit").Order("id DESC")
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

	var commandes []models.Commande
	page, err := pagination.Paginate(query, pagination.PageParam(req), &commandes)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// mesCommandes lists the orders addressed to the logged-in supplier
func (rt *Router) mesCommandes(w http.ResponseWriter, req *http.Request) {
	_, fournisseur, err := rt.currentFournisseur(req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	query := rt.db.Model(&models.Commande{}).
		Preload("Utilisateur").Preload("LignesDeCommande.Produit").
		Where("fournisseur_id = ?", fournisseur.ID).Order("id DESC")
	if statut := req.URL.Query().Get("statut"); statut != "" {
		query = query.Where("statut = ?", statut)
	}

	var commandes []models.Commande
	page, err := pagination.Paginate(query, pagination.PageParam(req), &commandes)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

type commandeRequest struct {
	Date          string              `json:"date"`
	Total         float64             `json:"total"`
	FournisseurID uint                `json:"fournisseur_id"`
	Lignes        []orders.LigneInput `json:"lignes"`
}

func (rt *Router) createCommande(w http.ResponseWriter, req *http.Request) {
	claims, _ := middleware.UserFromContext(req.Context())
	var in commandeRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	date := time.Now()
	if in.Date != "" {
		if parsed, err := time.Parse("2006-01-02", in.Date); err == nil {
			date = parsed
		}
	}
	commande, err := rt.orders.Create(orders.CreateInput{
		Date:          date,
		Statut:        models.CommandeEnAttente,
		Total:         in.Total,
		UserID:        claims.UserID,
		FournisseurID: in.FournisseurID,
		Lignes:        in.Lignes,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, commande)
}

func (rt *Router) getCommande(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	commande, err := rt.orders.Get(id)
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
		(user.Fournisseur == nil || commande.FournisseurID != user.Fournisseur.ID) {
		respondError(w, http.StatusForbidden, "Non autorisé")
		return
	}
	respondJSON(w, http.StatusOK, commande)
}

// updateCommande edits the header fields of a pending order. Lines are
// managed through their own routes.
func (rt *Router) updateCommande(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	commande, err := rt.orders.Get(id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if commande.Statut != models.CommandeEnAttente {
		respondError(w, http.StatusConflict, "Seules les commandes en attente peuvent être modifiées.")
		return
	}
	var in commandeRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	updates := map[string]interface{}{}
	if in.Date != "" {
		if parsed, err := time.Parse("2006-01-02", in.Date); err == nil {
			updates["date"] = parsed
		}
	}
	if in.Total > 0 {
		updates["total"] = in.Total
	}
	if in.FournisseurID > 0 {
		updates["fournisseur_id"] = in.FournisseurID
	}
	if len(updates) > 0 {
		if err := rt.db.Model(&models.Commande{}).Where("id = ?", id).
			Updates(updates).Error; err != nil {
			respondServiceError(w, err)
			return
		}
	}
	commande, err = rt.orders.Get(id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, commande)
}

type statutRequest struct {
	Statut models.CommandeStatut `json:"statut"`
}

// changerStatutCommande is the supplier accept/reject decision
func (rt *Router) changerStatutCommande(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	_, fournisseur, err := rt.currentFournisseur(req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	var in statutRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	commande, err := rt.orders.ChangeStatus(id, in.Statut, fournisseur)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Statut mis à jour",
		"commande": commande,
	})
}

func (rt *Router) deleteCommande(w http.ResponseWriter, req *http.Request) {
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
	if err := rt.orders.Delete(user, id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Commande supprimée",
	})
}
