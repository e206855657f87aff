package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gestistock/gestistock/internal/apperr"
	"github.com/gestistock/gestistock/internal/models"
	"github.com/gestistock/gestistock/internal/pagination"
	"gorm.io/gorm"
)

type ligneRequest struct {
	CommandeID uint    `json:"commande_id"`
	ProduitID  uint    `json:"produit_id"`
	Quantite   int     `json:"quantite"`
	Prix       float64 `json:"prix"`
}

func (rt *Router) listLignes(w http.ResponseWriter, req *http.Request) {
	query := rt.db.Model(&models.LigneDeCommande{}).Preload("Produit").Order("id DESC")
	if commande := req.URL.Query().Get("commande_id"); commande != "" {
		query = query.Where("commande_id = ?", commande)
	}
	var lignes []models.LigneDeCommande
	page, err := pagination.Paginate(query, pagination.PageParam(req), &lignes)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// createLigne appends a line to a pending order
func (rt *Router) createLigne(w http.ResponseWriter, req *http.Request) {
	var in ligneRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	verr := apperr.NewValidation()
	if in.Quantite <= 0 {
		verr.Add("quantite", "La quantité doit être supérieure à zéro.")
	}
	if in.Prix < 0 {
		verr.Add("prix", "Le prix doit être positif.")
	}
	var commande models.Commande
	if err := rt.db.First(&commande, in.CommandeID).Error; err != nil {
		verr.Add("commande_id", "La commande est invalide.")
	} else if commande.Statut != models.CommandeEnAttente {
		respondError(w, http.StatusConflict, "Seules les commandes en attente peuvent être modifiées.")
		return
	}
	var count int64
	rt.db.Model(&models.Produit{}).Where("id = ?", in.ProduitID).Count(&count)
	if count == 0 {
		verr.Add("produit_id", "Le produit est invalide.")
	}
	if !verr.Empty() {
		respondServiceError(w, verr)
		return
	}

	ligne := models.LigneDeCommande{
		CommandeID: in.CommandeID,
		ProduitID:  in.ProduitID,
		Quantite:   in.Quantite,
		Prix:       in.Prix,
	}
	if err := rt.db.Create(&ligne).Error; err != nil {
		respondServiceError(w, err)
		return
	}
	rt.db.Preload("Produit").First(&ligne, ligne.ID)
	respondJSON(w, http.StatusCreated, ligne)
}

func (rt *Router) getLigne(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	var ligne models.LigneDeCommande
	err = rt.db.Preload("Produit").Preload("Commande").First(&ligne, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Ligne de commande introuvable")
			return
		}
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ligne)
}

func (rt *Router) updateLigne(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	var ligne models.LigneDeCommande
	if err := rt.db.Preload("Commande").First(&ligne, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Ligne de commande introuvable")
			return
		}
		respondServiceError(w, err)
		return
	}
	if ligne.Commande != nil && ligne.Commande.Statut != models.CommandeEnAttente {
		respondError(w, http.StatusConflict, "Seules les commandes en attente peuvent être modifiées.")
		return
	}
	var in ligneRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	if in.Quantite > 0 {
		ligne.Quantite = in.Quantite
	}
	if in.Prix > 0 {
		ligne.Prix = in.Prix
	}
	if err := rt.db.Save(&ligne).Error; err != nil {
		respondServiceError(w, err)
		return
	}
	rt.db.Preload("Produit").First(&ligne, ligne.ID)
	respondJSON(w, http.StatusOK, ligne)
}

func (rt *Router) deleteLigne(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	var ligne models.LigneDeCommande
	if err := rt.db.Preload("Commande").First(&ligne, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Ligne de commande introuvable")
			return
		}
		respondServiceError(w, err)
		return
	}
	if ligne.Commande != nil && ligne.Commande.Statut != models.CommandeEnAttente {
		respondError(w, http.StatusConflict, "Seules les commandes en attente peuvent être modifiées.")
		return
	}
	if err := rt.db.Delete(&ligne).Error; err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Ligne de commande supprimée",
	})
}
