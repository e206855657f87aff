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

type categorieInput struct {
	Nom         string `json:"nom"`
	Description string `json:"description"`
}

func (rt *Router) listCategories(w http.ResponseWriter, req *http.Request) {
	query := rt.db.Model(&models.Categorie{}).Order("nom ASC")
	if search := req.URL.Query().Get("search"); search != "" {
		query = query.Where("nom LIKE ?", "%"+search+"%")
	}
	var categories []models.Categorie
	page, err := pagination.Paginate(query, pagination.PageParam(req), &categories)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (rt *Router) createCategorie(w http.ResponseWriter, req *http.Request) {
	var in categorieInput
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	verr := apperr.NewValidation()
	if in.Nom == "" {
		verr.Add("nom", "Le nom est obligatoire.")
	}
	var count int64
	rt.db.Model(&models.Categorie{}).Where("nom = ?", in.Nom).Count(&count)
	if count > 0 {
		verr.Add("nom", "Cette catégorie existe déjà.")
	}
	if !verr.Empty() {
		respondServiceError(w, verr)
		return
	}

	categorie := models.Categorie{Nom: in.Nom, Description: in.Description}
	if err := rt.db.Create(&categorie).Error; err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, categorie)
}

func (rt *Router) getCategorie(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	var categorie models.Categorie
	if err := rt.db.First(&categorie, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Catégorie introuvable")
			return
		}
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, categorie)
}

func (rt *Router) updateCategorie(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	var categorie models.Categorie
	if err := rt.db.First(&categorie, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Catégorie introuvable")
			return
		}
		respondServiceError(w, err)
		return
	}
	var in categorieInput
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	if in.Nom != "" {
		categorie.Nom = in.Nom
	}
	if in.Description != "" {
		categorie.Description = in.Description
	}
	if err := rt.db.Save(&categorie).Error; err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, categorie)
}

// deleteCategorie refuses to delete a category that still has products
func (rt *Router) deleteCategorie(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	var categorie models.Categorie
	if err := rt.db.First(&categorie, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Catégorie introuvable")
			return
		}
		respondServiceError(w, err)
		return
	}
	var count int64
	rt.db.Model(&models.Produit{}).Where("categorie_id = ?", id).Count(&count)
	if count > 0 {
		respondError(w, http.StatusConflict, "Cette catégorie contient encore des produits.")
		return
	}
	if err := rt.db.Delete(&categorie).Error; err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Catégorie supprimée",
	})
}
