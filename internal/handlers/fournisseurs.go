package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gestistock/gestistock/internal/apperr"
	"github.com/gestistock/gestistock/internal/middleware"
	"github.com/gestistock/gestistock/internal/models"
	"github.com/gestistock/gestistock/internal/pagination"
	"github.com/gestistock/gestistock/internal/utils"
	"gorm.io/gorm"
)

func (rt *Router) listFournisseurs(w http.ResponseWriter, req *http.Request) {
	query := rt.db.Model(&models.Fournisseur{}).Preload("User").Order("nom ASC")
	if search := req.URL.Query().Get("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("nom LIKE ? OR prenom LIKE ? OR email LIKE ?", like, like, like)
	}
	var fournisseurs []models.Fournisseur
	page, err := pagination.Paginate(query, pagination.PageParam(req), &fournisseurs)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	page.Data = fournisseurViews(fournisseurs)
	respondJSON(w, http.StatusOK, page)
}

// createFournisseur creates the supplier account and its user in one step
func (rt *Router) createFournisseur(w http.ResponseWriter, req *http.Request) {
	if err := req.ParseMultipartForm(utils.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.FormValue("email")))
	password := req.FormValue("password")

	verr := apperr.NewValidation()
	if req.FormValue("nom") == "" {
		verr.Add("nom", "Le nom est obligatoire.")
	}
	if email == "" {
		verr.Add("email", "L'adresse email est obligatoire.")
	}
	if len(password) < 8 {
		verr.Add("password", "Le mot de passe doit contenir au moins 8 caractères.")
	}
	var count int64
	rt.db.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		verr.Add("email", "Cette adresse email est déjà utilisée.")
	}
	if !verr.Empty() {
		respondServiceError(w, verr)
		return
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	user := models.User{
		Prenom:    req.FormValue("prenom"),
		Nom:       req.FormValue("nom"),
		Telephone: req.FormValue("telephone"),
		Adresse:   req.FormValue("adresse"),
		Email:     email,
		Password:  hash,
		Role:      models.RoleFournisseur,
	}
	if fh := formFile(req, "image"); fh != nil {
		path, err := utils.SaveUpload(fh, rt.cfg.UploadDir, "fournisseurs")
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		user.Photo = path
	}

	var fournisseur models.Fournisseur
	err = rt.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		fournisseur = models.Fournisseur{
			UserID:    user.ID,
			Prenom:    user.Prenom,
			Nom:       user.Nom,
			Email:     user.Email,
			Telephone: user.Telephone,
			Adresse:   user.Adresse,
			Image:     user.Photo,
		}
		return tx.Create(&fournisseur).Error
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	fournisseur.User = &user
	respondJSON(w, http.StatusCreated, fournisseurView(fournisseur))
}

func (rt *Router) getFournisseur(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	var fournisseur models.Fournisseur
	if err := rt.db.Preload("User").First(&fournisseur, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Fournisseur introuvable")
			return
		}
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, fournisseurView(fournisseur))
}

// updateFournisseur writes through to both the supplier row and its user.
// A supplier may only update their own record.
func (rt *Router) updateFournisseur(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	var fournisseur models.Fournisseur
	if err := rt.db.Preload("User").First(&fournisseur, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Fournisseur introuvable")
			return
		}
		respondServiceError(w, err)
		return
	}
	if claims, ok := middleware.UserFromContext(req.Context()); ok &&
		claims.Role == models.RoleFournisseur && fournisseur.UserID != claims.UserID {
		respondError(w, http.StatusForbidden, "Non autorisé")
		return
	}
	if err := req.ParseMultipartForm(utils.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "Requête invalide")
		return
	}

	if v := req.FormValue("prenom"); v != "" {
		fournisseur.Prenom = v
	}
	if v := req.FormValue("nom"); v != "" {
		fournisseur.Nom = v
	}
	if v := req.FormValue("telephone"); v != "" {
		fournisseur.Telephone = v
	}
	if v := req.FormValue("adresse"); v != "" {
		fournisseur.Adresse = v
	}
	if v := req.FormValue("email"); v != "" {
		fournisseur.Email = strings.ToLower(strings.TrimSpace(v))
	}
	if fh := formFile(req, "image"); fh != nil {
		path, err := utils.SaveUpload(fh, rt.cfg.UploadDir, "fournisseurs")
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		utils.RemoveUpload(fournisseur.Image, rt.cfg.UploadDir)
		fournisseur.Image = path
	}

	err = rt.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&fournisseur).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", fournisseur.UserID).
			Updates(map[string]interface{}{
				"prenom":    fournisseur.Prenom,
				"nom":       fournisseur.Nom,
				"email":     fournisseur.Email,
				"telephone": fournisseur.Telephone,
				"adresse":   fournisseur.Adresse,
			}).Error
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, fournisseurView(fournisseur))
}

// deleteFournisseur removes the supplier and its user account
func (rt *Router) deleteFournisseur(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	var fournisseur models.Fournisseur
	if err := rt.db.First(&fournisseur, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Fournisseur introuvable")
			return
		}
		respondServiceError(w, err)
		return
	}
	var count int64
	rt.db.Model(&models.Commande{}).
		Where("fournisseur_id = ? AND statut IN ?", id,
			[]models.CommandeStatut{models.CommandeEnAttente, models.CommandeEnCours}).
		Count(&count)
	if count > 0 {
		respondError(w, http.StatusConflict, "Ce fournisseur a encore des commandes en cours.")
		return
	}
	err = rt.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&fournisseur).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", fournisseur.UserID).Delete(&models.User{}).Error
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RemoveUpload(fournisseur.Image, rt.cfg.UploadDir)
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Fournisseur supprimé",
	})
}
