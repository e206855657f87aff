package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gestistock/gestistock/internal/apperr"
	"github.com/gestistock/gestistock/internal/middleware"
	"github.com/gestistock/gestistock/internal/models"
	"github.com/gestistock/gestistock/internal/pagination"
	"github.com/gestistock/gestistock/internal/utils"
	"gorm.io/gorm"
)

// formFile returns the named multipart file header, or nil if absent
func formFile(req *http.Request, field string) *multipart.FileHeader {
	if req.MultipartForm == nil {
		return nil
	}
	files := req.MultipartForm.File[field]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}

// applyUserForm copies the present form values onto the user. Empty fields
// are left untouched so partial updates work.
func applyUserForm(req *http.Request, user *models.User) {
	if v := req.FormValue("prenom"); v != "" {
		user.Prenom = v
	}
	if v := req.FormValue("nom"); v != "" {
		user.Nom = v
	}
	if v := req.FormValue("telephone"); v != "" {
		user.Telephone = v
	}
	if v := req.FormValue("adresse"); v != "" {
		user.Adresse = v
	}
	if v := req.FormValue("email"); v != "" {
		user.Email = strings.ToLower(strings.TrimSpace(v))
	}
}

// syncFournisseurRow keeps the denormalized supplier row in step with its
// user after a profile change
func syncFournisseurRow(tx *gorm.DB, user *models.User) error {
	if user.Role != models.RoleFournisseur {
		return nil
	}
	return tx.Model(&models.Fournisseur{}).Where("user_id = ?", user.ID).
		Updates(map[string]interface{}{
			"prenom":    user.Prenom,
			"nom":       user.Nom,
			"email":     user.Email,
			"telephone": user.Telephone,
			"adresse":   user.Adresse,
		}).Error
}

// listUsers returns a page of users, optionally filtered by role or search
func (rt *Router) listUsers(w http.ResponseWriter, req *http.Request) {
	query := rt.db.Model(&models.User{}).Preload("Fournisseur").Order("id DESC")
	if role := req.URL.Query().Get("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if search := req.URL.Query().Get("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("nom LIKE ? OR prenom LIKE ? OR email LIKE ?", like, like, like)
	}

	var users []models.User
	page, err := pagination.Paginate(query, pagination.PageParam(req), &users)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	page.Data = userViews(users)
	respondJSON(w, http.StatusOK, page)
}

// createUser creates a user directly, bypassing the request workflow. A
// supplier role also gets its fournisseur row.
func (rt *Router) createUser(w http.ResponseWriter, req *http.Request) {
	if err := req.ParseMultipartForm(utils.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	user := models.User{
		Prenom:    req.FormValue("prenom"),
		Nom:       req.FormValue("nom"),
		Telephone: req.FormValue("telephone"),
		Adresse:   req.FormValue("adresse"),
		Email:     strings.ToLower(strings.TrimSpace(req.FormValue("email"))),
		Role:      req.FormValue("role"),
	}
	password := req.FormValue("password")

	verr := apperr.NewValidation()
	if user.Prenom == "" {
		verr.Add("prenom", "Le prénom est obligatoire.")
	}
	if user.Nom == "" {
		verr.Add("nom", "Le nom est obligatoire.")
	}
	if user.Email == "" {
		verr.Add("email", "L'adresse email est obligatoire.")
	}
	if len(password) < 8 {
		verr.Add("password", "Le mot de passe doit contenir au moins 8 caractères.")
	}
	switch user.Role {
	case models.RoleAdmin, models.RoleGestionnaire, models.RoleFournisseur:
	default:
		verr.Add("role", "Le rôle est invalide.")
	}
	var count int64
	rt.db.Model(&models.User{}).Where("email = ?", user.Email).Count(&count)
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
	user.Password = hash

	if fh := formFile(req, "photo"); fh != nil {
		path, err := utils.SaveUpload(fh, rt.cfg.UploadDir, "users")
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		user.Photo = path
	}

	err = rt.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		if user.Role == models.RoleFournisseur {
			fournisseur := models.Fournisseur{
				UserID:    user.ID,
				Prenom:    user.Prenom,
				Nom:       user.Nom,
				Email:     user.Email,
				Telephone: user.Telephone,
				Adresse:   user.Adresse,
				Image:     user.Photo,
			}
			if err := tx.Create(&fournisseur).Error; err != nil {
				return err
			}
			user.Fournisseur = &fournisseur
		}
		return nil
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, userView(user))
}

// getUser returns one user
func (rt *Router) getUser(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	var user models.User
	if err := rt.db.Preload("Fournisseur").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Utilisateur introuvable")
			return
		}
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, userView(user))
}

// updateUser updates a user and its linked supplier row
func (rt *Router) updateUser(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	var user models.User
	if err := rt.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Utilisateur introuvable")
			return
		}
		respondServiceError(w, err)
		return
	}
	if err := req.ParseMultipartForm(utils.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	applyUserForm(req, &user)
	if password := req.FormValue("password"); password != "" {
		if len(password) < 8 {
			respondServiceError(w, apperr.NewValidation().Add("password", "Le mot de passe doit contenir au moins 8 caractères."))
			return
		}
		hash, err := utils.HashPassword(password)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		user.Password = hash
	}
	if fh := formFile(req, "photo"); fh != nil {
		path, err := utils.SaveUpload(fh, rt.cfg.UploadDir, "users")
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		utils.RemoveUpload(user.Photo, rt.cfg.UploadDir)
		user.Photo = path
	}

	err = rt.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		return syncFournisseurRow(tx, &user)
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, userView(user))
}

// deleteUser removes a user. A supplier user loses its fournisseur row too.
func (rt *Router) deleteUser(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	if claims, ok := middleware.UserFromContext(req.Context()); ok && claims.UserID == id {
		respondError(w, http.StatusForbidden, "Vous ne pouvez pas supprimer votre propre compte.")
		return
	}
	var user models.User
	if err := rt.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Utilisateur introuvable")
			return
		}
		respondServiceError(w, err)
		return
	}
	err = rt.db.Transaction(func(tx *gorm.DB) error {
		if user.Role == models.RoleFournisseur {
			if err := tx.Where("user_id = ?", user.ID).Delete(&models.Fournisseur{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RemoveUpload(user.Photo, rt.cfg.UploadDir)
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Utilisateur supprimé",
	})
}
