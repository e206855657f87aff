package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gestistock/gestistock/internal/apperr"
	"github.com/gestistock/gestistock/internal/models"
	"github.com/gestistock/gestistock/internal/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// login authenticates a user and returns a token pair
func (rt *Router) login(w http.ResponseWriter, req *http.Request) {
	var in loginRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	var user models.User
	err := rt.db.Preload("Fournisseur").Where("email = ?", in.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// The account may still be a pending or refused request
		var demande models.DemandeCreationCompte
		if rt.db.Where("email = ?", in.Email).First(&demande).Error == nil {
			switch demande.Statut {
			case models.DemandeEnAttente:
				respondError(w, http.StatusForbidden, "Votre compte n'a pas encore été validé par l'administrateur.")
			case models.DemandeRefusee:
				respondError(w, http.StatusForbidden, "Votre demande de compte a été refusée.")
			default:
				respondError(w, http.StatusUnauthorized, "Identifiants incorrects")
			}
			return
		}
		respondError(w, http.StatusUnauthorized, "Identifiants incorrects")
		return
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if !utils.CheckPasswordHash(in.Password, user.Password) {
		respondError(w, http.StatusUnauthorized, "Identifiants incorrects")
		return
	}

	access, refresh, err := utils.GenerateTokens(&user, rt.cfg)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"access_token":  access,
		"refresh_token": refresh,
		"token_type":    "Bearer",
		"user":          userView(user),
	})
}

// register files an account creation request. The account only becomes a
// real user once an administrator approves the request.
func (rt *Router) register(w http.ResponseWriter, req *http.Request) {
	if err := req.ParseMultipartForm(utils.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	demande := models.DemandeCreationCompte{
		Prenom:      req.FormValue("prenom"),
		Nom:         req.FormValue("nom"),
		Telephone:   req.FormValue("telephone"),
		Adresse:     req.FormValue("adresse"),
		RoleDemande: req.FormValue("role_demande"),
		Email:       strings.ToLower(strings.TrimSpace(req.FormValue("email"))),
		Statut:      models.DemandeEnAttente,
	}
	password := req.FormValue("password")

	verr := validateDemande(&demande, password)
	var count int64
	rt.db.Model(&models.User{}).Where("email = ?", demande.Email).Count(&count)
	if count == 0 {
		rt.db.Model(&models.DemandeCreationCompte{}).Where("email = ?", demande.Email).Count(&count)
	}
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
	demande.Password = hash

	if fh := formFile(req, "photo"); fh != nil {
		path, err := utils.SaveUpload(fh, rt.cfg.UploadDir, "demandes")
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		demande.Photo = path
	}

	var notifs []*models.Notification
	err = rt.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&demande).Error; err != nil {
			return err
		}
		created, err := rt.notifier.CreateForRoles(tx,
			[]string{models.RoleAdmin},
			models.NotifDemandeCreation,
			"Nouvelle demande de compte",
			demande.Prenom+" "+demande.Nom+" demande la création d'un compte "+demande.RoleDemande+".")
		if err != nil {
			return err
		}
		notifs = created
		return nil
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	rt.notifier.Push(notifs...)

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Votre demande de création de compte a été enregistrée. Vous recevrez un email après validation.",
		"demande": demande,
	})
}

func validateDemande(d *models.DemandeCreationCompte, password string) *apperr.ValidationError {
	verr := apperr.NewValidation()
	if d.Prenom == "" {
		verr.Add("prenom", "Le prénom est obligatoire.")
	}
	if d.Nom == "" {
		verr.Add("nom", "Le nom est obligatoire.")
	}
	if d.Email == "" {
		verr.Add("email", "L'adresse email est obligatoire.")
	}
	if len(password) < 8 {
		verr.Add("password", "Le mot de passe doit contenir au moins 8 caractères.")
	}
	switch d.RoleDemande {
	case models.RoleGestionnaire, models.RoleFournisseur:
	default:
		verr.Add("role_demande", "Le rôle demandé est invalide.")
	}
	return verr
}

// me returns the logged-in user's profile
func (rt *Router) me(w http.ResponseWriter, req *http.Request) {
	user, err := rt.currentUser(req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, userView(*user))
}

// updateProfile lets any logged-in user update their own profile
func (rt *Router) updateProfile(w http.ResponseWriter, req *http.Request) {
	user, err := rt.currentUser(req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if err := req.ParseMultipartForm(utils.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	applyUserForm(req, user)
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
		if err := tx.Save(user).Error; err != nil {
			return err
		}
		return syncFournisseurRow(tx, user)
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, userView(*user))
}

// logout is stateless on the server side, the client drops its tokens
func (rt *Router) logout(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Déconnexion réussie",
	})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// forgotPassword issues a reset token and emails the reset link. The
// response is identical whether the account exists or not.
func (rt *Router) forgotPassword(w http.ResponseWriter, req *http.Request) {
	var in forgotPasswordRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	var user models.User
	if rt.db.Where("email = ?", in.Email).First(&user).Error == nil {
		token := uuid.NewString()
		rt.db.Where("email = ?", in.Email).Delete(&models.PasswordReset{})
		reset := models.PasswordReset{Email: in.Email, Token: token, CreatedAt: time.Now()}
		if err := rt.db.Create(&reset).Error; err != nil {
			respondServiceError(w, err)
			return
		}
		if err := utils.SendPasswordResetEmail(in.Email, token); err != nil {
			respondServiceError(w, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Si un compte existe pour cette adresse, un email de réinitialisation a été envoyé.",
	})
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// resetPassword consumes a reset token and sets the new password
func (rt *Router) resetPassword(w http.ResponseWriter, req *http.Request) {
	var in resetPasswordRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	if len(in.Password) < 8 {
		respondServiceError(w, apperr.NewValidation().Add("password", "Le mot de passe doit contenir au moins 8 caractères."))
		return
	}

	var reset models.PasswordReset
	if err := rt.db.Where("token = ?", in.Token).First(&reset).Error; err != nil {
		respondError(w, http.StatusUnprocessableEntity, "Ce lien de réinitialisation est invalide.")
		return
	}
	if reset.Expired() {
		rt.db.Delete(&reset)
		respondError(w, http.StatusUnprocessableEntity, "Ce lien de réinitialisation a expiré.")
		return
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	err = rt.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("email = ?", reset.Email).
			Update("password", hash).Error; err != nil {
			return err
		}
		return tx.Delete(&reset).Error
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Votre mot de passe a été réinitialisé.",
	})
}
