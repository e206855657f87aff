package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gestistock/gestistock/internal/models"
	"github.com/gestistock/gestistock/internal/pagination"
	"github.com/gestistock/gestistock/internal/utils"
	"gorm.io/gorm"
)

func (rt *Router) listDemandes(w http.ResponseWriter, req *http.Request) {
	query := rt.db.Model(&models.DemandeCreationCompte{}).Order("id DESC")
	if statut := req.URL.Query().Get("statut"); statut != "" {
		query = query.Where("statut = ?", statut)
	}
	var demandes []models.DemandeCreationCompte
	page, err := pagination.Paginate(query, pagination.PageParam(req), &demandes)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// createDemande files a request on behalf of someone, same flow as the
// public register endpoint
func (rt *Router) createDemande(w http.ResponseWriter, req *http.Request) {
	rt.register(w, req)
}

func (rt *Router) getDemande(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	var demande models.DemandeCreationCompte
	if err := rt.db.First(&demande, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Demande introuvable")
			return
		}
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, demande)
}

type demandeDecision struct {
	Statut models.DemandeStatut `json:"statut"`
}

// updateDemande is the admin decision. Approving materializes the user
// account, and a supplier request also gets its fournisseur row.
func (rt *Router) updateDemande(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	var demande models.DemandeCreationCompte
	if err := rt.db.First(&demande, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Demande introuvable")
			return
		}
		respondServiceError(w, err)
		return
	}
	if demande.Statut != models.DemandeEnAttente {
		respondError(w, http.StatusConflict, "Cette demande a déjà été traitée.")
		return
	}
	var in demandeDecision
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	switch in.Statut {
	case models.DemandeApprouvee:
	case models.DemandeRefusee:
	default:
		respondError(w, http.StatusUnprocessableEntity, "Le statut est invalide.")
		return
	}

	if in.Statut == models.DemandeRefusee {
		if err := rt.db.Model(&demande).Update("statut", models.DemandeRefusee).Error; err != nil {
			respondServiceError(w, err)
			return
		}
		demande.Statut = models.DemandeRefusee
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"message": "Demande refusée",
			"demande": demande,
		})
		return
	}

	// A user with the same email may have been created since the request
	var count int64
	rt.db.Model(&models.User{}).Where("email = ?", demande.Email).Count(&count)
	if count > 0 {
		respondError(w, http.StatusConflict, "Un compte existe déjà pour cette adresse email.")
		return
	}

	var user models.User
	err = rt.db.Transaction(func(tx *gorm.DB) error {
		user = models.User{
			Prenom:    demande.Prenom,
			Nom:       demande.Nom,
			Telephone: demande.Telephone,
			Adresse:   demande.Adresse,
			Email:     demande.Email,
			Password:  demande.Password,
			Role:      demande.RoleDemande,
			Photo:     demande.Photo,
		}
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
		return tx.Model(&demande).Update("statut", models.DemandeApprouvee).Error
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	demande.Statut = models.DemandeApprouvee
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Demande approuvée, le compte a été créé.",
		"demande": demande,
		"user":    userView(user),
	})
}

func (rt *Router) deleteDemande(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	var demande models.DemandeCreationCompte
	if err := rt.db.First(&demande, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Demande introuvable")
			return
		}
		respondServiceError(w, err)
		return
	}
	if err := rt.db.Delete(&demande).Error; err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RemoveUpload(demande.Photo, rt.cfg.UploadDir)
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Demande supprimée",
	})
}
