package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gestistock/gestistock/internal/middleware"
	"github.com/gestistock/gestistock/internal/models"
	"github.com/gestistock/gestistock/internal/pagination"
	"github.com/gestistock/gestistock/internal/services/reports"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// statsRapports serves the dashboard aggregates. Staff gets the global
// figures, a supplier gets their own dashboard.
func (rt *Router) statsRapports(w http.ResponseWriter, req *http.Request) {
	user, err := rt.currentUser(req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if user.Role == models.RoleFournisseur {
		if user.Fournisseur == nil {
			respondError(w, http.StatusForbidden, "Non autorisé")
			return
		}
		stats, err := rt.reports.SupplierDashboard(user.Fournisseur.ID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, stats)
		return
	}
	stats, err := rt.reports.GlobalStats()
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// exportRapports renders the global stats as a downloadable PDF
func (rt *Router) exportRapports(w http.ResponseWriter, req *http.Request) {
	stats, err := rt.reports.GlobalStats()
	if err != nil {
		respondServiceError(w, err)
		return
	}
	pdf, err := reports.ExportStatsPDF(stats)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	filename := fmt.Sprintf("rapport-%s.pdf", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

func (rt *Router) listRapports(w http.ResponseWriter, req *http.Request) {
	query := rt.db.Model(&models.Rapport{}).Preload("Utilisateur").Order("id DESC")
	if typ := req.URL.Query().Get("type"); typ != "" {
		query = query.Where("type = ?", typ)
	}
	var rapports []models.Rapport
	page, err := pagination.Paginate(query, pagination.PageParam(req), &rapports)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// mesRapports serves the per-supplier dashboard to a supplier and the
// caller's own saved reports to staff.
func (rt *Router) mesRapports(w http.ResponseWriter, req *http.Request) {
	user, err := rt.currentUser(req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if user.Role == models.RoleFournisseur {
		if user.Fournisseur == nil {
			respondError(w, http.StatusForbidden, "Non autorisé")
			return
		}
		stats, err := rt.reports.SupplierDashboard(user.Fournisseur.ID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, stats)
		return
	}
	query := rt.db.Model(&models.Rapport{}).
		Where("user_id = ?", user.ID).Order("id DESC")
	var rapports []models.Rapport
	page, err := pagination.Paginate(query, pagination.PageParam(req), &rapports)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

type rapportRequest struct {
	Type    string          `json:"type"`
	Donnees json.RawMessage `json:"donnees"`
}

// createRapport snapshots the current stats under a named report. When no
// data is posted the global stats are captured.
func (rt *Router) createRapport(w http.ResponseWriter, req *http.Request) {
	claims, _ := middleware.UserFromContext(req.Context())
	var in rapportRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	if in.Type == "" {
		in.Type = "stats"
	}
	donnees := []byte(in.Donnees)
	if len(donnees) == 0 {
		stats, err := rt.reports.GlobalStats()
		if err != nil {
			respondServiceError(w, err)
			return
		}
		donnees, err = json.Marshal(stats)
		if err != nil {
			respondServiceError(w, err)
			return
		}
	}
	now := time.Now()
	rapport := models.Rapport{
		Type:           in.Type,
		DateGeneration: &now,
		Donnees:        datatypes.JSON(donnees),
		UserID:         claims.UserID,
	}
	if err := rt.db.Create(&rapport).Error; err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, rapport)
}

func (rt *Router) getRapport(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	var rapport models.Rapport
	if err := rt.db.Preload("Utilisateur").First(&rapport, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Rapport introuvable")
			return
		}
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rapport)
}

func (rt *Router) updateRapport(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	var rapport models.Rapport
	if err := rt.db.First(&rapport, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Rapport introuvable")
			return
		}
		respondServiceError(w, err)
		return
	}
	var in rapportRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	if in.Type != "" {
		rapport.Type = in.Type
	}
	if len(in.Donnees) > 0 {
		rapport.Donnees = datatypes.JSON(in.Donnees)
	}
	if err := rt.db.Save(&rapport).Error; err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rapport)
}

func (rt *Router) deleteRapport(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	result := rt.db.Delete(&models.Rapport{}, id)
	if result.Error != nil {
		respondServiceError(w, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(w, http.StatusNotFound, "Rapport introuvable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Rapport supprimé",
	})
}
