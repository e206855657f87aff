package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gestistock/gestistock/internal/apperr"
	"github.com/gestistock/gestistock/internal/models"
	"github.com/gestistock/gestistock/internal/pagination"
	"github.com/gestistock/gestistock/internal/utils"
	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"
)

// listProduits returns a page of products with optional filters
func (rt *Router) listProduits(w http.ResponseWriter, req *http.Request) {
	query := rt.db.Model(&models.Produit{}).
		Preload("Categorie").Preload("Fournisseur").Order("nom ASC")
	q := req.URL.Query()
	if search := q.Get("search"); search != "" {
		query = query.Where("nom LIKE ?", "%"+search+"%")
	}
	if categorie := q.Get("categorie_id"); categorie != "" {
		query = query.Where("categorie_id = ?", categorie)
	}
	if fournisseur := q.Get("fournisseur_id"); fournisseur != "" {
		query = query.Where("fournisseur_id = ?", fournisseur)
	}
	if q.Get("rupture") == "1" {
		query = query.Where("stock <= seuil_alerte")
	}
	if min := q.Get("date_min"); min != "" {
		if parsed, err := time.Parse("2006-01-02", min); err == nil {
			query = query.Where("created_at >= ?", parsed)
		}
	}
	if max := q.Get("date_max"); max != "" {
		if parsed, err := time.Parse("2006-01-02", max); err == nil {
			query = query.Where("created_at < ?", parsed.AddDate(0, 0, 1))
		}
	}

	var produits []models.Produit
	page, err := pagination.Paginate(query, pagination.PageParam(req), &produits)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	page.Data = produitViews(produits)
	respondJSON(w, http.StatusOK, page)
}

// mesProduits lists the products supplied by the logged-in supplier
func (rt *Router) mesProduits(w http.ResponseWriter, req *http.Request) {
	_, fournisseur, err := rt.currentFournisseur(req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	query := rt.db.Model(&models.Produit{}).Preload("Categorie").
		Where("fournisseur_id = ?", fournisseur.ID).Order("nom ASC")
	q := req.URL.Query()
	if search := q.Get("search"); search != "" {
		query = query.Where("nom LIKE ?", "%"+search+"%")
	}
	if categorie := q.Get("categorie_id"); categorie != "" {
		query = query.Where("categorie_id = ?", categorie)
	}
	if q.Get("alerte_stock") == "1" {
		query = query.Where("stock <= seuil_alerte")
	}
	var produits []models.Produit
	page, err := pagination.Paginate(query, pagination.PageParam(req), &produits)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	page.Data = produitViews(produits)
	respondJSON(w, http.StatusOK, page)
}

func (rt *Router) produitForm(req *http.Request, produit *models.Produit) *apperr.ValidationError {
	verr := apperr.NewValidation()
	if v := req.FormValue("nom"); v != "" {
		produit.Nom = v
	}
	if v := req.FormValue("description"); v != "" {
		produit.Description = v
	}
	if v := req.FormValue("prix"); v != "" {
		prix, err := strconv.ParseFloat(v, 64)
		if err != nil || prix < 0 {
			verr.Add("prix", "Le prix doit être un nombre positif.")
		} else {
			produit.Prix = prix
		}
	}
	if v := req.FormValue("stock"); v != "" {
		stock, err := strconv.Atoi(v)
		if err != nil || stock < 0 {
			verr.Add("stock", "Le stock doit être un entier positif.")
		} else {
			produit.Stock = stock
		}
	}
	if v := req.FormValue("seuil_alerte"); v != "" {
		seuil, err := strconv.Atoi(v)
		if err != nil || seuil < 0 {
			verr.Add("seuil_alerte", "Le seuil d'alerte doit être un entier positif.")
		} else {
			produit.SeuilAlerte = seuil
		}
	}
	if v := req.FormValue("categorie_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			verr.Add("categorie_id", "La catégorie est invalide.")
		} else {
			var count int64
			rt.db.Model(&models.Categorie{}).Where("id = ?", id).Count(&count)
			if count == 0 {
				verr.Add("categorie_id", "La catégorie est invalide.")
			} else {
				produit.CategorieID = uint(id)
			}
		}
	}
	if v := req.FormValue("fournisseur_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			verr.Add("fournisseur_id", "Le fournisseur est invalide.")
		} else {
			var count int64
			rt.db.Model(&models.Fournisseur{}).Where("id = ?", id).Count(&count)
			if count == 0 {
				verr.Add("fournisseur_id", "Le fournisseur est invalide.")
			} else {
				fid := uint(id)
				produit.FournisseurID = &fid
			}
		}
	}
	return verr
}

func (rt *Router) createProduit(w http.ResponseWriter, req *http.Request) {
	if err := req.ParseMultipartForm(utils.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	produit := models.Produit{SeuilAlerte: 5}
	verr := rt.produitForm(req, &produit)
	if produit.Nom == "" {
		verr.Add("nom", "Le nom est obligatoire.")
	}
	if produit.CategorieID == 0 {
		verr.Add("categorie_id", "La catégorie est obligatoire.")
	}
	var count int64
	rt.db.Model(&models.Produit{}).Where("nom = ?", produit.Nom).Count(&count)
	if count > 0 {
		verr.Add("nom", "Un produit porte déjà ce nom.")
	}
	if !verr.Empty() {
		respondServiceError(w, verr)
		return
	}

	if fh := formFile(req, "image"); fh != nil {
		path, err := utils.SaveUpload(fh, rt.cfg.UploadDir, "produits")
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		produit.Image = path
	}
	if err := rt.db.Create(&produit).Error; err != nil {
		respondServiceError(w, err)
		return
	}
	if err := rt.alerts.CheckProduct(&produit); err != nil {
		respondServiceError(w, err)
		return
	}
	rt.db.Preload("Categorie").Preload("Fournisseur").First(&produit, produit.ID)
	respondJSON(w, http.StatusCreated, produitView(produit))
}

func (rt *Router) getProduit(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	var produit models.Produit
	err = rt.db.Preload("Categorie").Preload("Fournisseur").First(&produit, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Produit introuvable")
			return
		}
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, produitView(produit))
}

func (rt *Router) updateProduit(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	var produit models.Produit
	if err := rt.db.First(&produit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Produit introuvable")
			return
		}
		respondServiceError(w, err)
		return
	}
	if err := req.ParseMultipartForm(utils.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	verr := rt.produitForm(req, &produit)
	if !verr.Empty() {
		respondServiceError(w, verr)
		return
	}
	if fh := formFile(req, "image"); fh != nil {
		path, err := utils.SaveUpload(fh, rt.cfg.UploadDir, "produits")
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		utils.RemoveUpload(produit.Image, rt.cfg.UploadDir)
		produit.Image = path
	}
	if err := rt.db.Save(&produit).Error; err != nil {
		respondServiceError(w, err)
		return
	}
	// A stock or threshold edit may put the product in rupture
	if err := rt.alerts.CheckProduct(&produit); err != nil {
		respondServiceError(w, err)
		return
	}
	rt.db.Preload("Categorie").Preload("Fournisseur").First(&produit, produit.ID)
	respondJSON(w, http.StatusOK, produitView(produit))
}

func (rt *Router) deleteProduit(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	var produit models.Produit
	if err := rt.db.First(&produit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Produit introuvable")
			return
		}
		respondServiceError(w, err)
		return
	}
	var count int64
	rt.db.Model(&models.LigneDeCommande{}).Where("produit_id = ?", id).Count(&count)
	if count > 0 {
		respondError(w, http.StatusConflict, "Ce produit apparaît dans des commandes.")
		return
	}
	if err := rt.db.Delete(&produit).Error; err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RemoveUpload(produit.Image, rt.cfg.UploadDir)
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Produit supprimé",
	})
}

// produitEtiquette renders a printable QR label for a product. The code
// encodes the product id and name for handheld scanners.
func (rt *Router) produitEtiquette(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	var produit models.Produit
	if err := rt.db.First(&produit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Produit introuvable")
			return
		}
		respondServiceError(w, err)
		return
	}
	payload := fmt.Sprintf("produit:%d:%s", produit.ID, produit.Nom)
	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("inline; filename=\"etiquette-%d.png\"", produit.ID))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
