package handlers

import (
	"strings"

	"github.com/gestistock/gestistock/internal/models"
)

// The API never returns raw storage paths. Stored photos are relative paths
// under the upload dir ("users/abc.png"); external URLs pass through as-is.

// UserView adds the resolved photo URL to a user payload
type UserView struct {
	models.User
	PhotoURL string `json:"photo_url,omitempty"`
}

// FournisseurView adds the resolved image URL to a supplier payload
type FournisseurView struct {
	models.Fournisseur
	ImageURL string `json:"image_url,omitempty"`
}

// ProduitView adds the resolved image URL to a product payload
type ProduitView struct {
	models.Produit
	ImageURL string `json:"image_url,omitempty"`
}

func assetURL(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return "/storage/" + path
}

func userView(u models.User) UserView {
	return UserView{User: u, PhotoURL: assetURL(u.Photo)}
}

func userViews(users []models.User) []UserView {
	views := make([]UserView, len(users))
	for i, u := range users {
		views[i] = userView(u)
	}
	return views
}

func fournisseurView(f models.Fournisseur) FournisseurView {
	return FournisseurView{Fournisseur: f, ImageURL: assetURL(f.Image)}
}

func fournisseurViews(list []models.Fournisseur) []FournisseurView {
	views := make([]FournisseurView, len(list))
	for i, f := range list {
		views[i] = fournisseurView(f)
	}
	return views
}

func produitView(p models.Produit) ProduitView {
	return ProduitView{Produit: p, ImageURL: assetURL(p.Image)}
}

func produitViews(list []models.Produit) []ProduitView {
	views := make([]ProduitView, len(list))
	for i, p := range list {
		views[i] = produitView(p)
	}
	return views
}
