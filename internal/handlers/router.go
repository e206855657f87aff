package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gestistock/gestistock/internal/apperr"
	"github.com/gestistock/gestistock/internal/config"
	"github.com/gestistock/gestistock/internal/middleware"
	"github.com/gestistock/gestistock/internal/models"
	"github.com/gestistock/gestistock/internal/notify"
	"github.com/gestistock/gestistock/internal/policy"
	"github.com/gestistock/gestistock/internal/services/alerts"
	"github.com/gestistock/gestistock/internal/services/orders"
	"github.com/gestistock/gestistock/internal/services/reports"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// Router wraps the mux router with the database and workflow services
type Router struct {
	*mux.Router
	db       *gorm.DB
	cfg      *config.Config
	hub      *notify.Hub
	notifier *notify.Notifier
	orders   *orders.Service
	alerts   *alerts.Service
	reports  *reports.Service
}

// NewRouter creates the HTTP router with all routes
func NewRouter(db *gorm.DB, cfg *config.Config, hub *notify.Hub) *Router {
	notifier := notify.NewNotifier(hub)
	rt := &Router{
		Router:   mux.NewRouter(),
		db:       db,
		cfg:      cfg,
		hub:      hub,
		notifier: notifier,
		orders:   orders.NewService(db, notifier),
		alerts:   alerts.NewService(db, notifier),
		reports:  reports.NewService(db),
	}

	// Health check endpoint
	rt.HandleFunc("/health", rt.healthCheck).Methods("GET")

	api := rt.PathPrefix("/api").Subrouter()

	// Public auth routes
	api.HandleFunc("/auth/login", rt.login).Methods("POST")
	api.HandleFunc("/auth/register", rt.register).Methods("POST")
	api.HandleFunc("/forgot-password", rt.forgotPassword).Methods("POST")
	api.HandleFunc("/reset-password", rt.resetPassword).Methods("POST")

	// Everything below requires a valid token
	auth := api.NewRoute().Subrouter()
	auth.Use(middleware.Auth(cfg.JWTSecret))

	auth.HandleFunc("/me", rt.me).Methods("GET")
	auth.HandleFunc("/me", rt.updateProfile).Methods("PUT")
	auth.HandleFunc("/auth/logout", rt.logout).Methods("POST")

	// Notifications of the logged-in user
	auth.HandleFunc("/notifications", rt.listNotifications).Methods("GET")
	auth.HandleFunc("/notifications/stream", rt.streamNotifications).Methods("GET")
	auth.HandleFunc("/notifications/unread-count", rt.unreadNotifications).Methods("GET")
	auth.HandleFunc("/notifications/{id}/read", rt.markNotificationRead).Methods("PATCH")
	auth.HandleFunc("/notifications/{id}", rt.deleteNotification).Methods("DELETE")

	// Users (admin/gestionnaire)
	auth.HandleFunc("/users", rt.secure(policy.ResourceUsers, policy.ActionList, rt.listUsers)).Methods("GET")
	auth.HandleFunc("/users", rt.secure(policy.ResourceUsers, policy.ActionCreate, rt.createUser)).Methods("POST")
	auth.HandleFunc("/users/{id}", rt.secure(policy.ResourceUsers, policy.ActionView, rt.getUser)).Methods("GET")
	auth.HandleFunc("/users/{id}", rt.secure(policy.ResourceUsers, policy.ActionUpdate, rt.updateUser)).Methods("PUT")
	auth.HandleFunc("/users/{id}", rt.secure(policy.ResourceUsers, policy.ActionDelete, rt.deleteUser)).Methods("DELETE")

	// Account creation requests
	auth.HandleFunc("/demandes-creation-compte", rt.secure(policy.ResourceDemandes, policy.ActionList, rt.listDemandes)).Methods("GET")
	auth.HandleFunc("/demandes-creation-compte", rt.secure(policy.ResourceDemandes, policy.ActionCreate, rt.createDemande)).Methods("POST")
	auth.HandleFunc("/demandes-creation-compte/{id}", rt.secure(policy.ResourceDemandes, policy.ActionView, rt.getDemande)).Methods("GET")
	auth.HandleFunc("/demandes-creation-compte/{id}", rt.secure(policy.ResourceDemandes, policy.ActionUpdate, rt.updateDemande)).Methods("PUT")
	auth.HandleFunc("/demandes-creation-compte/{id}", rt.secure(policy.ResourceDemandes, policy.ActionDelete, rt.deleteDemande)).Methods("DELETE")

	// Categories
	auth.HandleFunc("/categories", rt.secure(policy.ResourceCategories, policy.ActionList, rt.listCategories)).Methods("GET")
	auth.HandleFunc("/categories", rt.secure(policy.ResourceCategories, policy.ActionCreate, rt.createCategorie)).Methods("POST")
	auth.HandleFunc("/categories/{id}", rt.secure(policy.ResourceCategories, policy.ActionView, rt.getCategorie)).Methods("GET")
	auth.HandleFunc("/categories/{id}", rt.secure(policy.ResourceCategories, policy.ActionUpdate, rt.updateCategorie)).Methods("PUT")
	auth.HandleFunc("/categories/{id}", rt.secure(policy.ResourceCategories, policy.ActionDelete, rt.deleteCategorie)).Methods("DELETE")

	// Suppliers
	auth.HandleFunc("/fournisseurs", rt.secure(policy.ResourceFournisseurs, policy.ActionList, rt.listFournisseurs)).Methods("GET")
	auth.HandleFunc("/fournisseurs", rt.secure(policy.ResourceFournisseurs, policy.ActionCreate, rt.createFournisseur)).Methods("POST")
	auth.HandleFunc("/fournisseurs/{id}", rt.secure(policy.ResourceFournisseurs, policy.ActionView, rt.getFournisseur)).Methods("GET")
	auth.HandleFunc("/fournisseurs/{id}", rt.secure(policy.ResourceFournisseurs, policy.ActionUpdate, rt.updateFournisseur)).Methods("PUT")
	auth.HandleFunc("/fournisseurs/{id}", rt.secure(policy.ResourceFournisseurs, policy.ActionDelete, rt.deleteFournisseur)).Methods("DELETE")

	// Products. "mes" routes must register before "{id}".
	auth.HandleFunc("/produits/mes", rt.secure(policy.ResourceProduits, policy.ActionListOwn, rt.mesProduits)).Methods("GET")
	auth.HandleFunc("/produits", rt.secure(policy.ResourceProduits, policy.ActionList, rt.listProduits)).Methods("GET")
	auth.HandleFunc("/produits", rt.secure(policy.ResourceProduits, policy.ActionCreate, rt.createProduit)).Methods("POST")
	auth.HandleFunc("/produits/{id}/etiquette", rt.secure(policy.ResourceProduits, policy.ActionView, rt.produitEtiquette)).Methods("GET")
	auth.HandleFunc("/produits/{id}", rt.secure(policy.ResourceProduits, policy.ActionView, rt.getProduit)).Methods("GET")
	auth.HandleFunc("/produits/{id}", rt.secure(policy.ResourceProduits, policy.ActionUpdate, rt.updateProduit)).Methods("PUT")
	auth.HandleFunc("/produits/{id}", rt.secure(policy.ResourceProduits, policy.ActionDelete, rt.deleteProduit)).Methods("DELETE")

	// Orders
	auth.HandleFunc("/commandes/mes", rt.secure(policy.ResourceCommandes, policy.ActionListOwn, rt.mesCommandes)).Methods("GET")
	auth.HandleFunc("/commandes", rt.secure(policy.ResourceCommandes, policy.ActionList, rt.listCommandes)).Methods("GET")
	auth.HandleFunc("/commandes", rt.secure(policy.ResourceCommandes, policy.ActionCreate, rt.createCommande)).Methods("POST")
	auth.HandleFunc("/commandes/{id}/statut", rt.secure(policy.ResourceCommandes, policy.ActionChangeStatus, rt.changerStatutCommande)).Methods("PUT")
	auth.HandleFunc("/commandes/{id}", rt.secure(policy.ResourceCommandes, policy.ActionView, rt.getCommande)).Methods("GET")
	auth.HandleFunc("/commandes/{id}", rt.secure(policy.ResourceCommandes, policy.ActionUpdate, rt.updateCommande)).Methods("PUT")
	auth.HandleFunc("/commandes/{id}", rt.secure(policy.ResourceCommandes, policy.ActionDelete, rt.deleteCommande)).Methods("DELETE")

	// Order lines
	auth.HandleFunc("/lignes-de-commande", rt.secure(policy.ResourceLignes, policy.ActionList, rt.listLignes)).Methods("GET")
	auth.HandleFunc("/lignes-de-commande", rt.secure(policy.ResourceLignes, policy.ActionCreate, rt.createLigne)).Methods("POST")
	auth.HandleFunc("/lignes-de-commande/{id}", rt.secure(policy.ResourceLignes, policy.ActionView, rt.getLigne)).Methods("GET")
	auth.HandleFunc("/lignes-de-commande/{id}", rt.secure(policy.ResourceLignes, policy.ActionUpdate, rt.updateLigne)).Methods("PUT")
	auth.HandleFunc("/lignes-de-commande/{id}", rt.secure(policy.ResourceLignes, policy.ActionDelete, rt.deleteLigne)).Methods("DELETE")

	// Deliveries
	auth.HandleFunc("/livraisons/mes", rt.secure(policy.ResourceLivraisons, policy.ActionListOwn, rt.mesLivraisons)).Methods("GET")
	auth.HandleFunc("/livraisons", rt.secure(policy.ResourceLivraisons, policy.ActionList, rt.listLivraisons)).Methods("GET")
	auth.HandleFunc("/livraisons", rt.secure(policy.ResourceLivraisons, policy.ActionCreate, rt.createLivraison)).Methods("POST")
	auth.HandleFunc("/livraisons/{id}", rt.secure(policy.ResourceLivraisons, policy.ActionView, rt.getLivraison)).Methods("GET")
	auth.HandleFunc("/livraisons/{id}", rt.secure(policy.ResourceLivraisons, policy.ActionUpdate, rt.updateLivraison)).Methods("PUT")
	auth.HandleFunc("/livraisons/{id}", rt.secure(policy.ResourceLivraisons, policy.ActionDelete, rt.deleteLivraison)).Methods("DELETE")

	// Reports
	auth.HandleFunc("/rapports/stats", rt.secure(policy.ResourceRapports, policy.ActionStats, rt.statsRapports)).Methods("GET")
	auth.HandleFunc("/rapports/export", rt.secure(policy.ResourceRapports, policy.ActionExport, rt.exportRapports)).Methods("GET")
	auth.HandleFunc("/rapports/mes", rt.secure(policy.ResourceRapports, policy.ActionListOwn, rt.mesRapports)).Methods("GET")
	auth.HandleFunc("/rapports", rt.secure(policy.ResourceRapports, policy.ActionList, rt.listRapports)).Methods("GET")
	auth.HandleFunc("/rapports", rt.secure(policy.ResourceRapports, policy.ActionCreate, rt.createRapport)).Methods("POST")
	auth.HandleFunc("/rapports/{id}", rt.secure(policy.ResourceRapports, policy.ActionView, rt.getRapport)).Methods("GET")
	auth.HandleFunc("/rapports/{id}", rt.secure(policy.ResourceRapports, policy.ActionUpdate, rt.updateRapport)).Methods("PUT")
	auth.HandleFunc("/rapports/{id}", rt.secure(policy.ResourceRapports, policy.ActionDelete, rt.deleteRapport)).Methods("DELETE")

	// Uploaded images
	rt.PathPrefix("/storage/").Handler(
		http.StripPrefix("/storage/", http.FileServer(http.Dir(cfg.UploadDir))))

	return rt
}

// healthCheck returns the health status of the API
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// secure gates a handler on the authorization table. Ownership of specific
// rows is enforced further down in the services.
func (rt *Router) secure(resource string, action policy.Action, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		claims, ok := middleware.UserFromContext(req.Context())
		if !ok {
			respondError(w, http.StatusUnauthorized, "Non authentifié")
			return
		}
		if !policy.Allowed(claims.Role, resource, action) {
			respondError(w, http.StatusForbidden, "Non autorisé")
			return
		}
		h(w, req)
	}
}

// currentUser loads the full user row (with supplier link) for the token's
// claims
func (rt *Router) currentUser(req *http.Request) (*models.User, error) {
	claims, ok := middleware.UserFromContext(req.Context())
	if !ok {
		return nil, apperr.Forbidden("Non authentifié")
	}
	var user models.User
	if err := rt.db.Preload("Fournisseur").First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Forbidden("Non authentifié")
		}
		return nil, err
	}
	return &user, nil
}

// currentFournisseur resolves the supplier record of the logged-in user
func (rt *Router) currentFournisseur(req *http.Request) (*models.User, *models.Fournisseur, error) {
	user, err := rt.currentUser(req)
	if err != nil {
		return nil, nil, err
	}
	if user.Role != models.RoleFournisseur || user.Fournisseur == nil {
		return nil, nil, apperr.Forbidden("Non autorisé")
	}
	return user, user.Fournisseur, nil
}

// pathID parses the {id} route variable
func pathID(req *http.Request) (uint, error) {
	id, err := strconv.ParseUint(mux.Vars(req)["id"], 10, 32)
	return uint(id), err
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"message": message,
	})
}

// respondServiceError maps the error taxonomy onto HTTP statuses
func respondServiceError(w http.ResponseWriter, err error) {
	var verr *apperr.ValidationError
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"message": "Les données fournies sont invalides",
			"errors":  verr.Fields,
		})
	case errors.Is(err, apperr.ErrNotFound):
		respondError(w, http.StatusNotFound, apperr.Message(err))
	case errors.Is(err, apperr.ErrForbidden):
		respondError(w, http.StatusForbidden, apperr.Message(err))
	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "Erreur interne du serveur")
	}
}
