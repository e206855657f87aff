package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gestistock/gestistock/internal/config"
	"github.com/gestistock/gestistock/internal/models"
	"github.com/gestistock/gestistock/internal/notify"
	"github.com/gestistock/gestistock/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	db           *gorm.DB
	router       *Router
	cfg          *config.Config
	admin        models.User
	gestionnaire models.User
	supplierUser models.User
	fournisseur  models.Fournisseur
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Fournisseur{}, &models.Categorie{},
		&models.Produit{}, &models.Commande{}, &models.LigneDeCommande{},
		&models.Livraison{}, &models.Notification{}, &models.Rapport{},
		&models.DemandeCreationCompte{}, &models.PasswordReset{},
	))

	cfg := &config.Config{
		Env:       "test",
		Port:      "0",
		JWTSecret: "test-secret",
		UploadDir: t.TempDir(),
	}

	env := &testEnv{db: db, cfg: cfg, router: NewRouter(db, cfg, notify.NewHub())}

	hash, err := utils.HashPassword("password123")
	require.NoError(t, err)

	env.admin = models.User{Prenom: "Awa", Nom: "Diop",
		Email: "admin@test.local", Password: hash, Role: models.RoleAdmin}
	env.gestionnaire = models.User{Prenom: "Moussa", Nom: "Fall",
		Email: "gest@test.local", Password: hash, Role: models.RoleGestionnaire}
	env.supplierUser = models.User{Prenom: "Fatou", Nom: "Ndiaye",
		Email: "four@test.local", Password: hash, Role: models.RoleFournisseur}
	for _, u := range []*models.User{&env.admin, &env.gestionnaire, &env.supplierUser} {
		require.NoError(t, db.Create(u).Error)
	}
	env.fournisseur = models.Fournisseur{UserID: env.supplierUser.ID,
		Prenom: "Fatou", Nom: "Ndiaye", Email: env.supplierUser.Email}
	require.NoError(t, db.Create(&env.fournisseur).Error)
	return env
}

func (env *testEnv) token(t *testing.T, user *models.User) string {
	t.Helper()
	access, _, err := utils.GenerateTokens(user, env.cfg)
	require.NoError(t, err)
	return access
}

func (env *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/api/auth/login", "", map[string]string{
		"email": "gest@test.local", "password": "password123"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.NotEmpty(t, body["access_token"])
	assert.Equal(t, "Bearer", body["token_type"])

	rec = env.do(t, "POST", "/api/auth/login", "", map[string]string{
		"email": "gest@test.local", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginPendingRequest(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Create(&models.DemandeCreationCompte{
		Prenom: "Abdou", Nom: "Sow", Email: "abdou@test.local",
		RoleDemande: models.RoleGestionnaire, Statut: models.DemandeEnAttente,
	}).Error)

	rec := env.do(t, "POST", "/api/auth/login", "", map[string]string{
		"email": "abdou@test.local", "password": "whatever"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "pas encore été validé")
}

func TestPolicyGating(t *testing.T) {
	env := newTestEnv(t)
	supplierToken := env.token(t, &env.supplierUser)
	adminToken := env.token(t, &env.admin)

	// No token at all
	rec := env.do(t, "GET", "/api/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// A supplier cannot manage users
	rec = env.do(t, "GET", "/api/users", supplierToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Staff can
	rec = env.do(t, "GET", "/api/users", adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// A supplier cannot create categories either
	rec = env.do(t, "POST", "/api/categories", supplierToken,
		map[string]string{"nom": "Interdit"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCategorieCRUD(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, &env.gestionnaire)

	rec := env.do(t, "POST", "/api/categories", token,
		map[string]string{"nom": "Papeterie", "description": "Fournitures"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode(t, rec)
	id := uint(created["id"].(float64))

	// Duplicate name is a validation error
	rec = env.do(t, "POST", "/api/categories", token, map[string]string{"nom": "Papeterie"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, "GET", fmt.Sprintf("/api/categories/%d", id), token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, "GET", "/api/categories", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode(t, rec)
	assert.EqualValues(t, 1, page["total"])
	assert.EqualValues(t, 20, page["per_page"])

	rec = env.do(t, "DELETE", fmt.Sprintf("/api/categories/%d", id), token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, "GET", fmt.Sprintf("/api/categories/%d", id), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderWorkflowOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	staffToken := env.token(t, &env.gestionnaire)
	supplierToken := env.token(t, &env.supplierUser)

	categorie := models.Categorie{Nom: "Informatique"}
	require.NoError(t, env.db.Create(&categorie).Error)
	produit := models.Produit{Nom: "Souris", Stock: 10, SeuilAlerte: 2,
		Prix: 7500, CategorieID: categorie.ID, FournisseurID: &env.fournisseur.ID}
	require.NoError(t, env.db.Create(&produit).Error)

	// Staff places the order
	rec := env.do(t, "POST", "/api/commandes", staffToken, map[string]interface{}{
		"date":           time.Now().Format("2006-01-02"),
		"total":          22500,
		"fournisseur_id": env.fournisseur.ID,
		"lignes": []map[string]interface{}{
			{"produit_id": produit.ID, "quantite": 3, "prix": produit.Prix},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	commande := decode(t, rec)
	commandeID := uint(commande["id"].(float64))
	assert.Equal(t, "en_attente", commande["statut"])

	// Staff cannot take the supplier decision
	rec = env.do(t, "PUT", fmt.Sprintf("/api/commandes/%d/statut", commandeID),
		staffToken, map[string]string{"statut": "en_cours"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The supplier accepts, stock moves
	rec = env.do(t, "PUT", fmt.Sprintf("/api/commandes/%d/statut", commandeID),
		supplierToken, map[string]string{"statut": "en_cours"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var reloaded models.Produit
	require.NoError(t, env.db.First(&reloaded, produit.ID).Error)
	assert.Equal(t, 13, reloaded.Stock)

	var livraison models.Livraison
	require.NoError(t, env.db.Where("commande_id = ?", commandeID).First(&livraison).Error)
	assert.Equal(t, models.LivraisonEnAttente, livraison.Statut)

	// The ordering user sees the acceptance in their inbox
	rec = env.do(t, "GET", "/api/notifications/unread-count", staffToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	count := decode(t, rec)
	assert.EqualValues(t, 1, count["count"])
}

func TestMesCommandesScopedToSupplier(t *testing.T) {
	env := newTestEnv(t)
	supplierToken := env.token(t, &env.supplierUser)

	autre := models.Fournisseur{Nom: "Autre", UserID: env.admin.ID}
	require.NoError(t, env.db.Create(&autre).Error)
	require.NoError(t, env.db.Create(&models.Commande{
		Date: time.Now(), UserID: env.gestionnaire.ID, FournisseurID: env.fournisseur.ID,
		Statut: models.CommandeEnAttente,
	}).Error)
	require.NoError(t, env.db.Create(&models.Commande{
		Date: time.Now(), UserID: env.gestionnaire.ID, FournisseurID: autre.ID,
		Statut: models.CommandeEnAttente,
	}).Error)

	rec := env.do(t, "GET", "/api/commandes/mes", supplierToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode(t, rec)
	assert.EqualValues(t, 1, page["total"])

	// Staff has no supplier scope, the route is refused
	rec = env.do(t, "GET", "/api/commandes/mes", env.token(t, &env.gestionnaire), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDemandeApprovalCreatesAccount(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.token(t, &env.admin)

	hash, err := utils.HashPassword("motdepasse")
	require.NoError(t, err)
	demande := models.DemandeCreationCompte{
		Prenom: "Abdou", Nom: "Sow", Email: "abdou@test.local",
		Password: hash, RoleDemande: models.RoleFournisseur,
		Statut: models.DemandeEnAttente,
	}
	require.NoError(t, env.db.Create(&demande).Error)

	rec := env.do(t, "PUT", fmt.Sprintf("/api/demandes-creation-compte/%d", demande.ID),
		adminToken, map[string]string{"statut": "approuvee"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var user models.User
	require.NoError(t, env.db.Preload("Fournisseur").
		Where("email = ?", "abdou@test.local").First(&user).Error)
	assert.Equal(t, models.RoleFournisseur, user.Role)
	require.NotNil(t, user.Fournisseur, "approved supplier request must create the fournisseur row")

	// The new account can log in right away
	rec = env.do(t, "POST", "/api/auth/login", "", map[string]string{
		"email": "abdou@test.local", "password": "motdepasse"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Deciding twice is refused
	rec = env.do(t, "PUT", fmt.Sprintf("/api/demandes-creation-compte/%d", demande.ID),
		adminToken, map[string]string{"statut": "refusee"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestNotificationsOwnership(t *testing.T) {
	env := newTestEnv(t)
	staffToken := env.token(t, &env.gestionnaire)

	mine := models.Notification{UserID: env.gestionnaire.ID, Type: models.NotifStockBas,
		Titre: "Stock bas", Message: "m", DateCreation: time.Now()}
	theirs := models.Notification{UserID: env.admin.ID, Type: models.NotifStockBas,
		Titre: "Stock bas", Message: "m", DateCreation: time.Now()}
	require.NoError(t, env.db.Create(&mine).Error)
	require.NoError(t, env.db.Create(&theirs).Error)

	rec := env.do(t, "GET", "/api/notifications", staffToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode(t, rec)
	assert.EqualValues(t, 1, page["total"])

	rec = env.do(t, "PATCH", fmt.Sprintf("/api/notifications/%d/read", mine.ID), staffToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Someone else's notification looks like it does not exist
	rec = env.do(t, "PATCH", fmt.Sprintf("/api/notifications/%d/read", theirs.ID), staffToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, "DELETE", fmt.Sprintf("/api/notifications/%d", theirs.ID), staffToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	categorie := models.Categorie{Nom: "Informatique"}
	require.NoError(t, env.db.Create(&categorie).Error)
	require.NoError(t, env.db.Create(&models.Produit{Nom: "Souris", Stock: 1,
		SeuilAlerte: 5, Prix: 7500, CategorieID: categorie.ID}).Error)

	rec := env.do(t, "GET", "/api/rapports/stats", env.token(t, &env.admin), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stats := decode(t, rec)
	assert.EqualValues(t, 1, stats["totalProduits"])
	assert.EqualValues(t, 1, stats["produitsRupture"])

	// Supplier gets the supplier dashboard, not the global one
	rec = env.do(t, "GET", "/api/rapports/stats", env.token(t, &env.supplierUser), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	supplierStats := decode(t, rec)
	assert.Contains(t, supplierStats, "taux_acceptation")
}
