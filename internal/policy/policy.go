// Package policy is the central authorization table. Instead of ad-hoc role
// checks inside each handler, every route names a (resource, action) pair
// and the table decides which roles may perform it. Ownership checks for
// supplier-scoped resources stay in the services, where the owning rows are
// already loaded.
package policy

import "github.com/gestistock/gestistock/internal/models"

// Action is a permission verb on a resource
type Action string

const (
	ActionList   Action = "list"
	ActionCreate Action = "create"
	ActionView   Action = "view"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"

	// Workflow verbs outside plain CRUD
	ActionChangeStatus Action = "change_status" // supplier accept/reject of an order
	ActionListOwn      Action = "list_own"      // supplier "mes" listings
	ActionStats        Action = "stats"         // dashboard aggregates
	ActionExport       Action = "export"        // PDF download of the stats
)

// Resource names mirror the API route groups
const (
	ResourceUsers         = "users"
	ResourceDemandes      = "demandes-creation-compte"
	ResourceCategories    = "categories"
	ResourceFournisseurs  = "fournisseurs"
	ResourceProduits      = "produits"
	ResourceCommandes     = "commandes"
	ResourceLignes        = "lignes-de-commande"
	ResourceLivraisons    = "livraisons"
	ResourceRapports      = "rapports"
	ResourceNotifications = "notifications"
)

type rule struct {
	resource string
	action   Action
}

var (
	staff    = []string{models.RoleAdmin, models.RoleGestionnaire}
	supplier = []string{models.RoleFournisseur}
	everyone = []string{models.RoleAdmin, models.RoleGestionnaire, models.RoleFournisseur}
)

// table maps each (resource, action) to the roles allowed to perform it.
// This is the single place role gating is defined; the route groups in the
// original system are reproduced here 1:1.
var table = map[rule][]string{
	{ResourceUsers, ActionList}:   staff,
	{ResourceUsers, ActionCreate}: staff,
	{ResourceUsers, ActionView}:   staff,
	{ResourceUsers, ActionUpdate}: staff,
	{ResourceUsers, ActionDelete}: staff,

	{ResourceDemandes, ActionList}:   staff,
	{ResourceDemandes, ActionCreate}: everyone,
	{ResourceDemandes, ActionView}:   staff,
	{ResourceDemandes, ActionUpdate}: staff,
	{ResourceDemandes, ActionDelete}: staff,

	{ResourceCategories, ActionList}:   staff,
	{ResourceCategories, ActionCreate}: staff,
	{ResourceCategories, ActionView}:   staff,
	{ResourceCategories, ActionUpdate}: staff,
	{ResourceCategories, ActionDelete}: staff,

	{ResourceFournisseurs, ActionList}:   staff,
	{ResourceFournisseurs, ActionCreate}: staff,
	{ResourceFournisseurs, ActionView}:   staff,
	// A supplier may update its own profile; ownership enforced in the handler
	{ResourceFournisseurs, ActionUpdate}: everyone,
	{ResourceFournisseurs, ActionDelete}: staff,

	{ResourceProduits, ActionList}:    staff,
	{ResourceProduits, ActionCreate}:  staff,
	{ResourceProduits, ActionView}:    staff,
	{ResourceProduits, ActionUpdate}:  staff,
	{ResourceProduits, ActionDelete}:  staff,
	{ResourceProduits, ActionListOwn}: supplier,

	{ResourceCommandes, ActionList}:         everyone,
	{ResourceCommandes, ActionCreate}:       staff,
	{ResourceCommandes, ActionView}:         everyone, // supplier limited to its own orders in the handler
	{ResourceCommandes, ActionUpdate}:       staff,
	{ResourceCommandes, ActionDelete}:       everyone, // status/ownership gate applied in the service
	{ResourceCommandes, ActionChangeStatus}: supplier,
	{ResourceCommandes, ActionListOwn}:      supplier,

	{ResourceLignes, ActionList}:   staff,
	{ResourceLignes, ActionCreate}: staff,
	{ResourceLignes, ActionView}:   staff,
	{ResourceLignes, ActionUpdate}: staff,
	{ResourceLignes, ActionDelete}: staff,

	{ResourceLivraisons, ActionList}:    staff,
	{ResourceLivraisons, ActionCreate}:  staff,
	{ResourceLivraisons, ActionView}:    everyone, // supplier limited to its own deliveries in the handler
	{ResourceLivraisons, ActionUpdate}:  everyone, // supplier limited to own orders' deliveries
	{ResourceLivraisons, ActionDelete}:  staff,
	{ResourceLivraisons, ActionListOwn}: everyone,

	{ResourceRapports, ActionList}:    staff,
	{ResourceRapports, ActionCreate}:  staff,
	{ResourceRapports, ActionView}:    staff,
	{ResourceRapports, ActionUpdate}:  staff,
	{ResourceRapports, ActionDelete}:  staff,
	{ResourceRapports, ActionStats}:   everyone, // staff gets global stats, a supplier its own dashboard
	{ResourceRapports, ActionExport}:  staff,
	{ResourceRapports, ActionListOwn}: everyone,

	{ResourceNotifications, ActionList}:   everyone,
	{ResourceNotifications, ActionUpdate}: everyone,
	{ResourceNotifications, ActionDelete}: everyone,
}

// Allowed reports whether role may perform action on resource
func Allowed(role, resource string, action Action) bool {
	roles, ok := table[rule{resource, action}]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
