package policy

import (
	"testing"

	"github.com/gestistock/gestistock/internal/models"
)

func TestAllowed(t *testing.T) {
	cases := []struct {
		role     string
		resource string
		action   Action
		want     bool
	}{
		{models.RoleAdmin, ResourceUsers, ActionCreate, true},
		{models.RoleGestionnaire, ResourceUsers, ActionCreate, true},
		{models.RoleFournisseur, ResourceUsers, ActionList, false},
		{models.RoleFournisseur, ResourceCommandes, ActionChangeStatus, true},
		{models.RoleAdmin, ResourceCommandes, ActionChangeStatus, false},
		{models.RoleFournisseur, ResourceCommandes, ActionDelete, true},
		{models.RoleFournisseur, ResourceProduits, ActionListOwn, true},
		{models.RoleGestionnaire, ResourceProduits, ActionListOwn, false},
		{models.RoleFournisseur, ResourceRapports, ActionStats, true},
		{models.RoleGestionnaire, ResourceRapports, ActionStats, true},
		{models.RoleFournisseur, ResourceRapports, ActionExport, false},
		{models.RoleAdmin, ResourceRapports, ActionExport, true},
		{models.RoleFournisseur, ResourceLivraisons, ActionUpdate, true},
		{models.RoleFournisseur, ResourceLivraisons, ActionDelete, false},
		{"", ResourceUsers, ActionList, false},
		{models.RoleAdmin, "unknown", ActionList, false},
	}

	for _, c := range cases {
		if got := Allowed(c.role, c.resource, c.action); got != c.want {
			t.Errorf("Allowed(%q, %q, %q) = %v, want %v", c.role, c.resource, c.action, got, c.want)
		}
	}
}
