package auth

import "github.com/markjakearzadon/donation-gobackend/internal/models"

// Capability is an operation a role may perform. Routes check capabilities,
// never role names.
type Capability string

const (
	CapReviewTransfers Capability = "review_transfers"
	CapViewLedger      Capability = "view_ledger"
	CapResolveIntents  Capability = "resolve_intents"
	CapReconcile       Capability = "reconcile"
	CapProvisionUsers  Capability = "provision_users"
)

var capabilities = map[models.Role]map[Capability]bool{
	models.RoleAdmin: {
		CapReviewTransfers: true,
		CapViewLedger:      true,
		CapResolveIntents:  true,
		CapReconcile:       true,
		CapProvisionUsers:  true,
	},
	models.RoleAccountant: {
		CapReviewTransfers: true,
		CapViewLedger:      true,
		CapResolveIntents:  true,
	},
	models.RoleManager: {
		CapReviewTransfers: true,
		CapViewLedger:      true,
	},
	models.RoleEditor:   {},
	models.RoleDelivery: {},
	models.RoleUser:     {},
}

func Can(role models.Role, c Capability) bool {
	return capabilities[role][c]
}
