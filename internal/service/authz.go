package service

import "farm-market/internal/model"

// Action is a capability a user may or may not hold. Handlers check
// Can before invoking the manager, keeping role policy out of the
// transition logic itself.
type Action string

const (
	ActionAddProduct Action = "add_product"
	ActionManageCart Action = "manage_cart"
	ActionCheckout   Action = "checkout"
	ActionViewOrders Action = "view_orders"
)

func Can(u model.User, a Action) bool {
	switch a {
	case ActionAddProduct:
		return u.Role == model.RoleFarmer
	case ActionManageCart, ActionCheckout, ActionViewOrders:
		return u.Role == model.RoleBuyer
	}
	return false
}
