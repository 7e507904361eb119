package enum

// ── State machine (CHECK constrained in DB) ──

const (
	OrderStatusPending       = "pending"
	OrderStatusInPreparation = "in_preparation"
	OrderStatusReady         = "ready"
	OrderStatusDelivered     = "delivered"
)

// ── Roles (CHECK constrained in DB) ──

const (
	UserRoleAdmin    = "admin"
	UserRoleStaff    = "staff"
	UserRoleCustomer = "customer"
)

// ── Broadcast event names ──
// Kept identical to the names the mobile clients already subscribe to.

const (
	EventOrderGroupCreated = "orderGroupCreated"
	EventOrderGroupUpdated = "orderGroupUpdated"
	EventOrderGroupDeleted = "orderGroupDeleted"

	EventItemCreated = "itemCreated"
	EventItemUpdated = "itemUpdated"
	EventItemDeleted = "itemDeleted"

	EventIngredientCreated = "ingredienteCreated"
	EventIngredientUpdated = "ingredienteUpdated"
	EventIngredientDeleted = "ingredienteDeleted"

	EventUserCreated     = "userCreated"
	EventUserLoggedIn    = "userLoggedIn"
	EventUserDeleted     = "userDeleted"
	EventUserRoleUpdated = "userRoleUpdated"

	EventProfitUpdated = "profitUpdated"
)
