package domain

// Roles carried in the auth token claims. Tokens are minted by the identity
// collaborator; this core only verifies and reads them.
const (
	RoleSender  = "sender"
	RoleCourier = "courier"
	RoleAdmin   = "admin"
)
