package model

// Account is the single operator allowed into the back office.  There is
// no user table: the account comes from configuration and only its
// password hash is kept in memory.
//
// Fields:
//
//	Email        – login identifier, compared case-insensitively.
//	PasswordHash – bcrypt hash of the demo password.
//	Role         – role claim placed in issued session tokens.
type Account struct {
	Email        string
	PasswordHash string
	Role         string
}

// RoleAdmin is the only role issued by the login handler.
const RoleAdmin = "ADMIN"
