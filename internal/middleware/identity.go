package middleware

// Context keys set by JWTAuth and Session.
const (
	KeyUserID = "user_id"
	KeyRole   = "role"
)
