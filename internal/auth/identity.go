package auth

// Identity is the resolved caller context for a request. The admin flag is
// read from the store at resolution time, not taken from the token, so quota
// and role changes apply without forcing a re-login.
type Identity struct {
	UserID  int64  `json:"user_id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"platform_admin"`
}

// CanActFor reports whether the identity may operate on userID's data:
// either it is the user themselves or a platform admin.
func (i Identity) CanActFor(userID int64) bool {
	return i.UserID == userID || i.IsAdmin
}
