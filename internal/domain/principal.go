package domain

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Principal is the authenticated caller, validated upstream of the
// orchestrator. It is always passed explicitly, never read from globals.
type Principal struct {
	UserID int64
	Role   string
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// CanActOn reports whether the principal may operate on a booking owned by
// ownerID. Admins may act on any booking.
func (p Principal) CanActOn(ownerID int64) bool {
	return p.IsAdmin() || p.UserID == ownerID
}
