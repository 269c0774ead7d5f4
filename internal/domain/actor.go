package domain

type Role string

const (
	RoleCustomer Role = "customer"
	RoleArtisan  Role = "artisan"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   uint64
	Role Role
}

func (a Actor) IsArtisan() bool { return a.Role == RoleArtisan }

func (a Actor) IsCustomer() bool { return a.Role == RoleCustomer }

func IsValidRole(r Role) bool {
	return r == RoleCustomer || r == RoleArtisan
}
