package domain

// Role enumerates caller roles, in wire tokens.
type Role string

const (
	RoleRequester     Role = "USUARIO"
	RoleTechnician    Role = "TECNICO"
	RoleAdministrator Role = "ADMINISTRADOR"
)

// CanTransition reports whether the role may change ticket status at all.
// Requesters never transition tickets; the per-status detail lives in the
// lifecycle permission matrix.
func (r Role) CanTransition() bool {
	return r == RoleTechnician || r == RoleAdministrator
}
