package access

// Role is a tenant user's access role. It controls which operations a caller
// may perform and which rows a listing query may return. Access roles are
// unrelated to billing plans (see internal/billing); the two must never be
// interchanged.
type Role string

const (
	RoleOwner      Role = "owner"
	RoleManager    Role = "manager"
	RoleAdmin      Role = "admin"
	RoleEmployee   Role = "employee"
	RoleTechnician Role = "technician"
	RoleClient     Role = "client"
)

// Valid reports whether r is one of the known access roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleManager, RoleAdmin, RoleEmployee, RoleTechnician, RoleClient:
		return true
	default:
		return false
	}
}

// Managerial is the allow-list for tenant-wide mutations (create/update/delete
// of business entities).
func Managerial() []Role {
	return []Role{RoleOwner, RoleManager, RoleAdmin}
}

// Administrative is the allow-list for tenant and user management.
func Administrative() []Role {
	return []Role{RoleOwner, RoleAdmin}
}

// FieldStaff is the allow-list for operations performed by assigned workers
// (e.g. transitioning the status of their own work orders).
func FieldStaff() []Role {
	return []Role{RoleTechnician, RoleEmployee}
}
