package session

type Role string

const (
	RoleCustomer Role = "customer"
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleEmployee, RoleAdmin:
		return true
	}
	return false
}

func (r Role) LoginPath() string {
	if !r.Valid() {
		return "/"
	}
	return "/" + string(r) + "/login"
}
