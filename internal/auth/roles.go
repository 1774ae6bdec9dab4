package auth

// Role enumerates caller roles encoded in bearer tokens.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAgent    Role = "AGENT"
	RoleOps      Role = "OPS"
)
