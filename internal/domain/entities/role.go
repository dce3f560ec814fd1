package entities

// Role is the closed set of portal principals.
type Role string

const (
	RoleCustomer Role = "Customer"
	RoleEmployee Role = "Employee"
)

// Capability names one privileged action.
type Capability string

const (
	CapabilityCreatePayment   Capability = "payments:create"
	CapabilityListOwnPayments Capability = "payments:list-own"
	CapabilityListAllPayments Capability = "payments:list-all"
	CapabilityVerifyPayment   Capability = "payments:verify"
	CapabilitySubmitPayment   Capability = "payments:submit"
	CapabilityAuditPayment    Capability = "payments:audit"
)

var roleCapabilities = map[Role]map[Capability]struct{}{
	RoleCustomer: {
		CapabilityCreatePayment:   {},
		CapabilityListOwnPayments: {},
	},
	RoleEmployee: {
		CapabilityListAllPayments: {},
		CapabilityVerifyPayment:   {},
		CapabilitySubmitPayment:   {},
		CapabilityAuditPayment:    {},
	},
}

// ParseRole maps a stored or claimed role onto the enum.
// Records created before roles existed carry an empty role and load as Customer.
func ParseRole(s string) (Role, bool) {
	if s == "" {
		return RoleCustomer, true
	}
	if r := Role(s); r.Valid() {
		return r, true
	}
	return "", false
}

// Valid reports whether r is a member of the enum.
func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Can reports whether r holds capability c.
func (r Role) Can(c Capability) bool {
	caps, ok := roleCapabilities[r]
	if !ok {
		return false
	}
	_, ok = caps[c]
	return ok
}
