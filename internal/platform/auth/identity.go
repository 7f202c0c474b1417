package auth

import (
	"context"
	"strings"
)

// Role constants used throughout the API when checking authorisation boundaries.
const (
	RoleCustomer = "customer"
	RoleVendor   = "vendor"
	RoleAdmin    = "admin"
)

// Identity captures the authenticated principal extracted from a bearer token.
type Identity struct {
	UID   string
	Email string
	Role  string
}

// HasRole reports whether the identity carries the requested role (case-insensitive).
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return false
	}
	return strings.EqualFold(i.Role, role)
}

// HasAnyRole reports whether the identity carries any of the provided roles.
func (i *Identity) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if i.HasRole(role) {
			return true
		}
	}
	return false
}

// Permissions resolves the identity into the capability set handlers and
// services consult, so role strings are compared in exactly one place.
func (i *Identity) Permissions() Permissions {
	if i == nil {
		return Permissions{}
	}
	return Permissions{
		uid:      strings.TrimSpace(i.UID),
		customer: i.HasRole(RoleCustomer),
		vendor:   i.HasRole(RoleVendor),
		admin:    i.HasRole(RoleAdmin),
	}
}

// Permissions is the capability view of an identity. Order-scoped checks take
// the owning customer id and the vendor ids participating in the order.
type Permissions struct {
	uid      string
	customer bool
	vendor   bool
	admin    bool
}

// UID returns the principal id the permissions were resolved for.
func (p Permissions) UID() string { return p.uid }

// IsAdmin reports whether the principal holds the admin role.
func (p Permissions) IsAdmin() bool { return p.admin }

// IsVendor reports whether the principal holds the vendor role.
func (p Permissions) IsVendor() bool { return p.vendor }

// IsCustomer reports whether the principal holds the customer role.
func (p Permissions) IsCustomer() bool { return p.customer }

// CanViewOrder reports whether the principal may read the given order.
func (p Permissions) CanViewOrder(customerID string, vendorIDs []string) bool {
	if p.admin {
		return true
	}
	if p.uid == "" {
		return false
	}
	if p.customer && p.uid == customerID {
		return true
	}
	if p.vendor {
		for _, vendorID := range vendorIDs {
			if vendorID == p.uid {
				return true
			}
		}
	}
	return false
}

// CanCancelOrder reports whether the principal may cancel the given order.
func (p Permissions) CanCancelOrder(customerID string) bool {
	if p.admin {
		return true
	}
	return p.customer && p.uid != "" && p.uid == customerID
}

// CanUpdateStatus reports whether the principal may force main-status transitions.
func (p Permissions) CanUpdateStatus() bool {
	return p.admin || p.vendor
}

// CanActForVendor reports whether the principal may update the sub-order of
// the given vendor.
func (p Permissions) CanActForVendor(vendorID string) bool {
	if p.admin {
		return true
	}
	return p.vendor && p.uid != "" && p.uid == vendorID
}

// CanSeeInternalNotes reports whether internal annotations may be projected.
func (p Permissions) CanSeeInternalNotes() bool { return p.admin }

// CanSeeVendorNotes reports whether vendor annotations may be projected.
func (p Permissions) CanSeeVendorNotes() bool { return p.admin || p.vendor }

type contextKey string

const identityContextKey contextKey = "github.com/vendorhub/api/internal/platform/auth/identity"

// WithIdentity stores the identity within the context for downstream handlers.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext retrieves the identity previously stored in context.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}
