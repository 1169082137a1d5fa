// Package domain defines operator authentication and per-tenant authorization.
//
// Operators authenticate with a username and secret and receive a bearer token.
// Each operator holds memberships in one or more tenants; a membership carries a
// role and an explicit permission set.
package domain

// Role is the coarse grant an operator holds within a tenant.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleStaff  Role = "staff"
	RoleViewer Role = "viewer"
)

// Permission gates a single operator API capability.
type Permission string

const (
	PermViewRecords      Permission = "view_records"
	PermIngestFlows      Permission = "ingest_flows"
	PermManageDossiers   Permission = "manage_dossiers"
	PermApproveDossiers  Permission = "approve_dossiers"
	PermManageAlerts     Permission = "manage_alerts"
	PermRunRetention     Permission = "run_retention"
	PermVerifySignatures Permission = "verify_signatures"
	PermManageTenant     Permission = "manage_tenant"
)

// AllPermissions lists every permission in a stable order.
var AllPermissions = []Permission{
	PermViewRecords,
	PermIngestFlows,
	PermManageDossiers,
	PermApproveDossiers,
	PermManageAlerts,
	PermRunRetention,
	PermVerifySignatures,
	PermManageTenant,
}

// DefaultPermissions returns the permissions granted by a role when a
// membership is created without an explicit set.
func DefaultPermissions(role Role) []Permission {
	switch role {
	case RoleAdmin:
		return append([]Permission(nil), AllPermissions...)
	case RoleStaff:
		return []Permission{PermViewRecords, PermIngestFlows, PermManageDossiers, PermManageAlerts}
	case RoleViewer:
		return []Permission{PermViewRecords}
	default:
		return nil
	}
}

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	return r == RoleAdmin || r == RoleStaff || r == RoleViewer
}

// ValidPermission reports whether p is a known permission.
func ValidPermission(p Permission) bool {
	for _, known := range AllPermissions {
		if known == p {
			return true
		}
	}
	return false
}
