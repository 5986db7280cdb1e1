// Package auth evaluates permission for a (tool, identity) pair against the
// fixed role-permission matrix.
package auth

import (
	"fmt"

	"github.com/ryemyster/shaleyeah-toolkernel/registry"
)

// Role is one of the four fixed roles an Identity may hold.
type Role string

const (
	RoleAnalyst   Role = "analyst"
	RoleEngineer  Role = "engineer"
	RoleExecutive Role = "executive"
	RoleAdmin     Role = "admin"
)

// Identity identifies the caller on whose behalf a tool call runs.
type Identity struct {
	UserID       string                  `json:"userId"`
	Role         Role                    `json:"role"`
	Permissions  []registry.Permission   `json:"permissions,omitempty"`
	Organization string                  `json:"organization,omitempty"`
	DisplayName  string                  `json:"displayName,omitempty"`
}

// roleMatrix is the fixed, process-wide role->default-permissions table.
// Never mutated after package init.
var roleMatrix = map[Role]map[registry.Permission]struct{}{
	RoleAnalyst: set(registry.PermReadAnalysis),
	RoleEngineer: set(
		registry.PermReadAnalysis,
		registry.PermWriteReports,
	),
	RoleExecutive: set(
		registry.PermReadAnalysis,
		registry.PermWriteReports,
		registry.PermExecuteDecisions,
	),
	RoleAdmin: set(
		registry.PermReadAnalysis,
		registry.PermWriteReports,
		registry.PermExecuteDecisions,
		registry.PermAdminServers,
		registry.PermAdminUsers,
	),
}

// roleOrder lists roles from least to most privileged, used to compute the
// minimal role for a Decision's RequiredRole.
var roleOrder = []Role{RoleAnalyst, RoleEngineer, RoleExecutive, RoleAdmin}

func set(perms ...registry.Permission) map[registry.Permission]struct{} {
	m := make(map[registry.Permission]struct{}, len(perms))
	for _, p := range perms {
		m[p] = struct{}{}
	}
	return m
}

// EffectivePermissions is the set-union of the identity's role defaults and
// its explicit grants.
func EffectivePermissions(id Identity) map[registry.Permission]struct{} {
	out := make(map[registry.Permission]struct{})
	for p := range roleMatrix[id.Role] {
		out[p] = struct{}{}
	}
	for _, p := range id.Permissions {
		out[p] = struct{}{}
	}
	return out
}

// Decision is the outcome of evaluating a permission check.
type Decision struct {
	Allowed              bool                  `json:"allowed"`
	Reason               string                `json:"reason,omitempty"`
	RequiredPermissions  []registry.Permission `json:"requiredPermissions,omitempty"`
	RequiredRole         Role                  `json:"requiredRole,omitempty"`
}

// Authorizer evaluates (tool, identity) permission checks. Disabled mode
// allows every call unconditionally, for demo configurations.
type Authorizer struct {
	disabled bool
}

// New returns an enabled Authorizer.
func New() *Authorizer { return &Authorizer{} }

// NewDisabled returns an Authorizer that allows every call unconditionally.
func NewDisabled() *Authorizer { return &Authorizer{disabled: true} }

// Check evaluates whether identity may call toolName.
func (a *Authorizer) Check(toolName string, id Identity) Decision {
	if a.disabled {
		return Decision{Allowed: true}
	}
	required := registry.RequiredPermission(toolName)
	effective := EffectivePermissions(id)
	if _, ok := effective[required]; ok {
		return Decision{Allowed: true}
	}
	return Decision{
		Allowed:             false,
		Reason:              fmt.Sprintf("role %s lacks %s", id.Role, required),
		RequiredPermissions: []registry.Permission{required},
		RequiredRole:        minimalRoleFor(required),
	}
}

// minimalRoleFor returns the least-privileged role whose default permission
// set contains required.
func minimalRoleFor(required registry.Permission) Role {
	for _, role := range roleOrder {
		if _, ok := roleMatrix[role][required]; ok {
			return role
		}
	}
	return RoleAdmin
}
