package auth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ryemyster/shaleyeah-toolkernel/auth"
	"github.com/ryemyster/shaleyeah-toolkernel/registry"
)

func TestAnalystDeniedDecision(t *testing.T) {
	a := auth.New()
	decision := a.Check("decision.analyze", auth.Identity{UserID: "u1", Role: auth.RoleAnalyst})
	require.False(t, decision.Allowed)
	require.Equal(t, []registry.Permission{registry.PermExecuteDecisions}, decision.RequiredPermissions)
	require.Equal(t, auth.RoleExecutive, decision.RequiredRole)
	require.Contains(t, decision.Reason, "analyst")
}

func TestExecutiveAllowedDecision(t *testing.T) {
	a := auth.New()
	decision := a.Check("decision.analyze", auth.Identity{UserID: "u2", Role: auth.RoleExecutive})
	require.True(t, decision.Allowed)
}

func TestExplicitGrantOverridesRoleDefault(t *testing.T) {
	a := auth.New()
	decision := a.Check("decision.analyze", auth.Identity{
		UserID:      "u3",
		Role:        auth.RoleAnalyst,
		Permissions: []registry.Permission{registry.PermExecuteDecisions},
	})
	require.True(t, decision.Allowed)
}

func TestDisabledAuthorizerAllowsEverything(t *testing.T) {
	a := auth.NewDisabled()
	decision := a.Check("admin.reset", auth.Identity{UserID: "anon", Role: auth.RoleAnalyst})
	require.True(t, decision.Allowed)
}

func TestAdminHasAllPermissions(t *testing.T) {
	a := auth.New()
	for _, tool := range []string{"geowiz.analyze", "reporter.analyze", "decision.analyze", "admin.reset"} {
		decision := a.Check(tool, auth.Identity{UserID: "root", Role: auth.RoleAdmin})
		require.True(t, decision.Allowed, tool)
	}
}
