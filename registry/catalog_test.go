package registry_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ryemyster/shaleyeah-toolkernel/registry"
)

func TestDefaultIsIdempotent(t *testing.T) {
	a, err := registry.Default()
	require.NoError(t, err)
	b, err := registry.Default()
	require.NoError(t, err)
	require.Equal(t, a.ListServers(nil), b.ListServers(nil))
}

func TestToolClassification(t *testing.T) {
	r, err := registry.Default()
	require.NoError(t, err)

	tool, ok := r.Tool("geowiz.analyze")
	require.True(t, ok)
	require.Equal(t, registry.ToolTypeQuery, tool.Type)
	require.True(t, tool.ReadOnly)
	require.False(t, tool.RequiresConfirmation)

	for _, name := range []string{"reporter.analyze", "decision.analyze"} {
		tool, ok := r.Tool(name)
		require.True(t, ok, name)
		require.Equal(t, registry.ToolTypeCommand, tool.Type)
		require.False(t, tool.ReadOnly)
		require.True(t, tool.RequiresConfirmation)
	}
}

func TestToolResolvesNonCanonicalVerb(t *testing.T) {
	r, err := registry.Default()
	require.NoError(t, err)
	tool, ok := r.Tool("decision.make_recommendation")
	require.True(t, ok)
	require.Equal(t, "decision", tool.Server)
}

func TestRequiredPermission(t *testing.T) {
	require.Equal(t, registry.PermWriteReports, registry.RequiredPermission("reporter.analyze"))
	require.Equal(t, registry.PermExecuteDecisions, registry.RequiredPermission("decision.analyze"))
	require.Equal(t, registry.PermReadAnalysis, registry.RequiredPermission("geowiz.analyze"))
	require.Equal(t, registry.PermReadAnalysis, registry.RequiredPermission("totally-unknown-server.verb"))
	require.Equal(t, registry.PermAdminServers, registry.RequiredPermission("admin.reset"))
}

func TestFindCapabilityCaseInsensitive(t *testing.T) {
	r, err := registry.Default()
	require.NoError(t, err)
	servers := r.FindCapability("NPV")
	require.Len(t, servers, 1)
	require.Equal(t, "econobot", servers[0].Name)
}

func TestResolveServerAcceptsBareOrDotted(t *testing.T) {
	r, err := registry.Default()
	require.NoError(t, err)
	s1, ok := r.ResolveServer("geowiz")
	require.True(t, ok)
	s2, ok := r.ResolveServer("geowiz.analyze")
	require.True(t, ok)
	require.Equal(t, s1, s2)
}

func TestListServersFilterByDomain(t *testing.T) {
	r, err := registry.Default()
	require.NoError(t, err)
	servers := r.ListServers(&registry.ServerFilter{Domain: "economics"})
	require.Len(t, servers, 1)
	require.Equal(t, "econobot", servers[0].Name)
}

func TestValidateArgsSchemaFailureIsClassifiablePermanent(t *testing.T) {
	r, err := registry.Default()
	require.NoError(t, err)
	err = r.SetArgSchema("geowiz.analyze", map[string]any{
		"type":     "object",
		"required": []any{"basin"},
	})
	require.NoError(t, err)

	err = r.ValidateArgs("geowiz.analyze", map[string]any{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "schema validation")

	err = r.ValidateArgs("geowiz.analyze", map[string]any{"basin": "Permian"})
	require.NoError(t, err)
}
