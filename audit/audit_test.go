package audit_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ryemyster/shaleyeah-toolkernel/audit"
)

func TestDisabledAuditorCreatesNothing(t *testing.T) {
	dir := t.TempDir() + "/never-created"
	a := audit.NewDisabled()
	a.Record(context.Background(), audit.Entry{Tool: "geowiz.analyze", Action: audit.ActionRequest})
	_, err := os.Stat(dir)
	require.True(t, os.IsNotExist(err))
}

func TestRedactionOnWrite(t *testing.T) {
	dir := t.TempDir()
	sink := audit.NewFileSink(dir)
	a := audit.New(sink)

	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	a.Record(context.Background(), audit.Entry{
		Tool:      "geowiz.analyze",
		Action:    audit.ActionRequest,
		UserID:    "u1",
		SessionID: "s1",
		Role:      "analyst",
		Timestamp: now,
		Parameters: map[string]any{
			"basin":  "Permian",
			"apiKey": "sk-live-123",
			"nested": map[string]any{
				"token": "xyz",
				"safe":  "ok",
			},
		},
	})

	entries, err := a.Entries(context.Background(), "2026-01-15")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	params := entries[0].Parameters
	require.Equal(t, "Permian", params["basin"])
	require.Equal(t, "[REDACTED]", params["apiKey"])
	nested := params["nested"].(map[string]any)
	require.Equal(t, "[REDACTED]", nested["token"])
	require.Equal(t, "ok", nested["safe"])
}

func TestEntriesForMissingDateReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	sink := audit.NewFileSink(dir)
	a := audit.New(sink)
	entries, err := a.Entries(context.Background(), "2020-01-01")
	require.NoError(t, err)
	require.Empty(t, entries)
}
