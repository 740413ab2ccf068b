package anomaly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_AddAndMerge(t *testing.T) {
	var r Report
	r.Add(NewLedgerGap("product p1", "2026-08-27", "2026-08-30"))

	var other Report
	other.Add(NewAllocationRoundingLoss("d1", 1))
	other.Add(NewNegativeReceivable("d2", "cash", "-400"))

	r.Merge(&other)
	r.Merge(nil)

	assert.Equal(t, 3, r.Len())
	assert.Len(t, r.All(), 3)
}

func TestReport_ByKind(t *testing.T) {
	var r Report
	r.Add(NewNegativeReceivable("d1", "cash", "-400"))
	r.Add(NewNegativeReceivable("d1", "cylinders", "-4"))
	r.Add(NewInsufficientInventory("p1", 5))

	require.Len(t, r.ByKind(KindNegativeReceivable), 2)
	require.Len(t, r.ByKind(KindInsufficientInventory), 1)
	assert.Empty(t, r.ByKind(KindLedgerGap))
}

func TestReport_HasWarnings(t *testing.T) {
	var r Report
	assert.False(t, r.HasWarnings())

	// Rounding loss is expected arithmetic, not a data problem.
	r.Add(NewAllocationRoundingLoss("d1", 2))
	assert.False(t, r.HasWarnings())

	r.Add(NewLedgerGap("size s1", "never", "2026-08-30"))
	assert.True(t, r.HasWarnings())
}

func TestAnomaly_Severities(t *testing.T) {
	assert.Equal(t, SeverityWarning, NewLedgerGap("e", "a", "b").Severity)
	assert.Equal(t, SeverityWarning, NewNegativeReceivable("d", "cash", "-1").Severity)
	assert.Equal(t, SeverityWarning, NewInsufficientInventory("p", 1).Severity)
	assert.Equal(t, SeverityInfo, NewAllocationRoundingLoss("d", 1).Severity)
}

func TestAnomaly_WithDetail(t *testing.T) {
	a := Anomaly{Kind: KindLedgerGap, Severity: SeverityWarning, Message: "m"}
	a = a.WithDetail("days", 3)

	require.NotNil(t, a.Details)
	assert.Equal(t, 3, a.Details["days"])
}
