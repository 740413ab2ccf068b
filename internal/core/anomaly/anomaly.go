// Package anomaly defines the non-fatal findings the reconciliation
// engines report alongside their results. Anomalies never abort a unit
// of work; callers decide whether to surface them to an operator.
package anomaly

import (
	"fmt"
)

// Kind identifies the class of finding.
type Kind string

const (
	// KindLedgerGap - a recomputation's predecessor date was never
	// computed; the missing day was treated as zero and later days may
	// be understated.
	KindLedgerGap Kind = "LEDGER_GAP"

	// KindNegativeReceivable - a driver's closing cash or cylinder
	// balance went negative. The value is persisted unclamped (a driver
	// can genuinely overpay).
	KindNegativeReceivable Kind = "NEGATIVE_RECEIVABLE"

	// KindInsufficientInventory - FIFO consumption exceeded available
	// batch quantity; the shortfall contributed zero cost and COGS is
	// understated.
	KindInsufficientInventory Kind = "INSUFFICIENT_INVENTORY"

	// KindAllocationRoundingLoss - proportional or equal size
	// distribution did not sum to the driver total; the remainder was
	// dropped, not redistributed.
	KindAllocationRoundingLoss Kind = "ALLOCATION_ROUNDING_LOSS"
)

// Severity ranks operator attention. Informational findings are expected
// side effects of the math; warnings indicate data that may be misleading.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Anomaly is a single finding tied to the unit of work that produced it.
type Anomaly struct {
	Kind     Kind           `json:"kind"`
	Severity Severity       `json:"severity"`
	Message  string         `json:"message"`
	Details  map[string]any `json:"details,omitempty"`
}

func (a Anomaly) String() string {
	return fmt.Sprintf("%s [%s]: %s", a.Kind, a.Severity, a.Message)
}

// WithDetail adds a key-value pair to the anomaly details.
func (a Anomaly) WithDetail(key string, value any) Anomaly {
	if a.Details == nil {
		a.Details = make(map[string]any)
	}
	a.Details[key] = value
	return a
}

// NewLedgerGap reports a missing predecessor balance.
func NewLedgerGap(entity string, lastComputed, requested string) Anomaly {
	return Anomaly{
		Kind:     KindLedgerGap,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("ledger for %s was last computed on %s, requested %s; missing days treated as zero", entity, lastComputed, requested),
		Details: map[string]any{
			"entity":        entity,
			"last_computed": lastComputed,
			"requested":     requested,
		},
	}
}

// NewNegativeReceivable reports a negative closing receivable.
func NewNegativeReceivable(driverID, field, value string) Anomaly {
	return Anomaly{
		Kind:     KindNegativeReceivable,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("driver %s closing %s is negative (%s); persisted unclamped", driverID, field, value),
		Details: map[string]any{
			"driver_id": driverID,
			"field":     field,
			"value":     value,
		},
	}
}

// NewInsufficientInventory reports a FIFO shortfall.
func NewInsufficientInventory(productID string, shortfall int64) Anomaly {
	return Anomaly{
		Kind:     KindInsufficientInventory,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("product %s: %d units sold beyond purchased batches; COGS understated", productID, shortfall),
		Details: map[string]any{
			"product_id": productID,
			"shortfall":  shortfall,
		},
	}
}

// NewAllocationRoundingLoss reports quantity lost to floor division.
func NewAllocationRoundingLoss(driverID string, lost int64) Anomaly {
	return Anomaly{
		Kind:     KindAllocationRoundingLoss,
		Severity: SeverityInfo,
		Message:  fmt.Sprintf("driver %s: %d cylinders lost to rounding in size distribution", driverID, lost),
		Details: map[string]any{
			"driver_id": driverID,
			"lost":      lost,
		},
	}
}

// Report accumulates anomalies across a unit of work or a whole batch run.
// The zero value is ready to use.
type Report struct {
	anomalies []Anomaly
}

// Add appends findings to the report.
func (r *Report) Add(a ...Anomaly) {
	r.anomalies = append(r.anomalies, a...)
}

// Merge absorbs another report.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.anomalies = append(r.anomalies, other.anomalies...)
}

// All returns the accumulated anomalies in insertion order.
func (r *Report) All() []Anomaly {
	return r.anomalies
}

// Len returns the number of findings.
func (r *Report) Len() int {
	return len(r.anomalies)
}

// HasWarnings reports whether any finding is warning-severity.
func (r *Report) HasWarnings() bool {
	for _, a := range r.anomalies {
		if a.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

// ByKind returns findings of the given kind.
func (r *Report) ByKind(kind Kind) []Anomaly {
	var out []Anomaly
	for _, a := range r.anomalies {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}
