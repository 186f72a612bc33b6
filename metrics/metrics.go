// Package metrics exposes prometheus instrumentation for the lending
// engine. Grounded on observability/metrics/potso.go's sync.Once-guarded
// singleton registry pattern.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// LendingMetrics collects the counters and gauges a host wires into engine
// call sites.
type LendingMetrics struct {
	supplyTotal        *prometheus.CounterVec
	withdrawTotal      *prometheus.CounterVec
	borrowTotal        *prometheus.CounterVec
	repayTotal         *prometheus.CounterVec
	liquidationTotal   *prometheus.CounterVec
	badDebtTotal       *prometheus.CounterVec
	flashLoanTotal     *prometheus.CounterVec
	operationErrors    *prometheus.CounterVec
	marketBorrowRate   *prometheus.GaugeVec
	marketUtilisation  *prometheus.GaugeVec
	marketSupplyAssets *prometheus.GaugeVec
	marketBorrowAssets *prometheus.GaugeVec
}

var (
	once     sync.Once
	registry *LendingMetrics
)

// Lending returns the process-wide singleton, constructing and registering
// it with the default prometheus registry on first use.
func Lending() *LendingMetrics {
	once.Do(func() {
		registry = &LendingMetrics{
			supplyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "lending_supply_total",
				Help: "Count of successful Supply operations by market.",
			}, []string{"market_id"}),
			withdrawTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "lending_withdraw_total",
				Help: "Count of successful Withdraw operations by market.",
			}, []string{"market_id"}),
			borrowTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "lending_borrow_total",
				Help: "Count of successful Borrow operations by market.",
			}, []string{"market_id"}),
			repayTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "lending_repay_total",
				Help: "Count of successful Repay operations by market.",
			}, []string{"market_id"}),
			liquidationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "lending_liquidation_total",
				Help: "Count of successful liquidations by market.",
			}, []string{"market_id"}),
			badDebtTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "lending_bad_debt_total",
				Help: "Count of bad-debt socialization events by market.",
			}, []string{"market_id"}),
			flashLoanTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "lending_flash_loan_total",
				Help: "Count of successful flash loans by market.",
			}, []string{"market_id"}),
			operationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "lending_operation_errors_total",
				Help: "Count of operation failures by market and error code.",
			}, []string{"market_id", "error"}),
			marketBorrowRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "lending_market_borrow_rate_per_second",
				Help: "Most recently observed per-second WAD-scaled borrow rate, by market.",
			}, []string{"market_id"}),
			marketUtilisation: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "lending_market_utilisation",
				Help: "Most recently observed WAD-scaled utilisation, by market.",
			}, []string{"market_id"}),
			marketSupplyAssets: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "lending_market_total_supply_assets",
				Help: "Current total_supply_assets, by market (float64 approximation of a u128).",
			}, []string{"market_id"}),
			marketBorrowAssets: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "lending_market_total_borrow_assets",
				Help: "Current total_borrow_assets, by market (float64 approximation of a u128).",
			}, []string{"market_id"}),
		}
		prometheus.MustRegister(
			registry.supplyTotal,
			registry.withdrawTotal,
			registry.borrowTotal,
			registry.repayTotal,
			registry.liquidationTotal,
			registry.badDebtTotal,
			registry.flashLoanTotal,
			registry.operationErrors,
			registry.marketBorrowRate,
			registry.marketUtilisation,
			registry.marketSupplyAssets,
			registry.marketBorrowAssets,
		)
	})
	return registry
}

func (m *LendingMetrics) IncSupply(marketID string) {
	if m == nil {
		return
	}
	m.supplyTotal.WithLabelValues(marketID).Inc()
}

func (m *LendingMetrics) IncWithdraw(marketID string) {
	if m == nil {
		return
	}
	m.withdrawTotal.WithLabelValues(marketID).Inc()
}

func (m *LendingMetrics) IncBorrow(marketID string) {
	if m == nil {
		return
	}
	m.borrowTotal.WithLabelValues(marketID).Inc()
}

func (m *LendingMetrics) IncRepay(marketID string) {
	if m == nil {
		return
	}
	m.repayTotal.WithLabelValues(marketID).Inc()
}

func (m *LendingMetrics) IncLiquidation(marketID string) {
	if m == nil {
		return
	}
	m.liquidationTotal.WithLabelValues(marketID).Inc()
}

func (m *LendingMetrics) IncBadDebt(marketID string) {
	if m == nil {
		return
	}
	m.badDebtTotal.WithLabelValues(marketID).Inc()
}

func (m *LendingMetrics) IncFlashLoan(marketID string) {
	if m == nil {
		return
	}
	m.flashLoanTotal.WithLabelValues(marketID).Inc()
}

func (m *LendingMetrics) IncOperationError(marketID, errCode string) {
	if m == nil {
		return
	}
	if errCode == "" {
		errCode = "unknown"
	}
	m.operationErrors.WithLabelValues(marketID, errCode).Inc()
}

func (m *LendingMetrics) SetBorrowRate(marketID string, ratePerSecondWad float64) {
	if m == nil {
		return
	}
	m.marketBorrowRate.WithLabelValues(marketID).Set(ratePerSecondWad)
}

func (m *LendingMetrics) SetUtilisation(marketID string, utilisationWad float64) {
	if m == nil {
		return
	}
	m.marketUtilisation.WithLabelValues(marketID).Set(utilisationWad)
}

func (m *LendingMetrics) SetSupplyAssets(marketID string, assets float64) {
	if m == nil {
		return
	}
	m.marketSupplyAssets.WithLabelValues(marketID).Set(assets)
}

func (m *LendingMetrics) SetBorrowAssets(marketID string, assets float64) {
	if m == nil {
		return
	}
	m.marketBorrowAssets.WithLabelValues(marketID).Set(assets)
}
