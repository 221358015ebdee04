package profitability

import (
	"math"

	"yieldista/config"
	"yieldista/internal/models"
)

// Calculator derives yield and risk metrics for a subject property against
// its comparable market. Pure computation: no I/O, inputs never mutated.
// Callers must guarantee Price > 0; the calculator does not re-check it.
type Calculator struct {
	cfg config.AnalysisConfig
}

func NewCalculator(cfg config.AnalysisConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

// Compute estimates the investment performance of buying the property and
// letting it at the market's average rent.
func (c *Calculator) Compute(property *models.Property, market *models.MarketSummary) models.ProfitabilityResult {
	monthlyRent := market.AveragePrice
	annualRent := monthlyRent * 12

	grossYield := float64(annualRent) / float64(property.Price) * 100

	monthlyExpenses := c.monthlyExpenses(monthlyRent)
	monthlyMortgage := c.monthlyMortgage(property.Price)

	netAnnualRent := float64(annualRent) - 12*float64(monthlyExpenses+monthlyMortgage)
	netYield := math.Max(0, netAnnualRent/float64(property.Price)*100)

	grossYield = round2(grossYield)
	netYield = round2(netYield)

	return models.ProfitabilityResult{
		PropertyID:      property.ID,
		PurchasePrice:   property.Price,
		EstimatedRent:   monthlyRent,
		GrossYield:      grossYield,
		NetYield:        netYield,
		MonthlyExpenses: monthlyExpenses,
		MonthlyMortgage: monthlyMortgage,
		Recommendation:  c.recommend(netYield),
		RiskLevel:       assessRisk(grossYield, netYield, market.SampleSize),
		SampleSize:      market.SampleSize,
	}
}

// monthlyExpenses sums the fixed holding costs plus the rent-proportional
// vacancy and maintenance reserves.
func (c *Calculator) monthlyExpenses(monthlyRent int) int {
	e := c.cfg.Expenses
	expenses := float64(e.PropertyManagementMonthly + e.InsuranceMonthly + e.PropertyTaxMonthly + e.CommunityFees)
	expenses += float64(monthlyRent) * e.VacancyRate
	expenses += float64(monthlyRent) * e.MaintenanceRate
	return int(math.Round(expenses))
}

// monthlyMortgage is the standard amortizing-loan payment for the financed
// share of the purchase. Zero when nothing is financed or the rate is zero.
func (c *Calculator) monthlyMortgage(purchasePrice int) int {
	m := c.cfg.Mortgage

	loanAmount := float64(purchasePrice) * (1 - m.DownPaymentRatio)
	monthlyRate := m.AnnualInterestRate / 12
	payments := float64(m.TermYears * 12)

	if loanAmount <= 0 || monthlyRate == 0 {
		return 0
	}

	factor := math.Pow(1+monthlyRate, payments)
	payment := loanAmount * monthlyRate * factor / (factor - 1)
	return int(math.Round(payment))
}

func (c *Calculator) recommend(netYield float64) models.Recommendation {
	t := c.cfg.Thresholds
	switch {
	case netYield >= t.Excellent:
		return models.RecommendationExcellent
	case netYield >= t.Good:
		return models.RecommendationGood
	case netYield >= t.Fair:
		return models.RecommendationFair
	default:
		return models.RecommendationPoor
	}
}

// assessRisk treats a thin sample as untrustworthy, an outsized gross yield
// or starved net yield as a warning sign, and a solid net yield on a
// plausible gross yield as safe.
func assessRisk(grossYield, netYield float64, sampleSize int) models.RiskLevel {
	switch {
	case sampleSize < 3:
		return models.RiskHigh
	case grossYield > 8 || netYield < 1:
		return models.RiskHigh
	case netYield >= 3 && grossYield <= 7:
		return models.RiskLow
	default:
		return models.RiskMedium
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
