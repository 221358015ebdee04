package models

import "time"

// Recommendation grades an investment by its net yield.
type Recommendation string

const (
	RecommendationExcellent Recommendation = "excellent"
	RecommendationGood      Recommendation = "good"
	RecommendationFair      Recommendation = "fair"
	RecommendationPoor      Recommendation = "poor"
)

// RiskLevel is a confidence signal derived from sample size and yield spread.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ProfitabilityResult is the computed outcome for one property. All monetary
// fields are whole euros; yields are rounded to two decimals.
type ProfitabilityResult struct {
	PropertyID      string         `json:"property_id"`
	PurchasePrice   int            `json:"purchase_price"`
	EstimatedRent   int            `json:"estimated_rent"`
	GrossYield      float64        `json:"gross_yield"`
	NetYield        float64        `json:"net_yield"`
	MonthlyExpenses int            `json:"monthly_expenses"`
	MonthlyMortgage int            `json:"monthly_mortgage"`
	Recommendation  Recommendation `json:"recommendation"`
	RiskLevel       RiskLevel      `json:"risk_level"`
	SampleSize      int            `json:"sample_size"`
}

// OutcomeStatus is the terminal state of one property's analysis.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeNoData  OutcomeStatus = "no_data"
	OutcomeError   OutcomeStatus = "error"
)

// Outcome pairs a property with the result (or failure) of its analysis.
type Outcome struct {
	RunID    string               `json:"run_id"`
	Location string               `json:"location,omitempty"`
	Property *Property            `json:"property"`
	Status   OutcomeStatus        `json:"status"`
	Result   *ProfitabilityResult `json:"result,omitempty"`
	Market   *MarketSummary       `json:"market,omitempty"`
	Err      string               `json:"error,omitempty"`
}

// AnalysisRecord is the persisted form of a successful or failed outcome.
type AnalysisRecord struct {
	ID              uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	RunID           string    `json:"run_id" gorm:"index"`
	PropertyID      string    `json:"property_id" gorm:"index"`
	PropertyURL     string    `json:"property_url"`
	Location        string    `json:"location"`
	Status          string    `json:"status"`
	PurchasePrice   int       `json:"purchase_price"`
	EstimatedRent   int       `json:"estimated_rent"`
	GrossYield      float64   `json:"gross_yield"`
	NetYield        float64   `json:"net_yield"`
	MonthlyExpenses int       `json:"monthly_expenses"`
	MonthlyMortgage int       `json:"monthly_mortgage"`
	Recommendation  string    `json:"recommendation"`
	RiskLevel       string    `json:"risk_level"`
	SampleSize      int       `json:"sample_size"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewAnalysisRecord flattens an outcome into its persisted form.
func NewAnalysisRecord(o Outcome) *AnalysisRecord {
	record := &AnalysisRecord{
		RunID:    o.RunID,
		Location: o.Location,
		Status:   string(o.Status),
	}
	if o.Property != nil {
		record.PropertyID = o.Property.ID
		record.PropertyURL = o.Property.URL
		if o.Location == "" {
			record.Location = o.Property.Location
		}
	}
	if o.Result != nil {
		record.PurchasePrice = o.Result.PurchasePrice
		record.EstimatedRent = o.Result.EstimatedRent
		record.GrossYield = o.Result.GrossYield
		record.NetYield = o.Result.NetYield
		record.MonthlyExpenses = o.Result.MonthlyExpenses
		record.MonthlyMortgage = o.Result.MonthlyMortgage
		record.Recommendation = string(o.Result.Recommendation)
		record.RiskLevel = string(o.Result.RiskLevel)
		record.SampleSize = o.Result.SampleSize
	}
	return record
}

// RunStats summarizes persisted outcomes for the stats endpoint.
type RunStats struct {
	TotalAnalyzed  int     `json:"total_analyzed"`
	TotalSuccess   int     `json:"total_success"`
	TotalNoData    int     `json:"total_no_data"`
	TotalErrors    int     `json:"total_errors"`
	AvgGrossYield  float64 `json:"avg_gross_yield"`
	AvgNetYield    float64 `json:"avg_net_yield"`
	ExcellentShare float64 `json:"excellent_share"`
	HighRiskShare  float64 `json:"high_risk_share"`
}
