package models

// LoanTerm is the amortization term of the requested loan.
type LoanTerm string

const (
	Term10Year LoanTerm = "10yr"
	Term15Year LoanTerm = "15yr"
	Term20Year LoanTerm = "20yr"
	Term25Year LoanTerm = "25yr"
	Term30Year LoanTerm = "30yr"
)

// Years returns the term length in years, 0 for unrecognized terms.
func (t LoanTerm) Years() int {
	switch t {
	case Term10Year:
		return 10
	case Term15Year:
		return 15
	case Term20Year:
		return 20
	case Term25Year:
		return 25
	case Term30Year:
		return 30
	}
	return 0
}

// Months returns the term length in months.
func (t LoanTerm) Months() int {
	return t.Years() * 12
}

// LoanType is the loan program.
type LoanType string

const (
	LoanConventional LoanType = "conventional"
	LoanFHA          LoanType = "fha"
	LoanVA           LoanType = "va"
	LoanUSDA         LoanType = "usda"
	LoanJumbo        LoanType = "jumbo"
	LoanDSCR         LoanType = "dscr"
)

// LoanPurpose distinguishes purchase from the two refinance flavors.
type LoanPurpose string

const (
	PurposePurchase    LoanPurpose = "purchase"
	PurposeRateRefi    LoanPurpose = "rt_refi"
	PurposeCashOutRefi LoanPurpose = "co_refi"
	PurposeAll         LoanPurpose = "all"
)

// PropertyType of the subject property.
type PropertyType string

const (
	PropertySingleFamily PropertyType = "single_family"
	PropertyCondo        PropertyType = "condo"
	PropertyTownhouse    PropertyType = "townhouse"
	PropertyMultiFamily  PropertyType = "multi_family"
	PropertyManufactured PropertyType = "manufactured"
)

// LoanParameters is the borrower scenario driving a pricing request.
// CreditScore is either a coarse label (excellent/good/fair/poor) or a
// FICO range string like "740-759".
type LoanParameters struct {
	LoanAmount    float64      `json:"loan_amount"`
	PropertyValue float64      `json:"property_value"`
	LoanTerm      LoanTerm     `json:"loan_term"`
	LoanType      LoanType     `json:"loan_type"`
	PropertyType  PropertyType `json:"property_type"`
	CreditScore   string       `json:"credit_score"`
	LoanPurpose   LoanPurpose  `json:"loan_purpose"`
	State         string       `json:"state,omitempty"`
}

// LTV returns loan-to-value as a percent (0 when PropertyValue is unset).
func (p LoanParameters) LTV() float64 {
	if p.PropertyValue <= 0 {
		return 0
	}
	return p.LoanAmount / p.PropertyValue * 100
}

// AdjustmentBreakdown records one applied LLPA lookup for auditability.
type AdjustmentBreakdown struct {
	GridName string  `json:"grid_name"`
	GridType string  `json:"grid_type"`
	RowLabel string  `json:"row_label"`
	ColLabel string  `json:"col_label"`
	Value    float64 `json:"value"`
}

// PricingScenario is one quoted offer (par, buydown or lender credit).
type PricingScenario struct {
	ScenarioLabel       string                `json:"scenario_label"`
	Rate                float64               `json:"rate"`
	APR                 float64               `json:"apr"`
	MonthlyPayment      float64               `json:"monthly_payment"`
	PointsPercent       float64               `json:"points_percent"`
	PointsDollar        float64               `json:"points_dollar"`
	IsCredit            bool                  `json:"is_credit"`
	NetPrice            float64               `json:"net_price"`
	AdjustmentBreakdown []AdjustmentBreakdown `json:"adjustment_breakdown,omitempty"`
}

// LenderQuote aggregates the scenarios priced off one lender's sheet.
type LenderQuote struct {
	LenderName       string            `json:"lender_name"`
	Scenarios        []PricingScenario `json:"scenarios"`
	BasePrice        float64           `json:"base_price"`
	AdjustedPrice    float64           `json:"adjusted_price"`
	TotalAdjustments float64           `json:"total_adjustments"`
}

// PricingResult is the full engine output for one borrower scenario.
// Quotes are sorted ascending by the first scenario's rate; BestQuote is
// the first element or nil.
type PricingResult struct {
	Quotes           []LenderQuote `json:"quotes"`
	BestQuote        *LenderQuote  `json:"best_quote"`
	ValidationPassed bool          `json:"validation_passed"`
	ParseErrors      []string      `json:"parse_errors,omitempty"`
}
