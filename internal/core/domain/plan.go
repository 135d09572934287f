package domain

import "github.com/shopspring/decimal"

// Plan codes shipped with the catalog.
const (
	PlanFree    = "FREE"
	PlanPro     = "PRO"
	PlanProPlus = "PRO_PLUS"
	PlanPremium = "PREMIUM"
)

// Plan is a catalog entry. A MonthlyOrderQuota of 0 means unlimited.
type Plan struct {
	PlanCode          string          `json:"planCode"`
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	MonthlyOrderQuota int             `json:"monthlyOrderQuota"`
	Features          []string        `json:"features"`
	IsActive          bool            `json:"isActive"`
}

// Unlimited reports whether the plan imposes no monthly order quota.
func (p Plan) Unlimited() bool {
	return p.MonthlyOrderQuota <= 0
}
