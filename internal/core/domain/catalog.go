package domain

import "github.com/shopspring/decimal"

// DefaultPlans is the plan catalog shipped with the service. The SQL migration seeds the same rows.
func DefaultPlans() []Plan {
	return []Plan{
		{PlanCode: PlanFree, Name: "Free", Price: decimal.RequireFromString("0.00"), MonthlyOrderQuota: 10,
			Features: []string{"Up to 10 orders per month"}, IsActive: true},
		{PlanCode: PlanPro, Name: "Pro", Price: decimal.RequireFromString("49.90"), MonthlyOrderQuota: 50,
			Features: []string{"Up to 50 orders per month", "Inventory control"}, IsActive: true},
		{PlanCode: PlanProPlus, Name: "Pro+", Price: decimal.RequireFromString("79.90"), MonthlyOrderQuota: 200,
			Features: []string{"Up to 200 orders per month", "Inventory control", "Customer messaging"}, IsActive: true},
		{PlanCode: PlanPremium, Name: "Premium", Price: decimal.RequireFromString("149.90"), MonthlyOrderQuota: 0,
			Features: []string{"Unlimited orders", "Inventory control", "Customer messaging", "Priority support"}, IsActive: true},
	}
}

// OrderServiceCategoryID is the system category order revenue is posted under.
const OrderServiceCategoryID = "5f0c7d1e-0000-4000-8000-000000000001"

// DefaultCategories is the system category set. IDs are fixed so every storage driver agrees.
func DefaultCategories() []FinancialCategory {
	return []FinancialCategory{
		{CategoryID: OrderServiceCategoryID, Name: "Order Service", Direction: DirectionIn},
		{CategoryID: "5f0c7d1e-0000-4000-8000-000000000002", Name: "Counter Sale", Direction: DirectionIn},
		{CategoryID: "5f0c7d1e-0000-4000-8000-000000000003", Name: "Other Income", Direction: DirectionIn},
		{CategoryID: "5f0c7d1e-0000-4000-8000-000000000004", Name: "Parts and Materials", Direction: DirectionOut},
		{CategoryID: "5f0c7d1e-0000-4000-8000-000000000005", Name: "Salaries", Direction: DirectionOut},
		{CategoryID: "5f0c7d1e-0000-4000-8000-000000000006", Name: "Rent", Direction: DirectionOut},
		{CategoryID: "5f0c7d1e-0000-4000-8000-000000000007", Name: "Electricity", Direction: DirectionOut},
		{CategoryID: "5f0c7d1e-0000-4000-8000-000000000008", Name: "Water", Direction: DirectionOut},
		{CategoryID: "5f0c7d1e-0000-4000-8000-000000000009", Name: "Internet and Phone", Direction: DirectionOut},
		{CategoryID: "5f0c7d1e-0000-4000-8000-00000000000a", Name: "Taxes", Direction: DirectionOut},
		{CategoryID: "5f0c7d1e-0000-4000-8000-00000000000b", Name: "Maintenance", Direction: DirectionOut},
		{CategoryID: "5f0c7d1e-0000-4000-8000-00000000000c", Name: "Fuel", Direction: DirectionOut},
		{CategoryID: "5f0c7d1e-0000-4000-8000-00000000000d", Name: "Other Expenses", Direction: DirectionOut},
	}
}
