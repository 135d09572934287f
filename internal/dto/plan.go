package dto

import (
	"github.com/SscSPs/workshop_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PlanResponse defines the data returned for a plan.
type PlanResponse struct {
	PlanCode          string          `json:"planCode"`
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	MonthlyOrderQuota int             `json:"monthlyOrderQuota"` // 0 means unlimited
	Features          []string        `json:"features"`
}

// ToPlanResponse converts a domain.Plan to PlanResponse DTO.
func ToPlanResponse(p *domain.Plan) PlanResponse {
	features := p.Features
	if features == nil {
		features = []string{}
	}
	return PlanResponse{
		PlanCode:          p.PlanCode,
		Name:              p.Name,
		Price:             p.Price,
		MonthlyOrderQuota: p.MonthlyOrderQuota,
		Features:          features,
	}
}

// ToListPlanResponse converts a slice of domain.Plan.
func ToListPlanResponse(plans []domain.Plan) []PlanResponse {
	res := make([]PlanResponse, len(plans))
	for i := range plans {
		res[i] = ToPlanResponse(&plans[i])
	}
	return res
}
