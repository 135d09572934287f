package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of a service order.
type OrderStatus string

const (
	StatusOpen             OrderStatus = "OPEN"
	StatusInProgress       OrderStatus = "IN_PROGRESS"
	StatusAwaitingPart     OrderStatus = "AWAITING_PART"
	StatusAwaitingApproval OrderStatus = "AWAITING_APPROVAL"
	StatusCompleted        OrderStatus = "COMPLETED"
	StatusCanceled         OrderStatus = "CANCELED"
)

// orderTransitions is the adjacency list of legal status edges, excluding self-loops.
var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusOpen:             {StatusInProgress, StatusAwaitingPart, StatusAwaitingApproval, StatusCanceled},
	StatusInProgress:       {StatusAwaitingPart, StatusAwaitingApproval, StatusCompleted, StatusCanceled},
	StatusAwaitingPart:     {StatusInProgress, StatusCanceled},
	StatusAwaitingApproval: {StatusInProgress, StatusCanceled},
	StatusCompleted:        {},
	StatusCanceled:         {StatusOpen},
}

// IsValid reports whether s is a known status.
func (s OrderStatus) IsValid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransitionTo reports whether s -> target is legal. Self-loops always are.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if !target.IsValid() {
		return false
	}
	if s == target {
		return true
	}
	for _, allowed := range orderTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// AllowedTransitions lists the statuses reachable from s (self-loop not included).
func (s OrderStatus) AllowedTransitions() []OrderStatus {
	out := make([]OrderStatus, len(orderTransitions[s]))
	copy(out, orderTransitions[s])
	return out
}

// DescribeAllowedTransitions renders the legal targets for error messages.
func (s OrderStatus) DescribeAllowedTransitions() string {
	allowed := s.AllowedTransitions()
	if len(allowed) == 0 {
		return "none (final status)"
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}

// OrderServiceLine is a labour line on an order.
type OrderServiceLine struct {
	LineID      string          `json:"lineID"`
	OrderID     string          `json:"orderID"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

// OrderPartLine is a stock-backed line. ItemName and ItemCode are captured when
// the line is allocated and do not follow later inventory edits.
type OrderPartLine struct {
	LineID    string          `json:"lineID"`
	OrderID   string          `json:"orderID"`
	ItemID    string          `json:"itemID"`
	ItemName  string          `json:"itemName"`
	ItemCode  string          `json:"itemCode"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// LineTotal computes quantity × unit price.
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// Order is a unit of repair work for one vehicle.
type Order struct {
	OrderID          string             `json:"orderID"`
	AccountID        string             `json:"accountID"`
	CustomerName     string             `json:"customerName"`
	CustomerPhone    string             `json:"customerPhone,omitempty"`
	Plate            string             `json:"plate"`
	VehicleModel     string             `json:"vehicleModel,omitempty"`
	VehicleYear      *int               `json:"vehicleYear,omitempty"`
	Mileage          *int               `json:"mileage,omitempty"`
	Description      string             `json:"description"`
	Diagnosis        string             `json:"diagnosis,omitempty"`
	PartsSummary     string             `json:"partsSummary,omitempty"`
	Value            decimal.Decimal    `json:"value"`
	Status           OrderStatus        `json:"status"`
	MessagingConsent bool               `json:"messagingConsent"`
	CompletedAt      *time.Time         `json:"completedAt,omitempty"`
	Services         []OrderServiceLine `json:"services"`
	Parts            []OrderPartLine    `json:"parts"`
	AuditFields
}

// HasLines reports whether the order carries any service or part line.
func (o Order) HasLines() bool {
	return len(o.Services) > 0 || len(o.Parts) > 0
}

// LinesTotal sums every line total.
func (o Order) LinesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, s := range o.Services {
		total = total.Add(s.LineTotal)
	}
	for _, p := range o.Parts {
		total = total.Add(p.LineTotal)
	}
	return total
}

// RecomputeValue sets Value to the lines total when at least one line exists.
// Without lines the caller-supplied value is kept.
func (o *Order) RecomputeValue() {
	if o.HasLines() {
		o.Value = o.LinesTotal()
	}
}

// DashboardStats are per-account order counters.
type DashboardStats struct {
	Total      int64 `json:"total"`
	Open       int64 `json:"open"`
	InProgress int64 `json:"inProgress"`
	Completed  int64 `json:"completed"`
	ThisMonth  int64 `json:"thisMonth"`
}

var platePattern = regexp.MustCompile(`^[A-Z]{3}[0-9][A-Z0-9][0-9]{2}$`)

// NormalizePlate upper-cases a licence plate and drops separators.
func NormalizePlate(plate string) string {
	plate = strings.ToUpper(strings.TrimSpace(plate))
	return strings.NewReplacer("-", "", " ", "").Replace(plate)
}

// ValidPlate accepts the old (ABC1234) and Mercosul (ABC1D23) formats, with or without separators.
func ValidPlate(plate string) bool {
	return platePattern.MatchString(NormalizePlate(plate))
}
