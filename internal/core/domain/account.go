package domain

// Account is a repair shop using the system. It is the owner of every other entity
// and the identity carried in JWT subjects.
type Account struct {
	AccountID    string `json:"accountID"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	ShopName     string `json:"shopName"`
	Phone        string `json:"phone"`
	PlanCode     string `json:"planCode"`
	IsActive     bool   `json:"isActive"`
	AuditFields
}
