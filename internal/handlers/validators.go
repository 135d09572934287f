package handlers

import (
	"sync"

	"github.com/SscSPs/workshop_backend/internal/core/domain"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerValidatorsOnce sync.Once

// RegisterValidators installs the domain tags used in request DTO binding
// tags on gin's validator engine. Safe to call more than once.
func RegisterValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("plate", func(fl validator.FieldLevel) bool {
			return domain.ValidPlate(fl.Field().String())
		})
		_ = v.RegisterValidation("item_category", func(fl validator.FieldLevel) bool {
			return domain.ItemCategory(fl.Field().String()).IsValid()
		})
		_ = v.RegisterValidation("movement_reason", func(fl validator.FieldLevel) bool {
			return domain.MovementReason(fl.Field().String()).IsValid()
		})
		_ = v.RegisterValidation("payment_method", func(fl validator.FieldLevel) bool {
			return domain.PaymentMethod(fl.Field().String()).IsValid()
		})
		_ = v.RegisterValidation("order_status", func(fl validator.FieldLevel) bool {
			return domain.OrderStatus(fl.Field().String()).IsValid()
		})
	})
}
