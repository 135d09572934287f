package handlers

import (
	"net/http"

	portssvc "github.com/SscSPs/workshop_backend/internal/core/ports/services"
	"github.com/SscSPs/workshop_backend/internal/dto"
	"github.com/gin-gonic/gin"
)

type planHandler struct {
	planService portssvc.PlanSvcFacade
}

func registerPlanRoutes(rg *gin.RouterGroup, planService portssvc.PlanSvcFacade) {
	h := &planHandler{planService: planService}

	plans := rg.Group("/plans")
	{
		plans.GET("", h.listPlans)
		plans.GET("/:code", h.getPlan)
	}
}

// listPlans godoc
// @Summary List subscription plans
// @Tags plans
// @Produce json
// @Success 200 {array} dto.PlanResponse
// @Failure 500 {object} ErrorResponse
// @Router /plans [get]
func (h *planHandler) listPlans(c *gin.Context) {
	plans, err := h.planService.ListPlans(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list plans")
		return
	}
	c.JSON(http.StatusOK, dto.ToListPlanResponse(plans))
}

// getPlan godoc
// @Summary Get a plan by code
// @Tags plans
// @Produce json
// @Param code path string true "Plan code"
// @Success 200 {object} dto.PlanResponse
// @Failure 404 {object} ErrorResponse
// @Router /plans/{code} [get]
func (h *planHandler) getPlan(c *gin.Context) {
	plan, err := h.planService.GetPlan(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err, "Failed to get plan")
		return
	}
	c.JSON(http.StatusOK, dto.ToPlanResponse(plan))
}
