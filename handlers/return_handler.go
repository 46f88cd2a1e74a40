package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taxlaw-backend/middleware"
	"taxlaw-backend/models"
	"taxlaw-backend/repository"
	"taxlaw-backend/service"
	"taxlaw-backend/taxcalc"
)

// ReturnHandler handles tax computation and return endpoints
type ReturnHandler struct {
	taxService *service.TaxService
}

// NewReturnHandler creates a new return handler
func NewReturnHandler(taxService *service.TaxService) *ReturnHandler {
	return &ReturnHandler{taxService: taxService}
}

// TaxInputRequest is the JSON body of compute-tax and generate-return.
// Amounts may be numbers or strings such as "1,200,000".
type TaxInputRequest struct {
	TIN            string         `json:"tin"`
	AssessmentYear string         `json:"assessment_year"`
	IncomeItems    models.Amounts `json:"income_items"`
	Deductions     models.Amounts `json:"deductions"`
	Investments    models.Amounts `json:"investments"`
}

func (r TaxInputRequest) toInput() taxcalc.TaxInput {
	orEmpty := func(a models.Amounts) map[string]float64 {
		if a == nil {
			return map[string]float64{}
		}
		return map[string]float64(a)
	}
	return taxcalc.TaxInput{
		TIN:            r.TIN,
		AssessmentYear: r.AssessmentYear,
		IncomeItems:    orEmpty(r.IncomeItems),
		Deductions:     orEmpty(r.Deductions),
		Investments:    orEmpty(r.Investments),
	}
}

func bindTaxInput(c *gin.Context) (taxcalc.TaxInput, bool) {
	var req TaxInputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, taxcalc.ErrInvalidInput) {
			respondError(c, http.StatusBadRequest, CodeInvalidInput, err.Error())
		} else {
			respondError(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		}
		return taxcalc.TaxInput{}, false
	}
	return req.toInput(), true
}

// ComputeTax handles POST /api/compute-tax
func (h *ReturnHandler) ComputeTax(c *gin.Context) {
	in, ok := bindTaxInput(c)
	if !ok {
		return
	}

	comp, err := h.taxService.Compute(in)
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidInput, err.Error())
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"computation":      comp,
		"compliance_flags": taxcalc.ComplianceFlags(in),
		"citations":        taxcalc.DefaultCitations(),
	})
}

// GenerateReturn handles POST /api/generate-return
func (h *ReturnHandler) GenerateReturn(c *gin.Context) {
	in, ok := bindTaxInput(c)
	if !ok {
		return
	}

	result, err := h.taxService.GenerateReturn(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, taxcalc.ErrInvalidInput) {
			respondError(c, http.StatusBadRequest, CodeInvalidInput, err.Error())
			return
		}
		middleware.LogWithCorrelationID(c.Request.Context()).Error("Failed to generate return", zap.Error(err))
		respondError(c, http.StatusInternalServerError, CodeGenerationFailed, "Failed to generate return")
		return
	}

	respondData(c, http.StatusCreated, result)
}

// ListReturns handles GET /api/returns
func (h *ReturnHandler) ListReturns(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}

	returns, err := h.taxService.ListReturns(c.Request.Context(), limit)
	if err != nil {
		middleware.LogWithCorrelationID(c.Request.Context()).Error("Failed to list returns", zap.Error(err))
		respondError(c, http.StatusInternalServerError, CodeInternal, "Failed to list returns")
		return
	}

	respondData(c, http.StatusOK, gin.H{"returns": returns})
}

// ListAuditLogs handles GET /api/audit-logs
func (h *ReturnHandler) ListAuditLogs(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}

	logs, err := h.taxService.ListAuditLogs(c.Request.Context(), limit)
	if err != nil {
		middleware.LogWithCorrelationID(c.Request.Context()).Error("Failed to list audit logs", zap.Error(err))
		respondError(c, http.StatusInternalServerError, CodeInternal, "Failed to list audit logs")
		return
	}

	respondData(c, http.StatusOK, gin.H{"audit_logs": logs})
}

// queryLimit reads ?limit=, writing a 400 and returning false when it is not
// a positive integer.
func queryLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return repository.DefaultListLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "limit must be a positive integer")
		return 0, false
	}
	return n, true
}

// GetReturn handles GET /api/returns/:id
func (h *ReturnHandler) GetReturn(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, CodeInvalidID, "Invalid return ID format")
		return
	}

	result, err := h.taxService.GetReturn(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrReturnNotFound) {
			respondError(c, http.StatusNotFound, CodeNotFound, "Return not found")
			return
		}
		middleware.LogWithCorrelationID(c.Request.Context()).Error("Failed to load return", zap.Int64("return_id", id), zap.Error(err))
		respondError(c, http.StatusInternalServerError, CodeInternal, "Failed to load return")
		return
	}

	respondData(c, http.StatusOK, result)
}
