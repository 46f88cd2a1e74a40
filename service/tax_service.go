package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"taxlaw-backend/middleware"
	"taxlaw-backend/models"
	"taxlaw-backend/repository"
	"taxlaw-backend/taxcalc"
)

// TaxService computes and persists tax returns
type TaxService struct {
	returnRepo ReturnRepository
}

// TaxServiceOption is a functional option for TaxService
type TaxServiceOption func(*TaxService)

// WithReturnRepository sets the return repository
func WithReturnRepository(repo ReturnRepository) TaxServiceOption {
	return func(s *TaxService) {
		s.returnRepo = repo
	}
}

// NewTaxService creates a new tax service
func NewTaxService(opts ...TaxServiceOption) *TaxService {
	s := &TaxService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReturnResult is a generated or reloaded return.
type ReturnResult struct {
	ReturnID        int64               `json:"return_id"`
	TIN             string              `json:"tin"`
	AssessmentYear  string              `json:"assessment_year"`
	Computation     taxcalc.Computation `json:"computation"`
	ComplianceFlags []string            `json:"compliance_flags"`
	Citations       []string            `json:"citations"`
	Disclaimer      string              `json:"disclaimer"`
	CreatedAt       time.Time           `json:"created_at"`
}

// ReturnSummary is one row of ListReturns.
type ReturnSummary struct {
	ID             int64     `json:"id"`
	TIN            string    `json:"tin"`
	AssessmentYear string    `json:"assessment_year"`
	Payable        float64   `json:"payable"`
	CreatedAt      time.Time `json:"created_at"`
}

// Compute validates the input and runs the calculator. Nothing is stored.
func (s *TaxService) Compute(in taxcalc.TaxInput) (taxcalc.Computation, error) {
	if err := in.Validate(); err != nil {
		return taxcalc.Computation{}, err
	}
	return in.Compute(), nil
}

// GenerateReturn computes the return, attaches flags, citations and the
// disclaimer, and stores it together with a GENERATE_RETURN audit entry.
func (s *TaxService) GenerateReturn(ctx context.Context, in taxcalc.TaxInput) (*ReturnResult, error) {
	if s.returnRepo == nil {
		return nil, errors.New("return repository not set")
	}

	comp, err := s.Compute(in)
	if err != nil {
		return nil, err
	}
	flags := taxcalc.ComplianceFlags(in)
	citations := taxcalc.DefaultCitations()

	ret := &models.TaxReturn{
		TIN:            in.TIN,
		AssessmentYear: in.AssessmentYear,
		Payable:        comp.Payable,
		Refundable:     comp.Refundable,
		Computation:    models.StoredComputation{Computation: comp},
		Citations:      models.Citations(citations),
	}
	audit := &models.AuditLog{
		EventType: models.EventGenerateReturn,
		UserTIN:   in.TIN,
		Details: models.AuditDetails{
			"tin":             in.TIN,
			"assessment_year": in.AssessmentYear,
			"payable":         comp.Payable,
			"flags":           len(flags),
		},
	}
	if err := s.returnRepo.CreateWithAudit(ctx, ret, audit); err != nil {
		return nil, fmt.Errorf("failed to store return: %w", err)
	}

	middleware.LogWithCorrelationID(ctx).Info("Tax return generated",
		zap.Int64("return_id", ret.ID),
		zap.String("assessment_year", in.AssessmentYear),
		zap.Int("compliance_flags", len(flags)),
	)

	return &ReturnResult{
		ReturnID:        ret.ID,
		TIN:             ret.TIN,
		AssessmentYear:  ret.AssessmentYear,
		Computation:     comp,
		ComplianceFlags: flags,
		Citations:       citations,
		Disclaimer:      taxcalc.Disclaimer,
		CreatedAt:       ret.CreatedAt,
	}, nil
}

// GetReturn reloads a stored return. Compliance flags are derived again from
// the identifiers and the stored breakdown.
func (s *TaxService) GetReturn(ctx context.Context, id int64) (*ReturnResult, error) {
	if s.returnRepo == nil {
		return nil, errors.New("return repository not set")
	}

	ret, err := s.returnRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrReturnNotFound, id)
		}
		return nil, err
	}

	comp := ret.Computation.Computation
	flags := taxcalc.ComplianceFlags(taxcalc.TaxInput{
		TIN:            ret.TIN,
		AssessmentYear: ret.AssessmentYear,
		IncomeItems:    comp.Breakdown.IncomeItems,
		Deductions:     comp.Breakdown.Deductions,
		Investments:    comp.Breakdown.Investments,
	})
	citations := []string(ret.Citations)
	if citations == nil {
		citations = []string{}
	}

	return &ReturnResult{
		ReturnID:        ret.ID,
		TIN:             ret.TIN,
		AssessmentYear:  ret.AssessmentYear,
		Computation:     comp,
		ComplianceFlags: flags,
		Citations:       citations,
		Disclaimer:      taxcalc.Disclaimer,
		CreatedAt:       ret.CreatedAt,
	}, nil
}

// ListReturns returns the newest returns first.
func (s *TaxService) ListReturns(ctx context.Context, limit int) ([]ReturnSummary, error) {
	if s.returnRepo == nil {
		return nil, errors.New("return repository not set")
	}

	rows, err := s.returnRepo.List(ctx, limit)
	if err != nil {
		return nil, err
	}

	out := make([]ReturnSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, ReturnSummary{
			ID:             r.ID,
			TIN:            r.TIN,
			AssessmentYear: r.AssessmentYear,
			Payable:        r.Payable,
			CreatedAt:      r.CreatedAt,
		})
	}
	return out, nil
}

// ListAuditLogs returns the newest audit entries, at most limit of them.
func (s *TaxService) ListAuditLogs(ctx context.Context, limit int) ([]*models.AuditLog, error) {
	if s.returnRepo == nil {
		return nil, errors.New("return repository not set")
	}
	return s.returnRepo.ListAuditLogs(ctx, limit)
}
