package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"taxlaw-backend/mocks"
	"taxlaw-backend/models"
	"taxlaw-backend/repository"
	"taxlaw-backend/service"
	"taxlaw-backend/taxcalc"
)

func sampleInput() taxcalc.TaxInput {
	return taxcalc.TaxInput{
		TIN:            "123456789012",
		AssessmentYear: "2024-2025",
		IncomeItems:    map[string]float64{"salary": 1200000},
		Deductions:     map[string]float64{},
		Investments:    map[string]float64{"dps": 100000},
	}
}

func TestTaxService_Compute(t *testing.T) {
	svc := service.NewTaxService()

	comp, err := svc.Compute(sampleInput())
	require.NoError(t, err)
	assert.Equal(t, 97500.0, comp.SlabTax)
	assert.Equal(t, 14625.0, comp.Rebate)
	assert.Equal(t, 82875.0, comp.Payable)

	in := sampleInput()
	in.Deductions = map[string]float64{"zakat": -1}
	_, err = svc.Compute(in)
	assert.ErrorIs(t, err, taxcalc.ErrInvalidInput)
}

func TestTaxService_GenerateReturn(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	created := time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		input      taxcalc.TaxInput
		setupMocks func(repo *mocks.MockReturnRepository)
		wantErr    error
		wantFlags  []string
	}{
		{
			name:  "stores return with audit entry",
			input: sampleInput(),
			setupMocks: func(repo *mocks.MockReturnRepository) {
				repo.EXPECT().
					CreateWithAudit(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, ret *models.TaxReturn, audit *models.AuditLog) error {
						assert.Equal(t, "123456789012", ret.TIN)
						assert.Equal(t, 82875.0, ret.Payable)
						assert.Equal(t, 82875.0, ret.Computation.Payable)
						assert.Equal(t, models.Citations(taxcalc.DefaultCitations()), ret.Citations)
						assert.Equal(t, models.EventGenerateReturn, audit.EventType)
						assert.Equal(t, "123456789012", audit.UserTIN)
						assert.Equal(t, "123456789012", audit.Details["tin"])
						ret.ID = 7
						ret.CreatedAt = created
						return nil
					})
			},
			wantFlags: []string{},
		},
		{
			name: "flags missing identifiers and salary",
			input: taxcalc.TaxInput{
				IncomeItems: map[string]float64{"business": 500000},
			},
			setupMocks: func(repo *mocks.MockReturnRepository) {
				repo.EXPECT().CreateWithAudit(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			},
			wantFlags: []string{taxcalc.FlagMissingIdentifiers, taxcalc.FlagMissingSalary},
		},
		{
			name: "rejects negative amounts without storing",
			input: taxcalc.TaxInput{
				IncomeItems: map[string]float64{"salary": -5},
			},
			setupMocks: func(repo *mocks.MockReturnRepository) {},
			wantErr:    taxcalc.ErrInvalidInput,
		},
		{
			name:  "repository failure",
			input: sampleInput(),
			setupMocks: func(repo *mocks.MockReturnRepository) {
				repo.EXPECT().CreateWithAudit(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("db down"))
			},
			wantErr: errors.New("db down"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := mocks.NewMockReturnRepository(ctrl)
			tt.setupMocks(repo)
			svc := service.NewTaxService(service.WithReturnRepository(repo))

			result, err := svc.GenerateReturn(context.Background(), tt.input)
			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, taxcalc.ErrInvalidInput) {
					assert.ErrorIs(t, err, taxcalc.ErrInvalidInput)
				} else {
					assert.Contains(t, err.Error(), tt.wantErr.Error())
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantFlags, result.ComplianceFlags)
			assert.Equal(t, taxcalc.Disclaimer, result.Disclaimer)
			assert.Equal(t, taxcalc.DefaultCitations(), result.Citations)
		})
	}
}

func TestTaxService_GenerateReturnPropagatesID(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockReturnRepository(ctrl)
	repo.EXPECT().CreateWithAudit(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ret *models.TaxReturn, _ *models.AuditLog) error {
			ret.ID = 42
			return nil
		})

	result, err := service.NewTaxService(service.WithReturnRepository(repo)).GenerateReturn(context.Background(), sampleInput())
	require.NoError(t, err)
	assert.Equal(t, int64(42), result.ReturnID)
}

func TestTaxService_GetReturn(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockReturnRepository(ctrl)
	svc := service.NewTaxService(service.WithReturnRepository(repo))
	ctx := context.Background()

	comp := taxcalc.ComputeTax(map[string]float64{"business": 900000}, nil, nil)
	repo.EXPECT().GetByID(ctx, int64(3)).Return(&models.TaxReturn{
		ID:             3,
		TIN:            "999",
		AssessmentYear: "2024-2025",
		Payable:        comp.Payable,
		Computation:    models.StoredComputation{Computation: comp},
	}, nil)
	repo.EXPECT().GetByID(ctx, int64(4)).Return(nil, repository.ErrNotFound)

	result, err := svc.GetReturn(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.ReturnID)
	assert.Equal(t, comp.Payable, result.Computation.Payable)
	assert.Equal(t, []string{taxcalc.FlagMissingSalary}, result.ComplianceFlags)
	assert.Equal(t, []string{}, result.Citations)

	_, err = svc.GetReturn(ctx, 4)
	assert.ErrorIs(t, err, service.ErrReturnNotFound)
}

func TestTaxService_ListReturns(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockReturnRepository(ctrl)
	repo.EXPECT().List(gomock.Any(), 10).Return([]*models.TaxReturn{
		{ID: 2, TIN: "b", Payable: 20},
		{ID: 1, TIN: "a", Payable: 10},
	}, nil)

	rows, err := service.NewTaxService(service.WithReturnRepository(repo)).ListReturns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(2), rows[0].ID)
	assert.Equal(t, 10.0, rows[1].Payable)
}

func TestTaxService_ListAuditLogs(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockReturnRepository(ctrl)
	repo.EXPECT().ListAuditLogs(gomock.Any(), 20).Return([]*models.AuditLog{
		{ID: 3, EventType: models.EventGenerateReturn, UserTIN: "123", Details: models.AuditDetails{"payable": 82875.0}},
	}, nil)

	logs, err := service.NewTaxService(service.WithReturnRepository(repo)).ListAuditLogs(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.EventGenerateReturn, logs[0].EventType)
	assert.Equal(t, "123", logs[0].UserTIN)
}

func TestTaxService_NoRepository(t *testing.T) {
	svc := service.NewTaxService()
	_, err := svc.GenerateReturn(context.Background(), sampleInput())
	assert.Error(t, err)
	_, err = svc.ListReturns(context.Background(), 1)
	assert.Error(t, err)
	_, err = svc.ListAuditLogs(context.Background(), 1)
	assert.Error(t, err)
}
