package record_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/davitt-io/granary/internal/record"
)

func TestService_Create(t *testing.T) {
	type args struct {
		params record.CreateParams
	}

	type testCase struct {
		name      string
		args      args
		setupMock func(m *record.MockRepository)
		wantErr   bool
	}

	tests := []testCase{
		{
			name: "Success",
			args: args{
				params: record.CreateParams{
					Kind:         record.KindReceipt,
					Status:       record.StatusCompleted,
					SupplierName: "Sidama Union",
					WeightKg:     floatPtr(1200),
					BuyingPrice:  decPtr("310.00"),
					CreatedAt:    time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
				},
			},
			setupMock: func(m *record.MockRepository) {
				m.EXPECT().
					CreateRecord(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, rec *record.Record) error {
						rec.ID = uuid.New()
						return nil
					})
			},
			wantErr: false,
		},
		{
			name: "RepoError",
			args: args{
				params: record.CreateParams{Kind: record.KindSale},
			},
			setupMock: func(m *record.MockRepository) {
				m.EXPECT().
					CreateRecord(gomock.Any(), gomock.Any()).
					Return(errors.New("db error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := record.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := record.NewService(repo, record.NewEngine())
			got, err := svc.Create(context.Background(), tt.args.params)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)

				return
			}

			assert.NoError(t, err)
			assert.NotNil(t, got)
			assert.NotEmpty(t, got.ID)
		})
	}
}

func TestService_Query(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := record.NewMockRepository(ctrl)
	engine := record.NewEngine(record.WithClock(func() time.Time { return fixedNow }))
	svc := record.NewService(repo, engine)

	kind := record.KindReceipt
	filter := record.ListFilter{Kind: &kind}

	repo.EXPECT().
		ListRecords(gomock.Any(), filter).
		Return([]*record.Record{
			{Kind: record.KindReceipt, Status: record.StatusCompleted, SupplierName: "Acme", CreatedAt: fixedNow},
			{Kind: record.KindReceipt, Status: record.StatusPending, SupplierName: "Acme", CreatedAt: fixedNow},
		}, nil)

	got, err := svc.Query(context.Background(), filter, record.Criteria{Status: record.StatusCompleted})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, record.StatusCompleted, got[0].Status)
}

func TestService_Query_RepoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := record.NewMockRepository(ctrl)
	svc := record.NewService(repo, record.NewEngine())

	repo.EXPECT().
		ListRecords(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection refused"))

	got, err := svc.Query(context.Background(), record.ListFilter{}, record.Criteria{})

	assert.Error(t, err)
	assert.Nil(t, got)
}

func TestService_PartitionTransfers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := record.NewMockRepository(ctrl)
	svc := record.NewService(repo, record.NewEngine())

	kind := record.KindTransfer

	repo.EXPECT().
		ListRecords(gomock.Any(), record.ListFilter{Kind: &kind}).
		Return([]*record.Record{
			{Kind: record.KindTransfer, DestinationLocation: "Mojo cold room"},
			{Kind: record.KindTransfer, SourceLocation: "Adama", DestinationLocation: "Mojo"},
		}, nil)

	partner, relocation, err := svc.PartitionTransfers(context.Background())
	require.NoError(t, err)

	assert.Len(t, partner, 1)
	assert.Len(t, relocation, 1)
}

func TestService_ImportBatch_NoConflicts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := record.NewMockRepository(ctrl)
	itx := record.NewMockImportTx(ctrl)
	svc := record.NewService(repo, record.NewEngine())

	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	params := []record.CreateParams{
		{
			Kind:         record.KindReceipt,
			Status:       record.StatusPending,
			SupplierName: "Sidama Union",
			RawSupplier:  "SIDAMA UNION",
			WeightKg:     floatPtr(1200),
			CreatedAt:    date,
		},
	}

	repo.EXPECT().BeginImport(gomock.Any(), date, date).Return(itx, nil)
	itx.EXPECT().FindDuplicates(gomock.Any(), params).Return(nil, nil)
	itx.EXPECT().CreateRecords(gomock.Any(), gomock.Any()).Return(nil)
	itx.EXPECT().Commit().Return(nil)
	itx.EXPECT().Rollback().Return(nil)

	result, err := svc.ImportBatch(context.Background(), params)
	require.NoError(t, err)
	assert.Len(t, result.Imported, 1)
	assert.Empty(t, result.Conflicts)
	assert.Empty(t, result.New)
}

func TestService_ImportBatch_WithConflicts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := record.NewMockRepository(ctrl)
	itx := record.NewMockImportTx(ctrl)
	svc := record.NewService(repo, record.NewEngine())

	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	params := []record.CreateParams{
		{
			Kind:        record.KindReceipt,
			RawSupplier: "SIDAMA UNION",
			BatchID:     "B-71",
			WeightKg:    floatPtr(1200),
			CreatedAt:   date,
		},
		{
			Kind:        record.KindReceipt,
			RawSupplier: "GUJI STATION",
			BatchID:     "B-72",
			WeightKg:    floatPtr(800),
			CreatedAt:   date,
		},
	}

	existing := &record.Record{
		ID:          uuid.New(),
		Kind:        record.KindReceipt,
		RawSupplier: "SIDAMA UNION",
		BatchID:     "B-71",
		WeightKg:    floatPtr(1200),
		CreatedAt:   date,
	}

	repo.EXPECT().BeginImport(gomock.Any(), date, date).Return(itx, nil)
	itx.EXPECT().FindDuplicates(gomock.Any(), params).Return([]*record.Record{existing}, nil)
	itx.EXPECT().Rollback().Return(nil)

	result, err := svc.ImportBatch(context.Background(), params)
	require.NoError(t, err)
	assert.Empty(t, result.Imported)
	assert.Len(t, result.New, 1)
	assert.Len(t, result.Conflicts, 1)
	assert.Equal(t, params[0], result.Conflicts[0].Incoming)
	assert.Equal(t, existing, result.Conflicts[0].Existing)
}

func TestService_ImportBatch_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := record.NewMockRepository(ctrl)
	svc := record.NewService(repo, record.NewEngine())

	result, err := svc.ImportBatch(context.Background(), []record.CreateParams{})
	require.NoError(t, err)
	assert.Empty(t, result.Imported)
	assert.Empty(t, result.Conflicts)
	assert.Empty(t, result.New)
}

func TestService_CreateBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := record.NewMockRepository(ctrl)
	itx := record.NewMockImportTx(ctrl)
	svc := record.NewService(repo, record.NewEngine())

	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	params := []record.CreateParams{
		{
			Kind:         record.KindReceipt,
			Status:       record.StatusPending,
			SupplierName: "Guji Station",
			CreatedAt:    date,
		},
	}

	repo.EXPECT().BeginImport(gomock.Any(), date, date).Return(itx, nil)
	itx.EXPECT().CreateRecords(gomock.Any(), gomock.Any()).Return(nil)
	itx.EXPECT().Commit().Return(nil)
	itx.EXPECT().Rollback().Return(nil)

	recs, err := svc.CreateBatch(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, record.KindReceipt, recs[0].Kind)
	assert.Equal(t, "Guji Station", recs[0].SupplierName)
}
