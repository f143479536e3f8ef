package aggregate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"assaylab/internal/aggregate"
	"assaylab/internal/domain"
	"assaylab/mocks"
)

func query(kind domain.ReportKind) domain.ReportQuery {
	return domain.ReportQuery{
		Kind:     kind,
		From:     day(2024, 1, 5),
		To:       day(2024, 1, 5),
		Elements: []string{"Fe", "Mn"},
	}
}

func TestEngine_Run_GeologyEmptyRangeIsValid(t *testing.T) {
	repo := new(mocks.MockLabResultRepo)
	engine := aggregate.NewEngine(repo)

	repo.On("ListResults", mock.Anything, domain.ResultFilter{From: day(2024, 1, 5), Until: day(2024, 1, 6)}).
		Return([]domain.LabResult{}, nil)

	res, err := engine.Run(context.Background(), query(domain.KindGeology))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Records)
	assert.Empty(t, res.Aggregate.Rows)
	assert.Len(t, res.Aggregate.Totals.Values, 2)
	repo.AssertExpectations(t)
}

func TestEngine_Run_RequiredDataKindsFailOnEmpty(t *testing.T) {
	for _, kind := range []domain.ReportKind{domain.KindMet, domain.KindDailyAssays} {
		t.Run(string(kind), func(t *testing.T) {
			repo := new(mocks.MockLabResultRepo)
			repo.On("ListResults", mock.Anything, mock.Anything).Return([]domain.LabResult{}, nil)

			_, err := aggregate.NewEngine(repo).Run(context.Background(), query(kind))

			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrEmptyResult))
			var empty *domain.EmptyResultError
			require.True(t, errors.As(err, &empty))
			assert.Equal(t, kind, empty.Kind)
		})
	}

	t.Run("daily", func(t *testing.T) {
		repo := new(mocks.MockLabResultRepo)
		repo.On("ListRequests", mock.Anything, mock.Anything).Return([]domain.LabRequest{}, nil)

		_, err := aggregate.NewEngine(repo).Run(context.Background(), query(domain.KindDaily))

		assert.True(t, errors.Is(err, domain.ErrEmptyResult))
		repo.AssertNotCalled(t, "ListPlantSources", mock.Anything, mock.Anything)
	})
}

func TestEngine_Run_PlantColumnsFetched(t *testing.T) {
	repo := new(mocks.MockLabResultRepo)
	q := query(domain.KindPlant)
	q.PlantIDs = []int64{1, 2, 3}

	repo.On("ListRequests", mock.Anything, mock.MatchedBy(func(f domain.ResultFilter) bool {
		return len(f.PlantIDs) == 3
	})).Return([]domain.LabRequest{
		{ProductionDate: day(2024, 1, 5), PlantSourceID: 1, NumberOfSamples: 5},
		{ProductionDate: day(2024, 1, 5), PlantSourceID: 2, NumberOfSamples: 3},
	}, nil)
	repo.On("ListPlantSources", mock.Anything, []int64{1, 2, 3}).
		Return([]domain.PlantSource{plantA, plantB, plantC}, nil)

	res, err := aggregate.NewEngine(repo).Run(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{"PlantA", "PlantB", "PlantC"}, res.Aggregate.Columns)
	assert.Equal(t, int64(8), res.Aggregate.GrandTotal().IntPart())
	repo.AssertExpectations(t)
}

func TestEngine_Run_MetStatisticsUsesAnalysisSubset(t *testing.T) {
	repo := new(mocks.MockLabResultRepo)
	repo.On("ListResults", mock.Anything, mock.Anything).Return([]domain.LabResult{
		{ProductionDate: day(2024, 1, 5), Fe: dec("1")},
	}, nil)

	res, err := aggregate.NewEngine(repo).Run(context.Background(), query(domain.KindMetStatistics))
	require.NoError(t, err)
	assert.Contains(t, res.Aggregate.Columns, "Al2O3")
	assert.NotContains(t, res.Aggregate.Columns, "Au")
}

func TestEngine_Run_StoreFailureIsDependencyError(t *testing.T) {
	repo := new(mocks.MockLabResultRepo)
	repo.On("ListResults", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: refused"))

	_, err := aggregate.NewEngine(repo).Run(context.Background(), query(domain.KindGeology))

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDependencyFailure))
	var dep *domain.DependencyError
	require.True(t, errors.As(err, &dep))
	assert.Equal(t, "query", dep.Stage)
}

func TestEngine_Run_CancelledBeforeQuery(t *testing.T) {
	repo := new(mocks.MockLabResultRepo)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := aggregate.NewEngine(repo).Run(ctx, query(domain.KindGeology))

	assert.True(t, errors.Is(err, context.Canceled))
	repo.AssertNotCalled(t, "ListResults", mock.Anything, mock.Anything)
}

func TestEngine_Run_UnknownKind(t *testing.T) {
	_, err := aggregate.NewEngine(new(mocks.MockLabResultRepo)).Run(context.Background(), query("assay-soup"))
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestEngine_Run_WarnsOnReportedBeforeProduction(t *testing.T) {
	repo := new(mocks.MockLabResultRepo)
	repo.On("ListResults", mock.Anything, mock.Anything).Return([]domain.LabResult{
		{LabRequestID: 1, JobNumber: "J-1", ProductionDate: day(2024, 1, 5), DateReported: day(2024, 1, 4)},
		{LabRequestID: 1, JobNumber: "J-1", ProductionDate: day(2024, 1, 5), DateReported: day(2024, 1, 4)},
		{LabRequestID: 2, JobNumber: "J-2", ProductionDate: day(2024, 1, 5), DateReported: day(2024, 1, 6)},
	}, nil)

	res, err := aggregate.NewEngine(repo).Run(context.Background(), query(domain.KindGeology))
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "J-1")
	assert.Equal(t, day(2024, 1, 5), res.FirstProductionDate)
}

func TestKinds_AllLookupable(t *testing.T) {
	for _, k := range aggregate.Kinds() {
		got, ok := aggregate.Lookup(k.Tag)
		require.True(t, ok, k.Tag)
		assert.NotEmpty(t, got.FilePrefix)
		assert.NotEmpty(t, got.Title)
	}
	_, ok := aggregate.Lookup("nope")
	assert.False(t, ok)
}
