package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fxpocket/fxpocket/pkg/domain"
	"github.com/fxpocket/fxpocket/pkg/provider"
)

// MockRateSource is a mock implementation for testing.
type MockRateSource struct {
	mock.Mock
}

func (m *MockRateSource) FetchLatest(ctx context.Context, from, to string) (*provider.LatestResponse, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.LatestResponse), args.Error(1)
}

func (m *MockRateSource) FetchHistory(ctx context.Context, from, to string, start, end time.Time) (*provider.HistoryResponse, error) {
	args := m.Called(ctx, from, to, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.HistoryResponse), args.Error(1)
}

// MockStore is a mock store implementation for testing.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) SaveRate(ctx context.Context, rate *domain.ExchangeRate) error {
	return m.Called(ctx, rate).Error(0)
}

func (m *MockStore) GetRate(ctx context.Context, from, to string) (*domain.ExchangeRate, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeRate), args.Error(1)
}

func (m *MockStore) IsFresh(ctx context.Context, from, to string) bool {
	return m.Called(ctx, from, to).Bool(0)
}

func (m *MockStore) SaveHistory(ctx context.Context, from, to string, points []domain.RatePoint) error {
	return m.Called(ctx, from, to, points).Error(0)
}

func (m *MockStore) GetHistory(ctx context.Context, from, to string) ([]domain.RatePoint, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RatePoint), args.Error(1)
}

func (m *MockStore) GetValue(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockStore) SetValue(ctx context.Context, key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *MockStore) ClearAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockStore) ClearRates(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockStore) ClearHistory(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func newTestRepo(source *MockRateSource, st *MockStore) *RatesRepository {
	return NewRatesRepository(source, st, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGetLatestRate_IdentityConversion(t *testing.T) {
	source := &MockRateSource{}
	st := &MockStore{}
	repo := newTestRepo(source, st)

	rate, fromCache, err := repo.GetLatestRate(context.Background(), "USD", "USD")
	require.NoError(t, err)
	require.NotNil(t, rate)
	assert.InEpsilon(t, 1.0, rate.Rate, 0.0001)
	assert.Equal(t, "USD", rate.FromCurrency)
	assert.Equal(t, "USD", rate.ToCurrency)
	assert.False(t, fromCache)
	assert.WithinDuration(t, time.Now(), rate.Timestamp, time.Second)

	source.AssertNotCalled(t, "FetchLatest")
	st.AssertNotCalled(t, "GetRate")
}

func TestGetLatestRate_CacheHitShortCircuitsRegardlessOfAge(t *testing.T) {
	source := &MockRateSource{}
	st := &MockStore{}
	repo := newTestRepo(source, st)

	// An entry aged far past every freshness horizon: the read path never
	// consults freshness, so it is returned all the same.
	ancient := &domain.ExchangeRate{
		FromCurrency: "USD",
		ToCurrency:   "EUR",
		Rate:         0.91,
		Timestamp:    time.Now().Add(-48 * time.Hour),
	}
	st.On("GetRate", mock.Anything, "USD", "EUR").Return(ancient, nil).Once()

	rate, fromCache, err := repo.GetLatestRate(context.Background(), "USD", "EUR")
	require.NoError(t, err)
	assert.Same(t, ancient, rate)
	assert.True(t, fromCache)

	source.AssertNotCalled(t, "FetchLatest")
	st.AssertExpectations(t)
}

func TestGetLatestRate_NetworkThenCache(t *testing.T) {
	source := &MockRateSource{}
	st := &MockStore{}
	repo := newTestRepo(source, st)

	st.On("GetRate", mock.Anything, "USD", "EUR").Return(nil, nil).Once()
	source.On("FetchLatest", mock.Anything, "USD", "EUR").Return(&provider.LatestResponse{
		Amount: 1.0,
		Base:   "USD",
		Date:   "2024-01-15",
		Rates:  map[string]float64{"EUR": 0.85},
	}, nil).Once()

	var saved *domain.ExchangeRate
	st.On("SaveRate", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*domain.ExchangeRate)
	}).Return(nil).Once()

	rate, fromCache, err := repo.GetLatestRate(context.Background(), "USD", "EUR")
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.InEpsilon(t, 0.85, rate.Rate, 0.0001)
	assert.Equal(t, "USD", rate.FromCurrency)
	assert.Equal(t, "EUR", rate.ToCurrency)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), rate.Timestamp)

	require.NotNil(t, saved)
	assert.Equal(t, rate, saved, "the returned value is what got persisted")
	st.AssertExpectations(t)
	source.AssertExpectations(t)
}

func TestGetLatestRate_StaleFallbackAfterNetworkFailure(t *testing.T) {
	source := &MockRateSource{}
	st := &MockStore{}
	repo := newTestRepo(source, st)

	stale := &domain.ExchangeRate{
		FromCurrency: "USD",
		ToCurrency:   "EUR",
		Rate:         0.83,
		Timestamp:    time.Now().Add(-24 * time.Hour),
	}

	// Miss on the initial check, hit on the recovery re-read: the entry
	// appeared between the two (the only way the catch-path is reachable).
	st.On("GetRate", mock.Anything, "USD", "EUR").Return(nil, nil).Once()
	source.On("FetchLatest", mock.Anything, "USD", "EUR").
		Return(nil, domain.ErrNetwork).Once()
	st.On("GetRate", mock.Anything, "USD", "EUR").Return(stale, nil).Once()

	rate, fromCache, err := repo.GetLatestRate(context.Background(), "USD", "EUR")
	require.NoError(t, err, "stale fallback swallows the network failure")
	assert.Same(t, stale, rate)
	assert.True(t, fromCache)
	st.AssertExpectations(t)
	source.AssertExpectations(t)
}

func TestGetLatestRate_NetworkFailureWithoutFallbackPropagates(t *testing.T) {
	source := &MockRateSource{}
	st := &MockStore{}
	repo := newTestRepo(source, st)

	st.On("GetRate", mock.Anything, "USD", "EUR").Return(nil, nil).Twice()
	source.On("FetchLatest", mock.Anything, "USD", "EUR").
		Return(nil, domain.ErrRateLimited).Once()

	_, _, err := repo.GetLatestRate(context.Background(), "USD", "EUR")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited, "typed failures pass through unchanged")
	assert.NotErrorIs(t, err, domain.ErrUnknown)
}

func TestGetLatestRate_UntypedFailureClassifiedAsUnknown(t *testing.T) {
	source := &MockRateSource{}
	st := &MockStore{}
	repo := newTestRepo(source, st)

	st.On("GetRate", mock.Anything, "USD", "EUR").Return(nil, nil).Twice()
	source.On("FetchLatest", mock.Anything, "USD", "EUR").
		Return(nil, errors.New("something odd")).Once()

	_, _, err := repo.GetLatestRate(context.Background(), "USD", "EUR")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknown)
}

func TestGetLatestRate_EmptyRatesMapIsParseError(t *testing.T) {
	source := &MockRateSource{}
	st := &MockStore{}
	repo := newTestRepo(source, st)

	st.On("GetRate", mock.Anything, "USD", "EUR").Return(nil, nil).Twice()
	source.On("FetchLatest", mock.Anything, "USD", "EUR").Return(&provider.LatestResponse{
		Date:  "2024-01-15",
		Rates: map[string]float64{},
	}, nil).Once()

	_, _, err := repo.GetLatestRate(context.Background(), "USD", "EUR")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrParse)
	st.AssertNotCalled(t, "SaveRate")
}

func TestGetLatestRate_MissingTargetCodeIsParseError(t *testing.T) {
	source := &MockRateSource{}
	st := &MockStore{}
	repo := newTestRepo(source, st)

	st.On("GetRate", mock.Anything, "USD", "EUR").Return(nil, nil).Twice()
	source.On("FetchLatest", mock.Anything, "USD", "EUR").Return(&provider.LatestResponse{
		Date:  "2024-01-15",
		Rates: map[string]float64{"GBP": 0.79},
	}, nil).Once()

	_, _, err := repo.GetLatestRate(context.Background(), "USD", "EUR")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestGetHistoricalRates_IdentitySeries(t *testing.T) {
	source := &MockRateSource{}
	st := &MockStore{}
	repo := newTestRepo(source, st)

	points, err := repo.GetHistoricalRates(context.Background(), "EUR", "EUR", 7)
	require.NoError(t, err)
	require.Len(t, points, 7)

	today := time.Now()
	last := points[len(points)-1]
	assert.Equal(t, today.Day(), last.Date.Day())
	for i, p := range points {
		assert.InEpsilon(t, 1.0, p.Value, 0.0001)
		if i > 0 {
			assert.True(t, points[i-1].Date.Before(p.Date))
		}
	}
	source.AssertNotCalled(t, "FetchHistory")
}

func TestGetHistoricalRates_CachedSeriesReturnedAsIs(t *testing.T) {
	source := &MockRateSource{}
	st := &MockStore{}
	repo := newTestRepo(source, st)

	cached := []domain.RatePoint{
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Value: 0.84},
	}
	st.On("GetHistory", mock.Anything, "USD", "EUR").Return(cached, nil).Once()

	points, err := repo.GetHistoricalRates(context.Background(), "USD", "EUR", 30)
	require.NoError(t, err)
	assert.Equal(t, cached, points)
	source.AssertNotCalled(t, "FetchHistory")
}

func TestGetHistoricalRates_SortsAscendingByDate(t *testing.T) {
	source := &MockRateSource{}
	st := &MockStore{}
	repo := newTestRepo(source, st)

	st.On("GetHistory", mock.Anything, "USD", "EUR").Return(nil, nil).Once()
	source.On("FetchHistory", mock.Anything, "USD", "EUR", mock.Anything, mock.Anything).
		Return(&provider.HistoryResponse{
			Rates: map[string]map[string]float64{
				"2024-01-03": {"EUR": 0.86},
				"2024-01-01": {"EUR": 0.84},
				"2024-01-02": {"EUR": 0.85},
			},
		}, nil).Once()
	st.On("SaveHistory", mock.Anything, "USD", "EUR", mock.Anything).Return(nil).Once()

	points, err := repo.GetHistoricalRates(context.Background(), "USD", "EUR", 3)
	require.NoError(t, err)
	require.Len(t, points, 3)
	for i := 1; i < len(points); i++ {
		assert.True(t, points[i-1].Date.Before(points[i].Date), "strictly ascending")
	}
	assert.InEpsilon(t, 0.84, points[0].Value, 0.0001)
	assert.InEpsilon(t, 0.86, points[2].Value, 0.0001)
}

func TestGetHistoricalRates_MalformedRatesYieldsEmptySeries(t *testing.T) {
	source := &MockRateSource{}
	st := &MockStore{}
	repo := newTestRepo(source, st)

	st.On("GetHistory", mock.Anything, "USD", "EUR").Return(nil, nil).Once()
	source.On("FetchHistory", mock.Anything, "USD", "EUR", mock.Anything, mock.Anything).
		Return(&provider.HistoryResponse{Rates: nil}, nil).Once()

	points, err := repo.GetHistoricalRates(context.Background(), "USD", "EUR", 7)
	require.NoError(t, err, "missing rates map is not an error")
	assert.Empty(t, points)
	st.AssertNotCalled(t, "SaveHistory")
}

func TestGetHistoricalRates_EmptySeriesIsNotPinned(t *testing.T) {
	source := &MockRateSource{}
	st := &MockStore{}
	repo := newTestRepo(source, st)

	st.On("GetHistory", mock.Anything, "USD", "EUR").Return(nil, nil).Twice()
	source.On("FetchHistory", mock.Anything, "USD", "EUR", mock.Anything, mock.Anything).
		Return(&provider.HistoryResponse{Rates: nil}, nil).Once()
	source.On("FetchHistory", mock.Anything, "USD", "EUR", mock.Anything, mock.Anything).
		Return(&provider.HistoryResponse{Rates: map[string]map[string]float64{
			"2024-01-15": {"EUR": 0.85},
		}}, nil).Once()
	st.On("SaveHistory", mock.Anything, "USD", "EUR", mock.Anything).Return(nil).Once()

	points, err := repo.GetHistoricalRates(context.Background(), "USD", "EUR", 7)
	require.NoError(t, err)
	require.Empty(t, points)

	// The empty result was not cached, so the next read goes upstream again.
	points, err = repo.GetHistoricalRates(context.Background(), "USD", "EUR", 7)
	require.NoError(t, err)
	require.Len(t, points, 1)
	source.AssertNumberOfCalls(t, "FetchHistory", 2)
}

func TestGetHistoricalRates_FetchFailurePropagatesClassified(t *testing.T) {
	source := &MockRateSource{}
	st := &MockStore{}
	repo := newTestRepo(source, st)

	st.On("GetHistory", mock.Anything, "USD", "EUR").Return(nil, nil).Once()
	source.On("FetchHistory", mock.Anything, "USD", "EUR", mock.Anything, mock.Anything).
		Return(nil, domain.ErrNetwork).Once()

	_, err := repo.GetHistoricalRates(context.Background(), "USD", "EUR", 7)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNetwork)
}
