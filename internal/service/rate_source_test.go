package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/dalfonso89/marketplace-currency-service/internal/currency"
	"github.com/dalfonso89/marketplace-currency-service/internal/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPRateSource_FetchRates(t *testing.T) {
	mockServer := testutils.NewMockRateSourceServer()
	defer mockServer.Close()

	source := NewHTTPRateSource(mockServer.URL(), 2*time.Second, testutils.MockLogger())
	assert.Equal(t, mockServer.URL(), source.Name())

	fetched, err := source.FetchRates(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 209.5, fetched.Rates["GYD"])
	assert.NotContains(t, fetched.Rates, currency.BaseCurrency)
	assert.True(t, testutils.MockUpdatedAt().Equal(fetched.UpdatedAt))
	assert.Equal(t, mockServer.URL(), fetched.Source)
	assert.EqualValues(t, 1, mockServer.Requests())
}

func TestHTTPRateSource_Failures(t *testing.T) {
	incomplete := testutils.MockRates()
	delete(incomplete, "GYD")

	tests := []struct {
		name      string
		configure func(*testutils.MockRateSourceServer)
		errorType ErrorType
	}{
		{
			name:      "server error",
			configure: func(m *testutils.MockRateSourceServer) { m.SetStatus(http.StatusInternalServerError) },
			errorType: ErrorTypeBadStatus,
		},
		{
			name:      "not found",
			configure: func(m *testutils.MockRateSourceServer) { m.SetStatus(http.StatusNotFound) },
			errorType: ErrorTypeBadStatus,
		},
		{
			name:      "not json",
			configure: func(m *testutils.MockRateSourceServer) { m.SetRawBody("<html>maintenance</html>") },
			errorType: ErrorTypeInvalidResponse,
		},
		{
			name:      "missing rates",
			configure: func(m *testutils.MockRateSourceServer) { m.SetRawBody(`{"updated_at":"2026-10-01T12:00:00Z"}`) },
			errorType: ErrorTypeInvalidResponse,
		},
		{
			name:      "missing updated_at",
			configure: func(m *testutils.MockRateSourceServer) { m.SetRawBody(`{"rates":{"GYD":210}}`) },
			errorType: ErrorTypeInvalidResponse,
		},
		{
			name:      "bad updated_at",
			configure: func(m *testutils.MockRateSourceServer) { m.SetRawBody(`{"rates":{"GYD":210},"updated_at":"yesterday"}`) },
			errorType: ErrorTypeInvalidResponse,
		},
		{
			name:      "incomplete table",
			configure: func(m *testutils.MockRateSourceServer) { m.SetRates(incomplete, testutils.MockUpdatedAt()) },
			errorType: ErrorTypeInvalidResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockServer := testutils.NewMockRateSourceServer()
			defer mockServer.Close()
			tt.configure(mockServer)

			source := NewHTTPRateSource(mockServer.URL(), 2*time.Second, testutils.MockLogger())
			_, err := source.FetchRates(context.Background())

			require.Error(t, err)
			assert.Equal(t, tt.errorType, ClassifyError(err))
		})
	}
}

func TestHTTPRateSource_IncompleteTableWrapsCause(t *testing.T) {
	mockServer := testutils.NewMockRateSourceServer()
	defer mockServer.Close()
	rates := testutils.MockRates()
	delete(rates, "EUR")
	mockServer.SetRates(rates, testutils.MockUpdatedAt())

	source := NewHTTPRateSource(mockServer.URL(), 2*time.Second, testutils.MockLogger())
	_, err := source.FetchRates(context.Background())

	assert.ErrorIs(t, err, currency.ErrIncompleteTable)
}

func TestHTTPRateSource_NetworkError(t *testing.T) {
	mockServer := testutils.NewMockRateSourceServer()
	url := mockServer.URL()
	mockServer.Close()

	source := NewHTTPRateSource(url, time.Second, testutils.MockLogger())
	_, err := source.FetchRates(context.Background())

	require.Error(t, err)
	assert.Equal(t, ErrorTypeNetworkError, ClassifyError(err))
}

func TestHTTPRateSource_ContextCancelled(t *testing.T) {
	mockServer := testutils.NewMockRateSourceServer()
	defer mockServer.Close()
	mockServer.SetDelay(time.Second)

	ctx, cancel := testutils.MockContextWithTimeout(20 * time.Millisecond)
	defer cancel()

	source := NewHTTPRateSource(mockServer.URL(), 5*time.Second, testutils.MockLogger())
	_, err := source.FetchRates(ctx)

	require.Error(t, err)
	assert.Equal(t, ErrorTypeContextCancelled, ClassifyError(err))
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, ErrorTypeUnknown, ClassifyError(nil))
	assert.Equal(t, ErrorTypeUnknown, ClassifyError(errors.New("boom")))
	assert.Equal(t, ErrorTypeContextCancelled, ClassifyError(context.Canceled))
	assert.Equal(t, ErrorTypeBadStatus, ClassifyError(newServiceError(ErrorTypeBadStatus, "status 500", nil)))

	wrapped := newServiceError(ErrorTypeSourceFailed, "all failed", newServiceError(ErrorTypeBadStatus, "status 500", nil))
	assert.Equal(t, ErrorTypeSourceFailed, ClassifyError(wrapped))
	assert.Equal(t, "all failed: status 500", wrapped.Error())
	assert.Equal(t, "bad_status", ErrorTypeBadStatus.String())
}
