package testutils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"
)

// MockRateSourceServer serves {"rates": ..., "updated_at": ...} like the
// marketplace's internal rates endpoint
type MockRateSourceServer struct {
	server   *httptest.Server
	requests atomic.Int64

	mutex      sync.Mutex
	statusCode int
	body       string
	rates      map[string]float64
	updatedAt  time.Time
	delay      time.Duration
	release    chan struct{}
}

// NewMockRateSourceServer creates a server answering with MockRates
func NewMockRateSourceServer() *MockRateSourceServer {
	mock := &MockRateSourceServer{
		statusCode: http.StatusOK,
		rates:      MockRates(),
		updatedAt:  MockUpdatedAt(),
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handler))
	return mock
}

func (m *MockRateSourceServer) handler(w http.ResponseWriter, r *http.Request) {
	m.requests.Add(1)

	m.mutex.Lock()
	statusCode, body, rates, updatedAt := m.statusCode, m.body, m.rates, m.updatedAt
	delay, release := m.delay, m.release
	m.mutex.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if body != "" {
		w.Write([]byte(body))
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"rates":      rates,
		"updated_at": updatedAt.Format(time.RFC3339),
	})
}

// URL returns the mock server URL
func (m *MockRateSourceServer) URL() string {
	return m.server.URL
}

// Close closes the mock server
func (m *MockRateSourceServer) Close() {
	m.mutex.Lock()
	if m.release != nil {
		select {
		case <-m.release:
		default:
			close(m.release)
		}
	}
	m.mutex.Unlock()
	m.server.Close()
}

// Requests returns how many requests the server has received
func (m *MockRateSourceServer) Requests() int64 {
	return m.requests.Load()
}

// SetRates replaces the served table and timestamp
func (m *MockRateSourceServer) SetRates(rates map[string]float64, updatedAt time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.rates = rates
	m.updatedAt = updatedAt
	m.body = ""
	m.statusCode = http.StatusOK
}

// SetStatus makes the server answer with statusCode
func (m *MockRateSourceServer) SetStatus(statusCode int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.statusCode = statusCode
}

// SetRawBody makes the server answer with body verbatim
func (m *MockRateSourceServer) SetRawBody(body string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.body = body
}

// SetDelay delays every response
func (m *MockRateSourceServer) SetDelay(delay time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.delay = delay
}

// Hold blocks responses until Release is called
func (m *MockRateSourceServer) Hold() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.release = make(chan struct{})
}

// Release unblocks responses held by Hold
func (m *MockRateSourceServer) Release() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.release != nil {
		close(m.release)
		m.release = nil
	}
}
