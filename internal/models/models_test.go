package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatesPayload_WireShape(t *testing.T) {
	body := []byte(`{"rates":{"USD":1,"GYD":209.5},"updated_at":"2026-10-01T12:00:00Z"}`)

	var payload RatesPayload
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, 209.5, payload.Rates["GYD"])
	assert.Equal(t, "2026-10-01T12:00:00Z", payload.UpdatedAt)
}

func TestSnapshotResponse_NeverUpdated(t *testing.T) {
	encoded, err := json.Marshal(SnapshotResponse{Base: "USD", LastUpdated: "never", State: "default"})
	require.NoError(t, err)

	assert.Contains(t, string(encoded), `"updated_at":null`)
	assert.Contains(t, string(encoded), `"last_updated":"never"`)
}
