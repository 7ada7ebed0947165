package resilience_test

import (
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadewalk/shadewalk/internal/provider/resilience"
)

func newRegisteredClient(t *testing.T, registry *resilience.Registry, name string) *resilience.Client {
	t.Helper()
	cfg := resilience.DefaultClientConfig(name)
	cfg.Registry = registry
	return resilience.NewClient(cfg)
}

func TestRegistry_RegisterAndGetHealth(t *testing.T) {
	registry := resilience.NewRegistry()
	client := newRegisteredClient(t, registry, "overpass")

	// Constructing the client registers it.
	assert.Equal(t, 1, registry.ProviderCount())
	assert.Equal(t, "overpass", client.Name())

	health := registry.GetHealth("overpass")
	require.NotNil(t, health)
	assert.Equal(t, "overpass", health.Name)
	assert.Equal(t, gobreaker.StateClosed, health.CircuitState)
	assert.True(t, health.IsHealthy())
	assert.False(t, health.IsDegraded())
	assert.False(t, health.IsUnhealthy())
}

func TestRegistry_Unregister(t *testing.T) {
	registry := resilience.NewRegistry()
	_ = newRegisteredClient(t, registry, "overpass")
	require.Equal(t, 1, registry.ProviderCount())

	registry.Unregister("overpass")

	assert.Equal(t, 0, registry.ProviderCount())
	assert.Nil(t, registry.GetHealth("overpass"))
}

func TestRegistry_RecordSuccess(t *testing.T) {
	registry := resilience.NewRegistry()
	_ = newRegisteredClient(t, registry, "overpass")

	health := registry.GetHealth("overpass")
	require.NotNil(t, health)
	assert.Nil(t, health.LastSuccessAt, "no success recorded yet")

	registry.RecordSuccess("overpass")

	health = registry.GetHealth("overpass")
	require.NotNil(t, health)
	require.NotNil(t, health.LastSuccessAt)
	assert.WithinDuration(t, time.Now(), *health.LastSuccessAt, time.Second)
}

func TestRegistry_RecordFailure(t *testing.T) {
	registry := resilience.NewRegistry()
	_ = newRegisteredClient(t, registry, "openrouteservice")

	health := registry.GetHealth("openrouteservice")
	require.NotNil(t, health)
	assert.Nil(t, health.LastFailureAt, "no failure recorded yet")
	assert.Empty(t, health.LastError)

	registry.RecordFailure("openrouteservice", assert.AnError)

	health = registry.GetHealth("openrouteservice")
	require.NotNil(t, health)
	require.NotNil(t, health.LastFailureAt)
	assert.WithinDuration(t, time.Now(), *health.LastFailureAt, time.Second)
	assert.Equal(t, assert.AnError.Error(), health.LastError)
}

func TestRegistry_GetAllHealth(t *testing.T) {
	registry := resilience.NewRegistry()
	providers := []string{"overpass", "openrouteservice"}
	for _, name := range providers {
		_ = newRegisteredClient(t, registry, name)
	}

	healthList := registry.GetAllHealth()
	require.Len(t, healthList, len(providers))

	seen := make(map[string]bool)
	for _, h := range healthList {
		seen[h.Name] = true
		assert.Equal(t, gobreaker.StateClosed, h.CircuitState)
	}
	for _, name := range providers {
		assert.True(t, seen[name], "missing health for %s", name)
	}
}

func TestRegistry_GetProviderNames(t *testing.T) {
	registry := resilience.NewRegistry()
	assert.Empty(t, registry.GetProviderNames())

	_ = newRegisteredClient(t, registry, "overpass")
	_ = newRegisteredClient(t, registry, "openrouteservice")

	names := registry.GetProviderNames()
	assert.Len(t, names, 2)
	assert.Contains(t, names, "overpass")
	assert.Contains(t, names, "openrouteservice")
}

func TestRegistry_UnknownProvider(t *testing.T) {
	registry := resilience.NewRegistry()

	assert.Nil(t, registry.GetHealth("nominatim"))

	// Recording against unregistered names is a no-op, not a panic.
	registry.RecordSuccess("nominatim")
	registry.RecordFailure("nominatim", assert.AnError)
	assert.Equal(t, 0, registry.ProviderCount())
}

func TestGlobalRegistry(t *testing.T) {
	assert.NotNil(t, resilience.GlobalRegistry)
}

func TestProviderHealth_States(t *testing.T) {
	tests := []struct {
		state       gobreaker.State
		isHealthy   bool
		isDegraded  bool
		isUnhealthy bool
	}{
		{gobreaker.StateClosed, true, false, false},
		{gobreaker.StateHalfOpen, false, true, false},
		{gobreaker.StateOpen, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			h := &resilience.ProviderHealth{CircuitState: tt.state}
			assert.Equal(t, tt.isHealthy, h.IsHealthy())
			assert.Equal(t, tt.isDegraded, h.IsDegraded())
			assert.Equal(t, tt.isUnhealthy, h.IsUnhealthy())
		})
	}
}
