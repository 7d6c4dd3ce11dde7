package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndCount(t *testing.T) {
	registry := prometheus.NewRegistry()
	Register(registry)

	ObserveRequest("GET", "/pokemons", 200)
	IncAuditWritten()
	IncAuditFailed()
	IncAuditDropped()
	IncImageFetch(true)
	IncImageFetch(false)
	AddAssetsSwept(2)

	families, err := registry.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"pokedex_http_requests_total",
		"pokedex_audit_entries_total",
		"pokedex_image_fetches_total",
		"pokedex_assets_swept_total",
	} {
		assert.True(t, names[want], "missing metric %s", want)
	}
}
