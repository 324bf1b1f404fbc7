package records_test

import (
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/folioworks/folio/pkg/recordssdk"
)

// TestMetricsEndpoint verifies request counters are exported after traffic.
func TestMetricsEndpoint(t *testing.T) {
	baseURL, cleanup := setupRecordsContainer(t)
	defer cleanup()

	client := recordssdk.NewSDKClient(baseURL)
	ctx := t.Context()

	// Generate some traffic first so the counters exist
	handle := uniqueHandle("observed")
	registerAccount(t, client, handle)
	_, err := client.ListAccounts(ctx, recordssdk.ListOptions{})
	require.NoError(t, err)

	resp, err := http.Get(baseURL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	exposition := string(body)
	require.Contains(t, exposition, "folio_records_http_requests_total",
		"Request counter should be exported")
	require.Contains(t, exposition, `route="/v1/accounts"`,
		"Counters should be labelled by route")

	t.Logf("Metrics endpoint exports labelled request counters")
}

// TestSwaggerEndpoint verifies the generated API document is served.
func TestSwaggerEndpoint(t *testing.T) {
	baseURL, cleanup := setupRecordsContainer(t)
	defer cleanup()

	resp, err := http.Get(baseURL + "/swagger/doc.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "Folio Records Service API")

	t.Logf("Swagger document is served")
}
