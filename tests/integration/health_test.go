//go:build integration

package integration

import (
	"net/http"
	"strings"
	"testing"
)

// The probe endpoints live on the raw mux next to the application routes.
// Once the compose stack is up both must report ok with no failing checks.
func TestProbeEndpoints(t *testing.T) {
	for _, path := range []string{"/livez", "/readyz"} {
		t.Run(strings.TrimPrefix(path, "/"), func(t *testing.T) {
			resp := doGet(t, path)
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("GET %s: expected 200, got %d", path, resp.StatusCode)
			}
			if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("GET %s: content type %q, want application/json", path, ct)
			}

			body := decodeJSON[healthResponse](t, resp)
			if body.Status != "ok" {
				t.Fatalf("GET %s: status %q, checks %v", path, body.Status, body.Checks)
			}
			if len(body.Checks) != 0 {
				t.Errorf("GET %s: unexpected failing checks %v", path, body.Checks)
			}
		})
	}
}

// The readiness probe pings postgres in the background; it must keep passing
// while the API is actively reading and writing through the same pool.
func TestReadyz_StableUnderTraffic(t *testing.T) {
	createProduct(t, "Integration Probe Widget", 1.50, 4)

	for i := 0; i < 5; i++ {
		listResp := doGet(t, "/products/get_all_products")
		listResp.Body.Close()

		resp := doGet(t, "/readyz")
		body := decodeJSON[healthResponse](t, resp)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK || body.Status != "ok" {
			t.Fatalf("readiness flapped on iteration %d: %d %q (checks %v)",
				i, resp.StatusCode, body.Status, body.Checks)
		}
	}
}
