package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                          "/",
		"/metrics":                  "/metrics",
		"/api/users/abc":            "/api/users/:id",
		"/api/users/abc?verbose=1":  "/api/users/:id",
		"/api/tenants/abc":          "/api/tenants/:id",
		"/api/auth/sign-up":         "/api/auth/sign-up",
		"/api/permissions/s/a/r/k":  "/api/permissions/:subject/:action/:resource_id/:resource_kind",
		"/api/permissions/s/a/r":    "/api/permissions/s/a/r",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
