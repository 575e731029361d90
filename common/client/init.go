// Package client builds the shared outbound HTTP client used to call
// upstream providers. Grounded on the teacher's common/client/init.go,
// trimmed to this gateway's single outbound concern: dialing configured
// provider base URLs. The teacher's SSRF dial guard existed to protect
// fetches of arbitrary user-supplied URLs (image inputs); this gateway
// never dials a URL that didn't come from operator-owned provider
// configuration, so that guard has no call site here.
package client

import (
	"crypto/tls"
	"net/http"
	"time"
)

// HTTPClient is the shared outbound client used for all provider calls.
// Its own Timeout is left at zero; each attempt attaches a per-request
// deadline via context so every candidate carries its own upstream
// timeout (spec §4.5 step 7, bounded 1-300s).
var HTTPClient *http.Client

func init() {
	Init()
}

// Init (re)builds HTTPClient. Exposed so cmd/router can rebuild it after
// tunables are parsed from env/flags.
func Init() {
	HTTPClient = &http.Client{
		Transport: &http.Transport{
			// Disable HTTP/2 to avoid spurious stream resets against
			// providers with flaky h2 support, matching the teacher's
			// common/client/init.go choice.
			TLSNextProto:        make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
