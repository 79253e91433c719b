package http

import (
	"crypto/tls"
	nethttp "net/http"
	"os"

	"golang.org/x/net/http2"

	"github.com/rescale/box-browse/internal/config"
	"github.com/rescale/box-browse/internal/constants"
)

// NewAPIClient creates the HTTP client shared by listing, search and
// thumbnail requests.
//
// Key features:
//   - Proxy support (uses ConfigureHTTPClient as base)
//   - HTTP/2 multiplexing for concurrent thumbnail fetches
//   - Runtime toggle for HTTP/2 (DISABLE_HTTP2 env var)
//
// If cfg is nil, proxy settings are read from environment variables
// (HTTP_PROXY, HTTPS_PROXY, NO_PROXY).
func NewAPIClient(cfg *config.Config) (*nethttp.Client, error) {
	var baseClient *nethttp.Client
	var err error

	if cfg != nil {
		baseClient, err = ConfigureHTTPClient(cfg)
		if err != nil {
			return nil, err
		}
	} else {
		baseClient = &nethttp.Client{
			Transport: &nethttp.Transport{Proxy: nethttp.ProxyFromEnvironment},
		}
	}

	// NTLM wraps the transport in a negotiator; leave it as-is
	tr, ok := baseClient.Transport.(*nethttp.Transport)
	if !ok {
		return baseClient, nil
	}

	tr.IdleConnTimeout = constants.HTTPIdleConnTimeout
	tr.ForceAttemptHTTP2 = true
	_ = http2.ConfigureTransport(tr)

	if os.Getenv("DISABLE_HTTP2") == "true" || (proxyActive(cfg) && os.Getenv("FORCE_HTTP2") != "true") {
		disableHTTP2(tr)
	}

	baseClient.Transport = tr
	return baseClient, nil
}

// Proxies often have issues with HTTP/2 multiplexing.
func proxyActive(cfg *config.Config) bool {
	envProxy := os.Getenv("HTTP_PROXY") != "" || os.Getenv("HTTPS_PROXY") != "" ||
		os.Getenv("http_proxy") != "" || os.Getenv("https_proxy") != ""
	if cfg == nil {
		return envProxy
	}
	switch cfg.ProxyMode {
	case "no-proxy", "":
		return false
	case "system":
		return envProxy
	default:
		return true
	}
}

func disableHTTP2(tr *nethttp.Transport) {
	tr.ForceAttemptHTTP2 = false
	tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
}
