package http

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	nethttp "net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	ntlmssp "github.com/Azure/go-ntlmssp"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http/httpproxy"

	"github.com/rescale/box-browse/internal/config"
	"github.com/rescale/box-browse/internal/constants"
)

// requestTimeout bounds a single API round trip. Per-operation deadlines
// come from the caller's context.
const requestTimeout = 120 * time.Second

const defaultProxyPort = 8080

type proxyFunc func(*nethttp.Request) (*url.URL, error)

// ConfigureHTTPClient builds the client for the configured proxy mode:
// no-proxy, system (environment), basic or ntlm.
func ConfigureHTTPClient(cfg *config.Config) (*nethttp.Client, error) {
	mode := strings.ToLower(cfg.ProxyMode)

	proxy, err := proxyForMode(cfg, mode)
	if err != nil {
		return nil, err
	}

	transport := newTransport()
	transport.Proxy = proxy

	client := &nethttp.Client{Transport: transport, Timeout: requestTimeout}
	if mode == "ntlm" && proxy != nil {
		client.Transport = ntlmssp.Negotiator{RoundTripper: transport}
	}

	if shouldWarmup(cfg, mode, proxy != nil) {
		if err := warmupProxy(client, cfg); err != nil {
			return nil, fmt.Errorf("proxy warmup failed: %w", err)
		}
	}
	return client, nil
}

func newTransport() *nethttp.Transport {
	return &nethttp.Transport{
		DialContext: (&net.Dialer{
			Timeout:   constants.HTTPDialTimeout,
			KeepAlive: constants.HTTPDialKeepAlive,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   16, // listing plus concurrent thumbnail requests share one host
		IdleConnTimeout:       constants.HTTPIdleConnTimeout,
		TLSHandshakeTimeout:   constants.HTTPTLSHandshakeTimeout,
		ExpectContinueTimeout: constants.HTTPExpectContinueTimeout,
	}
}

// proxyForMode returns nil for a direct connection.
func proxyForMode(cfg *config.Config, mode string) (proxyFunc, error) {
	switch mode {
	case "no-proxy", "":
		return nil, nil
	case "system":
		return nethttp.ProxyFromEnvironment, nil
	case "basic", "ntlm":
		// A missing host degrades to direct so "config" still works.
		if cfg.ProxyHost == "" {
			log.Warn().Str("mode", mode).Msg("proxy host is missing, connecting directly")
			return nil, nil
		}
		if mode == "basic" && cfg.ProxyUser != "" && cfg.ProxyPassword == "" {
			log.Warn().Msg("proxy user configured but password missing, proxy auth disabled")
		}
		return proxyFuncWithBypass(buildProxyURL(cfg), cfg.NoProxy), nil
	default:
		return nil, fmt.Errorf("unsupported proxy mode: %s", cfg.ProxyMode)
	}
}

// Authenticated modes skip warmup until the CLI has prompted for the password.
func shouldWarmup(cfg *config.Config, mode string, proxied bool) bool {
	if !cfg.ProxyWarmup || mode == "no-proxy" || mode == "" {
		return false
	}
	if mode == "basic" || mode == "ntlm" {
		return proxied && cfg.ProxyUser != "" && cfg.ProxyPassword != ""
	}
	return true
}

// buildProxyURL embeds credentials only when both user and password are set.
func buildProxyURL(cfg *config.Config) *url.URL {
	port := cfg.ProxyPort
	if port == 0 {
		port = defaultProxyPort
	}
	u := &url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(cfg.ProxyHost, strconv.Itoa(port)),
	}
	if cfg.ProxyUser != "" && cfg.ProxyPassword != "" {
		u.User = url.UserPassword(cfg.ProxyUser, cfg.ProxyPassword)
	}
	return u
}

// warmupProxy sends one request through the proxy to establish the
// connection. Any answer below 500 counts, including 401 for the
// anonymous request.
func warmupProxy(client *nethttp.Client, cfg *config.Config) error {
	base := cfg.APIBaseURL
	if base == "" {
		base = constants.DefaultAPIBaseURL
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.APIConnectionTestTimeout)
	defer cancel()

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, strings.TrimSuffix(base, "/")+"/users/me", nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("warmup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("warmup request returned server error: %d", resp.StatusCode)
	}
	return nil
}

// proxyFuncWithBypass routes every request through proxyURL except hosts
// matched by noProxy (hosts, domains, CIDRs; see httpproxy.Config).
func proxyFuncWithBypass(proxyURL *url.URL, noProxy string) proxyFunc {
	if noProxy == "" {
		return nethttp.ProxyURL(proxyURL)
	}
	match := (&httpproxy.Config{
		HTTPProxy:  proxyURL.String(),
		HTTPSProxy: proxyURL.String(),
		NoProxy:    noProxy,
	}).ProxyFunc()
	return func(req *nethttp.Request) (*url.URL, error) {
		result, err := match(req.URL)
		ev := log.Debug().Str("host", req.URL.Host)
		if result == nil {
			ev.Msg("proxy bypass, direct connection")
		} else {
			ev.Str("proxy", result.Host).Msg("proxied")
		}
		return result, err
	}
}

// NeedsProxyPassword reports whether an authenticated proxy mode has a user
// but no password yet, so the CLI knows to prompt.
func NeedsProxyPassword(cfg *config.Config) bool {
	switch strings.ToLower(cfg.ProxyMode) {
	case "basic", "ntlm":
		return cfg.ProxyUser != "" && cfg.ProxyPassword == ""
	}
	return false
}
