package http

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/rescale/box-browse/internal/config"
)

// TestProxyFuncWithBypass_EmptyNoProxy verifies that an empty noProxy always routes through proxy.
func TestProxyFuncWithBypass_EmptyNoProxy(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "")

	req, _ := http.NewRequest("GET", "https://api.example.com/data", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected proxy URL, got nil (direct)")
	}
	if result.Host != "proxy.corp:8080" {
		t.Errorf("expected proxy host proxy.corp:8080, got %s", result.Host)
	}
}

// TestProxyFuncWithBypass_WildcardDomain verifies *.example.com bypasses api.example.com.
func TestProxyFuncWithBypass_WildcardDomain(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "*.example.com")

	// Subdomain should bypass proxy
	req, _ := http.NewRequest("GET", "https://api.example.com/data", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil (bypass) for api.example.com, got %v", result)
	}
}

// TestProxyFuncWithBypass_ExactDomain verifies example.com bypasses root and subdomains.
func TestProxyFuncWithBypass_ExactDomain(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "example.com")

	// Root domain should bypass
	req, _ := http.NewRequest("GET", "https://example.com/data", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil (bypass) for example.com, got %v", result)
	}

	// Subdomain should also bypass: httpproxy matches subdomains of a bare domain
	req2, _ := http.NewRequest("GET", "https://api.example.com/data", nil)
	result2, err := proxyFunc(req2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result2 != nil {
		t.Errorf("expected nil (bypass) for api.example.com, got %v", result2)
	}
}

// TestProxyFuncWithBypass_CIDR verifies IP/CIDR range matching.
func TestProxyFuncWithBypass_CIDR(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "10.0.0.0/8")

	// IP in range should bypass
	req, _ := http.NewRequest("GET", "http://10.1.2.3:8080/api", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil (bypass) for 10.1.2.3, got %v", result)
	}
}

// TestProxyFuncWithBypass_NonMatchingHost verifies non-matching hosts route through proxy.
func TestProxyFuncWithBypass_NonMatchingHost(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "*.internal.corp,10.0.0.0/8")

	// External host should use proxy
	req, _ := http.NewRequest("GET", "https://api.box.com/2.0/folders/0", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected proxy URL for api.box.com, got nil (direct)")
	}
	if result.Host != "proxy.corp:8080" {
		t.Errorf("expected proxy host proxy.corp:8080, got %s", result.Host)
	}
}

// TestProxyFuncWithBypass_MultiplePatterns verifies comma-separated patterns work.
func TestProxyFuncWithBypass_MultiplePatterns(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "*.example.com, 192.168.0.0/16, internal.corp")

	tests := []struct {
		name       string
		url        string
		wantBypass bool
	}{
		{"wildcard match", "https://api.example.com/data", true},
		{"cidr match", "http://192.168.1.100/api", true},
		{"exact domain match", "https://internal.corp/status", true},
		{"non-match", "https://api.box.com/2.0/folders/0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("GET", tt.url, nil)
			result, err := proxyFunc(req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantBypass && result != nil {
				t.Errorf("expected bypass (nil) for %s, got %v", tt.url, result)
			}
			if !tt.wantBypass && result == nil {
				t.Errorf("expected proxy for %s, got nil (bypass)", tt.url)
			}
		})
	}
}

func TestBuildProxyURL(t *testing.T) {
	cfg := config.Default()
	cfg.ProxyHost = "proxy.corp"

	u := buildProxyURL(cfg)
	if u.Host != "proxy.corp:8080" {
		t.Errorf("Host = %q, want proxy.corp:8080", u.Host)
	}
	if u.User != nil {
		t.Errorf("User = %v, want nil without credentials", u.User)
	}

	cfg.ProxyPort = 3128
	cfg.ProxyUser = "jdoe"
	u = buildProxyURL(cfg)
	if u.User != nil {
		t.Error("user without password must not be embedded")
	}

	cfg.ProxyPassword = "pw"
	u = buildProxyURL(cfg)
	if u.Host != "proxy.corp:3128" {
		t.Errorf("Host = %q, want proxy.corp:3128", u.Host)
	}
	if pw, _ := u.User.Password(); u.User.Username() != "jdoe" || pw != "pw" {
		t.Errorf("User = %v, want jdoe:pw", u.User)
	}
}

func TestNeedsProxyPassword(t *testing.T) {
	tests := []struct {
		mode, user, password string
		want                 bool
	}{
		{"no-proxy", "jdoe", "", false},
		{"system", "jdoe", "", false},
		{"basic", "", "", false},
		{"basic", "jdoe", "", true},
		{"NTLM", "jdoe", "", true},
		{"ntlm", "jdoe", "pw", false},
	}
	for _, tt := range tests {
		cfg := config.Default()
		cfg.ProxyMode = tt.mode
		cfg.ProxyUser = tt.user
		cfg.ProxyPassword = tt.password
		if got := NeedsProxyPassword(cfg); got != tt.want {
			t.Errorf("NeedsProxyPassword(%s, %q, %q) = %v, want %v", tt.mode, tt.user, tt.password, got, tt.want)
		}
	}
}

func TestConfigureHTTPClientModes(t *testing.T) {
	cfg := config.Default()

	client, err := ConfigureHTTPClient(cfg)
	if err != nil {
		t.Fatalf("no-proxy: %v", err)
	}
	if tr, ok := client.Transport.(*http.Transport); !ok || tr.Proxy != nil {
		t.Error("no-proxy mode should use a plain transport without proxy")
	}

	cfg.ProxyMode = "basic"
	client, err = ConfigureHTTPClient(cfg)
	if err != nil {
		t.Fatalf("basic without host: %v", err)
	}
	if tr := client.Transport.(*http.Transport); tr.Proxy != nil {
		t.Error("basic mode without host should fall back to no proxy")
	}

	cfg.ProxyMode = "socks"
	if _, err := ConfigureHTTPClient(cfg); err == nil {
		t.Error("unsupported mode should fail")
	}
}

func TestNewAPIClientDisableHTTP2(t *testing.T) {
	t.Setenv("DISABLE_HTTP2", "true")

	client, err := NewAPIClient(config.Default())
	if err != nil {
		t.Fatalf("NewAPIClient() error = %v", err)
	}
	tr := client.Transport.(*http.Transport)
	if tr.ForceAttemptHTTP2 {
		t.Error("ForceAttemptHTTP2 should be false when DISABLE_HTTP2=true")
	}
	if len(tr.TLSNextProto) != 0 {
		t.Error("TLSNextProto should be empty when HTTP/2 is disabled")
	}
}

func TestShouldWarmup(t *testing.T) {
	tests := []struct {
		mode, user, password string
		warmup, proxied      bool
		want                 bool
	}{
		{"no-proxy", "", "", true, false, false},
		{"system", "", "", true, true, true},
		{"system", "", "", false, true, false},
		{"basic", "jdoe", "", true, true, false},
		{"basic", "jdoe", "pw", true, true, true},
		{"ntlm", "jdoe", "pw", true, false, false},
	}
	for _, tt := range tests {
		cfg := config.Default()
		cfg.ProxyWarmup = tt.warmup
		cfg.ProxyUser = tt.user
		cfg.ProxyPassword = tt.password
		if got := shouldWarmup(cfg, tt.mode, tt.proxied); got != tt.want {
			t.Errorf("shouldWarmup(%s, warmup=%v, proxied=%v) = %v, want %v", tt.mode, tt.warmup, tt.proxied, got, tt.want)
		}
	}
}
