package kaisar

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// NormalizeProxy adds the http:// scheme to proxies written as host:port
func NormalizeProxy(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if strings.Contains(p, "://") {
		return p
	}
	return "http://" + p
}

// DisplayProxy returns the proxy host without credentials, for logs
func DisplayProxy(p string) string {
	if p == "" {
		return "no proxy"
	}
	u, err := url.Parse(NormalizeProxy(p))
	if err != nil || u.Host == "" {
		return "invalid proxy"
	}
	return u.Host
}

// NewHTTPClient builds an HTTP client that optionally routes through proxyURL.
// Supported schemes are http, https and socks5.
func NewHTTPClient(proxyURL string, timeout time.Duration) (*http.Client, error) {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.Proxy = nil

	if proxyURL != "" {
		u, err := url.Parse(NormalizeProxy(proxyURL))
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %q: %w", DisplayProxy(proxyURL), err)
		}

		switch u.Scheme {
		case "http", "https":
			tr.Proxy = http.ProxyURL(u)
		case "socks5", "socks5h":
			var auth *proxy.Auth
			if u.User != nil {
				pass, _ := u.User.Password()
				auth = &proxy.Auth{
					User:     u.User.Username(),
					Password: pass,
				}
			}
			d, err := proxy.SOCKS5("tcp", u.Host, auth, proxy.Direct)
			if err != nil {
				return nil, fmt.Errorf("failed to create socks5 dialer: %w", err)
			}
			if cd, ok := d.(proxy.ContextDialer); ok {
				tr.DialContext = cd.DialContext
			} else {
				tr.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
					return d.Dial(network, addr)
				}
			}
		default:
			return nil, fmt.Errorf("unsupported proxy scheme: %s", u.Scheme)
		}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: tr,
	}, nil
}
