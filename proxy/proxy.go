// Package proxy relays authenticated page and asset requests to the
// upstream static origin that hosts the application's front end.
package proxy

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"
)

const (
	// indexPath is the fixed index document every directory-style path
	// normalizes to, and the fallback target for upstream 404s on
	// client-side-routed navigation.
	indexPath = "/index.html"

	// userAgent identifies the gateway on upstream requests.
	userAgent = "subtrack-gateway/1.0"

	// MarkerHeader is stamped on every relayed response so a response can
	// be traced back through the proxy hop.
	MarkerHeader = "X-Subtrack-Proxy"
)

// strippedHeaders are removed from upstream responses before relaying.
// The gateway, not the origin, is the trust boundary for embedding policy.
var strippedHeaders = []string{
	"X-Frame-Options",
	"Content-Security-Policy",
}

// Proxy forwards requests to a fixed upstream origin plus path prefix.
type Proxy struct {
	upstream string // scheme://host, no trailing slash
	prefix   string // upstream path prefix, may be empty
	client   *http.Client
	logger   *slog.Logger
}

// Option configures the Proxy.
type Option func(*Proxy)

// WithClient overrides the HTTP client used for upstream fetches.
func WithClient(client *http.Client) Option {
	return func(p *Proxy) { p.client = client }
}

// WithLogger sets the structured logger for upstream failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Proxy) { p.logger = logger }
}

// New creates a Proxy for the given upstream origin and path prefix.
func New(upstream, prefix string, opts ...Option) *Proxy {
	p := &Proxy{
		upstream: strings.TrimRight(upstream, "/"),
		prefix:   strings.TrimRight(prefix, "/"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		p.client = &http.Client{Timeout: 30 * time.Second}
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// directoryStyle reports whether the path names a document rather than an
// asset file: no extension on the final segment, including the root.
func directoryStyle(requestPath string) bool {
	return path.Ext(path.Base(requestPath)) == ""
}

// normalize maps the root and trailing-slash directory paths onto the fixed
// index document. Other extensionless paths are forwarded as-is; they
// normalize to the index only through the 404 fallback, so an upstream that
// serves pretty URLs directly still gets first crack at them.
func normalize(requestPath string) string {
	if requestPath == "" || requestPath == "/" || strings.HasSuffix(requestPath, "/") {
		return indexPath
	}
	return requestPath
}

func (p *Proxy) upstreamURL(requestPath string) string {
	return p.upstream + p.prefix + requestPath
}

func (p *Proxy) fetch(r *http.Request, requestPath string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, p.upstreamURL(requestPath), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	accept := r.Header.Get("Accept")
	if accept == "" {
		accept = "*/*"
	}
	req.Header.Set("Accept", accept)
	return p.client.Do(req)
}

// ServeHTTP relays the request to the upstream origin.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestPath := normalize(r.URL.Path)

	resp, err := p.fetch(r, requestPath)
	if err != nil {
		p.logger.Error("upstream fetch failed",
			"path", requestPath, "error", err)
		http.Error(w, fmt.Sprintf("upstream unreachable: %v", err), http.StatusBadGateway)
		return
	}

	// A 404 on a document path usually means a client-side route the
	// upstream has no file for; retry once against the index document and
	// relay that response whatever its status.
	if resp.StatusCode == http.StatusNotFound && directoryStyle(r.URL.Path) && requestPath != indexPath {
		resp.Body.Close()
		resp, err = p.fetch(r, indexPath)
		if err != nil {
			p.logger.Error("upstream index fallback failed", "error", err)
			http.Error(w, fmt.Sprintf("upstream unreachable: %v", err), http.StatusBadGateway)
			return
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		p.logger.Warn("upstream returned error status",
			"path", requestPath, "status", resp.StatusCode)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set(MarkerHeader, "1")
		w.WriteHeader(resp.StatusCode)
		fmt.Fprintf(w, "upstream returned %d for %s\n", resp.StatusCode, requestPath)
		return
	}

	p.relay(w, resp)
}

// relay copies the upstream response through, dropping embedding-policy
// headers and stamping the proxy marker.
func (p *Proxy) relay(w http.ResponseWriter, resp *http.Response) {
	header := w.Header()
	for k, vs := range resp.Header {
		for _, v := range vs {
			header.Add(k, v)
		}
	}
	for _, h := range strippedHeaders {
		header.Del(h)
	}
	header.Set(MarkerHeader, "1")
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		p.logger.Warn("relaying upstream body", "error", err)
	}
}
