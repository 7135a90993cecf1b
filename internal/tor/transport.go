package tor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

// DefaultExitCheckURL answers with a "Congratulations" page when the request
// arrived through Tor.
const DefaultExitCheckURL = "https://check.torproject.org/"

// exitCheckMarker is the text DefaultExitCheckURL shows to Tor users.
const exitCheckMarker = "Congratulations"

// DialContextFunc opens a connection the way net.Dialer.DialContext does.
type DialContextFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Transport is the outbound network path every component uses: an HTTP
// client and a raw dialer that share the same route.
type Transport struct {
	client     *http.Client
	dial       DialContextFunc
	anonymized bool
	route      string
}

// NewTorTransport routes everything through c.
func NewTorTransport(c *Client) *Transport {
	return &Transport{
		client:     c.NewHTTPClient(),
		dial:       c.DialContext,
		anonymized: true,
		route:      "tor " + c.ProxyAddress(),
	}
}

// NewDirectTransport connects without any proxy.
func NewDirectTransport(timeout time.Duration) *Transport {
	dialer := &net.Dialer{Timeout: timeout}
	base, ok := http.DefaultTransport.(*http.Transport)
	var transport *http.Transport
	if ok {
		transport = base.Clone()
	} else {
		transport = &http.Transport{}
	}
	transport.DialContext = dialer.DialContext

	return &Transport{
		client: &http.Client{
			Transport:     transport,
			Timeout:       timeout,
			CheckRedirect: limitRedirects,
		},
		dial:  dialer.DialContext,
		route: "direct",
	}
}

// HTTPClient returns the client bound to this route.
func (t *Transport) HTTPClient() *http.Client {
	return t.client
}

// DialContext opens a raw connection over this route.
func (t *Transport) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return t.dial(ctx, network, address)
}

// Anonymized reports whether traffic goes through Tor.
func (t *Transport) Anonymized() bool {
	return t.anonymized
}

// String describes the route for logs.
func (t *Transport) String() string {
	return t.route
}

// connectOptions holds the settings of Connect.
type connectOptions struct {
	logger       *slog.Logger
	exitCheckURL string
	requireTor   bool
}

// ConnectOption configures Connect.
type ConnectOption func(*connectOptions)

// WithLogger sets the logger used to report the outcome of the checks.
func WithLogger(logger *slog.Logger) ConnectOption {
	return func(o *connectOptions) {
		o.logger = logger
	}
}

// WithExitCheck fetches url through Tor after the handshake succeeded and
// warns unless the Tor check page is returned. An empty url disables it.
func WithExitCheck(url string) ConnectOption {
	return func(o *connectOptions) {
		o.exitCheckURL = url
	}
}

// WithRequireTor makes Connect fail instead of degrading to a direct route.
func WithRequireTor(require bool) ConnectOption {
	return func(o *connectOptions) {
		o.requireTor = require
	}
}

// Connect verifies the Tor proxy once and returns the transport to use for
// the rest of the process. When the proxy is misconfigured or unreachable it
// logs a warning and returns a direct transport: clearnet sources stay
// reachable even though onion sites will not be.
func Connect(ctx context.Context, proxyAddress string, timeout time.Duration, opts ...ConnectOption) (*Transport, error) {
	o := &connectOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	client, err := NewClient(proxyAddress, timeout)
	if err != nil {
		return o.degrade(timeout, proxyAddress, err)
	}

	status := client.CheckConnection(ctx)
	if status != ProxyStatusOK {
		return o.degrade(timeout, proxyAddress, status.Error())
	}
	o.logger.Info("tor proxy verified", "proxy", proxyAddress)

	t := NewTorTransport(client)
	if o.exitCheckURL != "" {
		if err := ConfirmExit(ctx, t.HTTPClient(), o.exitCheckURL); err != nil {
			o.logger.Warn("tor connection may not be working properly", "proxy", proxyAddress, "error", err)
		} else {
			o.logger.Info("tor exit confirmed", "check_url", o.exitCheckURL)
		}
	}
	return t, nil
}

func (o *connectOptions) degrade(timeout time.Duration, proxyAddress string, cause error) (*Transport, error) {
	if o.requireTor {
		return nil, fmt.Errorf("tor proxy %s unusable: %w", proxyAddress, cause)
	}
	o.logger.Warn("continuing without Tor; onion sites will be unreachable",
		"proxy", proxyAddress,
		"error", cause,
	)
	return NewDirectTransport(timeout), nil
}

// ConfirmExit fetches checkURL with client and reports whether the Tor check
// page recognised the request as coming from Tor.
func ConfirmExit(ctx context.Context, client *http.Client, checkURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, checkURL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch exit check page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read exit check page: %w", err)
	}
	if !strings.Contains(string(body), exitCheckMarker) {
		return ErrNotTorExit
	}
	return nil
}
