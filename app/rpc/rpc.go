// Package rpc provides connectors to communicate with an Odoo server over
// the JSON-RPC protocol or through plain HTTP requests. Web controllers of
// the server expose two kinds of methods, json and http; each kind is
// reached through the matching proxy of a connector. Both proxies ride on
// one shared pooled client, so the session cookie set by an authenticate
// call is replayed on subsequent calls of either kind.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// versionPath is the well-known introspection endpoint used to detect the
// remote server version
const versionPath = "web/webclient/version_info"

const defaultTimeout = 120 * time.Second

// Connector owns the configuration of a single remote target, the shared
// pooled client and the two proxies riding on it. Values are produced fully
// initialized by NewConnector or NewConnectorSSL, usually picked from
// Protocols by name.
type Connector struct {
	host        string
	port        int
	tls         bool
	deserialize bool

	version    string
	hasVersion bool // version supplied externally, detection skipped

	client *http.Client
	json   *JSON
	http   *HTTP
}

// Option func type
type Option func(c *Connector) error

// Timeout functional option defines the per-request timeout shared by both
// proxies, 120s by default
func Timeout(d time.Duration) Option {
	return func(c *Connector) error {
		if d <= 0 {
			return errors.Errorf("non-positive timeout %s", d)
		}
		c.json.Timeout = d
		c.http.Timeout = d
		return nil
	}
}

// Version functional option presets the server version and skips the
// detection call on construction
func Version(v string) Option {
	return func(c *Connector) error {
		c.version = v
		c.hasVersion = true
		return nil
	}
}

// NoDeserialize functional option makes the JSON proxy return raw response
// bytes instead of parsing them, used for binary downloads. Version
// detection still works, the connector parses the detection reply itself.
func NoDeserialize() Option {
	return func(c *Connector) error {
		c.deserialize = false
		c.json.Deserialize = false
		return nil
	}
}

// Client functional option supplies an external shared client. The cookie
// jar and connection pool of the given client are reused as-is, both
// proxies reference it and never a private copy.
func Client(client *http.Client) Option {
	return func(c *Connector) error {
		if client == nil {
			return errors.New("nil client")
		}
		c.client = client
		c.json.Client = client
		c.http.Client = client
		return nil
	}
}

// NewConnector makes a fully initialized plaintext connector for the given
// target. Unless the Version option was supplied it issues one JSON-RPC
// call to the version introspection endpoint and caches the result; a reply
// missing server_version leaves the version unknown, transport or decode
// failures fail the construction.
func NewConnector(ctx context.Context, host string, port int, opts ...Option) (*Connector, error) {
	return newConnector(ctx, host, port, false, opts...)
}

// NewConnectorSSL is NewConnector with TLS forced on, the jsonrpc+ssl
// protocol
func NewConnectorSSL(ctx context.Context, host string, port int, opts ...Option) (*Connector, error) {
	return newConnector(ctx, host, port, true, opts...)
}

// ConnectorMaker is the constructor signature registered in Protocols
type ConnectorMaker func(ctx context.Context, host string, port int, opts ...Option) (*Connector, error)

// Protocols maps protocol names to connector constructors, callers pick
// plaintext or TLS transport by name
var Protocols = map[string]ConnectorMaker{
	"jsonrpc":     NewConnector,
	"jsonrpc+ssl": NewConnectorSSL,
}

func newConnector(ctx context.Context, host string, port int, tls bool, opts ...Option) (*Connector, error) {
	res := &Connector{host: host, port: port, tls: tls, deserialize: true}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "can't make cookie jar")
	}
	res.client = &http.Client{Jar: jar}

	root := res.rootURL()
	res.json = &JSON{RootURL: root, Timeout: defaultTimeout, Deserialize: true, Client: res.client}
	res.http = &HTTP{RootURL: root, Timeout: defaultTimeout, Client: res.client}

	for _, opt := range opts {
		if err := opt(res); err != nil {
			return nil, errors.Wrapf(err, "failed to set connector option for %s", root)
		}
	}

	if !res.hasVersion {
		if err := res.detectVersion(ctx); err != nil {
			res.Close()
			return nil, err
		}
	}
	return res, nil
}

// JSON returns the JSON-RPC proxy
func (c *Connector) JSON() *JSON { return c.json }

// HTTP returns the plain HTTP proxy
func (c *Connector) HTTP() *HTTP { return c.http }

// Version returns the cached server version, empty when unknown
func (c *Connector) Version() string { return c.version }

// Timeout reports the shared per-request timeout
func (c *Connector) Timeout() time.Duration { return c.json.Timeout }

// SetTimeout updates the stored timeout of both proxies. The setting is
// shared plain state, don't flip it while calls are in flight.
func (c *Connector) SetTimeout(d time.Duration) {
	c.json.Timeout = d
	c.http.Timeout = d
}

// Close releases pooled connections of the shared client. Safe to call
// multiple times and from a defer on any exit path; requests made after
// Close open fresh connections.
func (c *Connector) Close() { c.client.CloseIdleConnections() }

// detectVersion asks the introspection endpoint for the server version.
// A reply without server_version is not an error, the version just stays
// unknown.
func (c *Connector) detectVersion(ctx context.Context) error {
	resp, err := c.json.Call(ctx, versionPath, nil)
	if err != nil {
		return errors.Wrap(err, "can't detect server version")
	}
	result := resp.Result
	if !c.deserialize { // raw mode skips parsing in the proxy, parse here
		parsed := Response{}
		if err := json.Unmarshal(resp.Raw, &parsed); err != nil {
			return errors.Wrap(err, "can't decode version info")
		}
		result = parsed.Result
	}
	if len(result) == 0 {
		return nil
	}
	info := struct {
		ServerVersion string `json:"server_version"`
	}{}
	if err := json.Unmarshal(result, &info); err != nil {
		return errors.Wrap(err, "can't decode version info")
	}
	c.version = info.ServerVersion
	return nil
}

func (c *Connector) rootURL() string {
	scheme := "http"
	if c.tls {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.host, c.port)
}

// joinURL glues the root url and an endpoint path, tolerating a single
// leading slash on the path
func joinURL(root, path string) string {
	path = strings.TrimPrefix(path, "/")
	return root + "/" + path
}
