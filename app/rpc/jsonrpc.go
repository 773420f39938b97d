package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/pkg/errors"
)

// Request is the JSON-RPC 2.0 envelope POSTed to an endpoint path.
// ID is a random integer drawn per call; it only tells log lines apart,
// no request/response correlation is performed.
type Request struct {
	Version string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      int64       `json:"id"`
}

// Response encloses the JSON-RPC 2.0 reply. Result and Error stay raw and
// the caller decodes whatever shape the endpoint returns. Raw always holds
// the exact body bytes as read from the wire.
type Response struct {
	Version string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`

	Raw []byte `json:"-"`
}

// wire-level debug log formats
const (
	logJSONSend = "[DEBUG] (JSON,send) %s %s"
	logJSONRecv = "[DEBUG] (JSON,recv) %s %s => %s"
	logHTTPSend = "[DEBUG] (HTTP,send) %s%s"
	logHTTPRecv = "[DEBUG] (HTTP,recv) %s%s => %s"
)

// hiddenParams lists param names masked in log lines
var hiddenParams = []string{"password", "passwd"}

const maxRequestID = 1000000000

// JSON is a proxy performing JSON-RPC calls against endpoint paths of a
// single server. The client is shared with the HTTP proxy of the same
// connector, cookies and pooled connections persist across both.
type JSON struct {
	RootURL     string // scheme://host:port, no trailing slash
	Timeout     time.Duration
	Deserialize bool
	Client      *http.Client
}

// Root returns an empty builder bound to the proxy
func (p *JSON) Root() Builder { return Builder{proxy: p} }

// Call POSTs a JSON-RPC envelope to the given endpoint path and returns the
// parsed response. A single leading slash on the path is tolerated. With
// Deserialize off the response carries the body bytes only, unparsed -
// that is how binary payloads are downloaded through json-shaped endpoints.
func (p *JSON) Call(ctx context.Context, path string, params interface{}) (*Response, error) {
	if params == nil {
		params = map[string]interface{}{}
	}
	envelope := Request{Version: "2.0", Method: "call", Params: params, ID: rand.Int63n(maxRequestID)} //nolint:gosec // ids are cosmetic
	fullURL := joinURL(p.RootURL, path)

	b, err := json.Marshal(envelope)
	if err != nil {
		return nil, errors.Wrapf(err, "marshaling failed for %s", fullURL)
	}
	logParams := maskedEnvelope(b)
	log.Printf(logJSONSend, fullURL, logParams)

	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, "POST", fullURL, bytes.NewReader(b))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to make request for %s", fullURL)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient().Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "remote call failed for %s", fullURL)
	}
	defer func() {
		if e := resp.Body.Close(); e != nil {
			log.Printf("[WARN] can't close body, %s", e)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read response for %s", fullURL)
	}

	if !p.Deserialize {
		log.Printf(logJSONRecv, fullURL, logParams, resp.Status)
		return &Response{Raw: body}, nil
	}

	res := Response{}
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, errors.Wrapf(err, "failed to decode response for %s", fullURL)
	}
	res.Raw = body
	log.Printf(logJSONRecv, fullURL, logParams, resp.Status)
	return &res, nil
}

func (p *JSON) httpClient() *http.Client {
	if p.Client != nil {
		return p.Client
	}
	return http.DefaultClient
}

// encodeData turns an outgoing payload into body bytes. Bytes pass through
// unchanged, strings become their UTF-8 encoding, nil means no body.
func encodeData(data interface{}) ([]byte, error) {
	switch v := data.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	return nil, errors.Errorf("unsupported payload type %T", data)
}

// decodeData is the inverse of encodeData for textual bodies
func decodeData(b []byte) string { return string(b) }

// maskedEnvelope renders a marshaled envelope for logging with hidden
// params replaced, passwords never hit the log in plaintext. Falls back to
// the marshaled form when params are not a json object.
func maskedEnvelope(envelope []byte) string {
	data := map[string]interface{}{}
	if err := json.Unmarshal(envelope, &data); err != nil {
		return string(envelope)
	}
	params, ok := data["params"].(map[string]interface{})
	if !ok {
		return string(envelope)
	}
	for _, key := range hiddenParams {
		if _, found := params[key]; found {
			params[key] = "**********"
		}
	}
	res, err := json.Marshal(data)
	if err != nil {
		return string(envelope)
	}
	return string(res)
}
