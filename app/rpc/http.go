package rpc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/pkg/errors"
)

// HTTP is a proxy performing direct POST requests outside the JSON-RPC
// envelope. Responses are returned live and unconsumed, the caller reads
// and closes the body. The client is shared with the JSON proxy of the
// same connector.
type HTTP struct {
	RootURL string // scheme://host:port, no trailing slash
	Timeout time.Duration
	Client  *http.Client
}

// Post sends data to the endpoint path with the given headers. A nil data
// means no body, string and []byte payloads are encoded the same way the
// JSON proxy encodes them. Transport errors propagate as-is, no retries.
func (p *HTTP) Post(ctx context.Context, path string, data interface{}, header http.Header) (*http.Response, error) {
	fullURL := joinURL(p.RootURL, path)
	body, err := encodeData(data)
	if err != nil {
		return nil, errors.Wrapf(err, "can't encode payload for %s", fullURL)
	}
	log.Printf(logHTTPSend, fullURL, logData(body))

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", fullURL, rd)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to make request for %s", fullURL)
	}
	for key, vals := range header {
		for _, v := range vals {
			req.Header.Add(key, v)
		}
	}

	// the timeout goes on a shallow copy of the shared client so it covers
	// the body read the caller performs after return; the transport with
	// its pool and the cookie jar stay shared
	client := http.Client{}
	if p.Client != nil {
		client = *p.Client
	}
	client.Timeout = p.Timeout

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "request failed for %s", fullURL)
	}
	log.Printf(logHTTPRecv, fullURL, logData(body), resp.Status)
	return resp, nil
}

// logData renders an optional request body for log lines, empty for no body
func logData(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return fmt.Sprintf(" (%s)", b)
}
