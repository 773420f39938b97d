package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testServer checks the request is a well-formed envelope for wantPath with
// wantParams and replies with the given body
func testServer(t *testing.T, wantPath string, wantParams map[string]interface{}, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, wantPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		req := map[string]interface{}{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2.0", req["jsonrpc"])
		assert.Equal(t, "call", req["method"])
		assert.Equal(t, wantParams, req["params"])
		id, ok := req["id"].(float64)
		assert.True(t, ok, "id present and numeric")
		assert.Equal(t, float64(int64(id)), id, "id is an integer")

		_, err := w.Write([]byte(body))
		require.NoError(t, err)
	}))
}

func TestJSON_Call(t *testing.T) {
	body := `{"jsonrpc":"2.0","id":1,"result":{"server_version":"16.0"}}`
	ts := testServer(t, "/web/webclient/version_info", map[string]interface{}{}, body)
	defer ts.Close()

	p := &JSON{RootURL: ts.URL, Deserialize: true}
	resp, err := p.Call(context.Background(), "web/webclient/version_info", nil)
	require.NoError(t, err)
	assert.Equal(t, "2.0", resp.Version)
	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, json.RawMessage(`{"server_version":"16.0"}`), resp.Result)
	assert.Equal(t, []byte(body), resp.Raw)
	assert.Empty(t, resp.Error)
}

func TestJSON_CallLeadingSlash(t *testing.T) {
	ts := testServer(t, "/web/session/destroy", map[string]interface{}{}, `{"jsonrpc":"2.0","id":1,"result":true}`)
	defer ts.Close()

	p := &JSON{RootURL: ts.URL, Deserialize: true}
	resp, err := p.Call(context.Background(), "/web/session/destroy", nil)
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`true`), resp.Result)
}

func TestJSON_CallParams(t *testing.T) {
	params := map[string]interface{}{"db": "prod", "login": "admin"}
	ts := testServer(t, "/web/session/authenticate", params, `{"jsonrpc":"2.0","id":7,"result":{"uid":1}}`)
	defer ts.Close()

	p := &JSON{RootURL: ts.URL, Deserialize: true}
	resp, err := p.Call(context.Background(), "web/session/authenticate", params)
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`{"uid":1}`), resp.Result)
}

func TestJSON_CallRawMode(t *testing.T) {
	body := "%PDF-1.4 not json at all \x00\x01"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := w.Write([]byte(body))
		require.NoError(t, err)
	}))
	defer ts.Close()

	p := &JSON{RootURL: ts.URL, Deserialize: false}
	resp, err := p.Call(context.Background(), "web/content/report", nil)
	require.NoError(t, err)
	assert.Equal(t, []byte(body), resp.Raw, "exact body bytes, unparsed")
	assert.Empty(t, resp.Result)
	assert.Empty(t, resp.Version)
}

func TestJSON_CallBadJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := w.Write([]byte("no json here"))
		require.NoError(t, err)
	}))
	defer ts.Close()

	p := &JSON{RootURL: ts.URL, Deserialize: true}
	_, err := p.Call(context.Background(), "web/whatever", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestJSON_CallServerError(t *testing.T) {
	body := `{"jsonrpc":"2.0","id":3,"error":{"code":200,"message":"Odoo Server Error"}}`
	ts := testServer(t, "/web/dataset/call", map[string]interface{}{}, body)
	defer ts.Close()

	p := &JSON{RootURL: ts.URL, Deserialize: true}
	resp, err := p.Call(context.Background(), "web/dataset/call", nil)
	require.NoError(t, err, "server-side errors are data, not call failures")
	assert.Equal(t, json.RawMessage(`{"code":200,"message":"Odoo Server Error"}`), resp.Error)
	assert.Empty(t, resp.Result)
}

func TestJSON_CallRemoteDown(t *testing.T) {
	p := &JSON{RootURL: "http://127.0.0.1:61889", Deserialize: true, Timeout: 100 * time.Millisecond}
	_, err := p.Call(context.Background(), "web/whatever", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remote call failed")
}

func TestJSON_CallTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer ts.Close()

	p := &JSON{RootURL: ts.URL, Deserialize: true, Timeout: 20 * time.Millisecond}
	_, err := p.Call(context.Background(), "web/slow", nil)
	assert.Error(t, err)
}

func TestEncodeData(t *testing.T) {
	b, err := encodeData("héllo, 漢字 — ∅")
	require.NoError(t, err)
	assert.Equal(t, "héllo, 漢字 — ∅", decodeData(b), "round trip keeps multi-byte text")

	raw := []byte{0x00, 0xff, 0x10}
	b, err = encodeData(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, b, "bytes pass through unchanged")

	b, err = encodeData(nil)
	require.NoError(t, err)
	assert.Nil(t, b)

	_, err = encodeData(12345)
	assert.Error(t, err)
}

func TestMaskedEnvelope(t *testing.T) {
	req := Request{Version: "2.0", Method: "call", ID: 42,
		Params: map[string]interface{}{"login": "admin", "password": "sup3r-secret"}}
	b, err := json.Marshal(req)
	require.NoError(t, err)

	masked := maskedEnvelope(b)
	assert.NotContains(t, masked, "sup3r-secret")
	assert.Contains(t, masked, "**********")
	assert.Contains(t, masked, "admin", "non-sensitive params stay visible")
}

func TestMaskedEnvelope_NonObjectParams(t *testing.T) {
	req := Request{Version: "2.0", Method: "call", ID: 1, Params: []int{1, 2, 3}}
	b, err := json.Marshal(req)
	require.NoError(t, err)
	assert.Equal(t, string(b), maskedEnvelope(b), "non-object params logged as-is")
}
