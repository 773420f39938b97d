package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	log "github.com/go-pkgz/lgr"

	"github.com/odootools/odoorpc/app/rpc"
)

// FetchCommand set of flags and command for a raw http-proxy request
type FetchCommand struct {
	Path    string   `short:"p" long:"path" required:"true" description:"endpoint path, i.e. web/binary/report"`
	Data    string   `long:"data" description:"request body, empty for no body"`
	Headers []string `short:"H" long:"header" description:"request header in key:value form, can be repeated"`
	Output  string   `short:"o" long:"output" default:"stdout" description:"output file, stdout if not set"`

	CommonOpts
}

// Execute POSTs to the endpoint through the http proxy and streams the
// response body out, entry point for "fetch" command
func (fc *FetchCommand) Execute(_ []string) error {
	header := http.Header{}
	for _, h := range fc.Headers {
		parts := strings.SplitN(h, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid header %q, expected key:value", h)
		}
		header.Set(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
	}

	ctx := context.Background()
	conn, err := fc.connect(ctx, rpc.Version("")) // raw fetches don't need introspection
	if err != nil {
		return err
	}
	defer conn.Close()

	var data interface{}
	if fc.Data != "" {
		data = fc.Data
	}
	resp, err := conn.HTTP().Post(ctx, fc.Path, data, header)
	if err != nil {
		return fmt.Errorf("fetch failed for %s: %w", fc.Path, err)
	}
	defer func() {
		if e := resp.Body.Close(); e != nil {
			log.Printf("[WARN] can't close body, %s", e)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return responseError(resp)
	}

	dst, err := openOutput(fc.Output)
	if err != nil {
		return err
	}
	defer func() {
		if e := dst.Close(); e != nil {
			log.Printf("[WARN] can't close output, %s", e)
		}
	}()
	size, err := io.Copy(dst, resp.Body)
	if err != nil {
		return fmt.Errorf("can't copy response body: %w", err)
	}
	log.Printf("[DEBUG] fetch %s completed, %d bytes written", fc.Path, size)
	return nil
}
