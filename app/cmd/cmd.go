// Package cmd has all top-level commands dispatched by main's flag.Parse
// The entry point of each command is Execute function
package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/odootools/odoorpc/app/rpc"
)

// CommonOptionsCommander extends flags.Commander with SetCommon
// All commands should implement this interfaces
type CommonOptionsCommander interface {
	SetCommon(commonOpts CommonOpts)
	Execute(args []string) error
}

// CommonOpts sets externally from main, shared across all commands
type CommonOpts struct {
	Host     string
	Port     int
	SSL      bool
	Timeout  time.Duration
	Revision string
}

// SetCommon satisfies CommonOptionsCommander interface and sets common option fields
// The method called by main for each command
func (c *CommonOpts) SetCommon(commonOpts CommonOpts) {
	c.Host = commonOpts.Host
	c.Port = commonOpts.Port
	c.SSL = commonOpts.SSL
	c.Timeout = commonOpts.Timeout
	c.Revision = commonOpts.Revision
}

// connect makes a connector for the configured target, picking the
// protocol from the registry by the SSL flag
func (c *CommonOpts) connect(ctx context.Context, opts ...rpc.Option) (*rpc.Connector, error) {
	proto := "jsonrpc"
	if c.SSL {
		proto = "jsonrpc+ssl"
	}
	if c.Timeout > 0 {
		opts = append([]rpc.Option{rpc.Timeout(c.Timeout)}, opts...)
	}
	conn, err := rpc.Protocols[proto](ctx, c.Host, c.Port, opts...)
	if err != nil {
		return nil, fmt.Errorf("can't connect to %s:%d: %w", c.Host, c.Port, err)
	}
	return conn, nil
}

// openOutput returns the write destination of a command, stdout by default
func openOutput(name string) (io.WriteCloser, error) {
	if name == "" || name == "stdout" {
		return nopCloser{os.Stdout}, nil
	}
	fh, err := os.Create(name) //nolint:gosec // the destination is user-supplied
	if err != nil {
		return nil, fmt.Errorf("can't create output file %s: %w", name, err)
	}
	return fh, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// responseError returns error with status and response body
func responseError(resp *http.Response) error {
	body, e := io.ReadAll(resp.Body)
	if e != nil {
		body = []byte("")
	}
	return fmt.Errorf("error response %q, %s", resp.Status, body)
}
