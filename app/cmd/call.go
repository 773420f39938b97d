package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/go-pkgz/lgr"

	"github.com/odootools/odoorpc/app/rpc"
)

// CallCommand set of flags and command for a single json-rpc call
type CallCommand struct {
	Path   string `short:"p" long:"path" required:"true" description:"endpoint path, i.e. web/session/authenticate"`
	Params string `long:"params" default:"{}" description:"json object with call params"`
	Raw    bool   `long:"raw" description:"dump raw response bytes, don't parse"`
	Output string `short:"o" long:"output" default:"stdout" description:"output file, stdout if not set"`

	CommonOpts
}

// Execute sends one json-rpc call and writes the result, entry point for
// "call" command. With --raw the exact body bytes go out unparsed, the way
// binary payloads are downloaded through json endpoints.
func (cc *CallCommand) Execute(_ []string) error {
	params := map[string]interface{}{}
	if err := json.Unmarshal([]byte(cc.Params), &params); err != nil {
		return fmt.Errorf("can't parse params: %w", err)
	}

	ctx := context.Background()
	opts := []rpc.Option{rpc.Version("")} // a single call doesn't need introspection
	if cc.Raw {
		opts = append(opts, rpc.NoDeserialize())
	}
	conn, err := cc.connect(ctx, opts...)
	if err != nil {
		return err
	}
	defer conn.Close()

	resp, err := conn.JSON().Call(ctx, cc.Path, params)
	if err != nil {
		return fmt.Errorf("call failed for %s: %w", cc.Path, err)
	}

	out := resp.Raw
	if !cc.Raw {
		if len(resp.Error) > 0 {
			return fmt.Errorf("server error for %s: %s", cc.Path, resp.Error)
		}
		out = resp.Result
	}

	dst, err := openOutput(cc.Output)
	if err != nil {
		return err
	}
	defer func() {
		if e := dst.Close(); e != nil {
			log.Printf("[WARN] can't close output, %s", e)
		}
	}()
	if _, err := dst.Write(out); err != nil {
		return fmt.Errorf("can't write result: %w", err)
	}
	log.Printf("[DEBUG] call %s completed, %d bytes written", cc.Path, len(out))
	return nil
}
