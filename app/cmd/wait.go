package cmd

import (
	"context"
	"fmt"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"

	"github.com/odootools/odoorpc/app/rpc"
)

// WaitCommand set of flags and command for wait
type WaitCommand struct {
	Attempts int           `long:"attempts" default:"30" description:"max number of connection attempts"`
	Interval time.Duration `long:"interval" default:"2s" description:"delay between attempts"`

	CommonOpts
}

// Execute polls the server version endpoint until it answers, entry point
// for "wait" command. Holds deploy scripts until the server is up; the
// connector itself never retries, repetition happens here only.
func (wc *WaitCommand) Execute(_ []string) error {
	log.Printf("[INFO] wait for %s:%d, up to %d attempts with %s interval",
		wc.Host, wc.Port, wc.Attempts, wc.Interval)

	ctx := context.Background()
	var conn *rpc.Connector
	err := repeater.NewDefault(wc.Attempts, wc.Interval).Do(ctx, func() error {
		var e error
		conn, e = wc.connect(ctx)
		return e
	})
	if err != nil {
		return fmt.Errorf("server %s:%d not answering: %w", wc.Host, wc.Port, err)
	}
	defer conn.Close()

	version := conn.Version()
	if version == "" {
		version = "unknown"
	}
	log.Printf("[INFO] server is up, version %s", version)
	fmt.Printf("server is up, version %s\n", version)
	return nil
}
