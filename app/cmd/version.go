package cmd

import (
	"context"
	"fmt"

	log "github.com/go-pkgz/lgr"
)

// VersionCommand set of flags and command for version
type VersionCommand struct {
	CommonOpts
}

// Execute connects to the server, detects the remote version and prints it,
// entry point for "version" command
func (vc *VersionCommand) Execute(_ []string) error {
	log.Printf("[DEBUG] detect version for %s:%d", vc.Host, vc.Port)

	conn, err := vc.connect(context.Background())
	if err != nil {
		return err
	}
	defer conn.Close()

	version := conn.Version()
	if version == "" {
		version = "unknown"
	}
	fmt.Printf("server version: %s\n", version)
	return nil
}
