package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
	flags "github.com/jessevdk/go-flags"

	"github.com/odootools/odoorpc/app/cmd"
)

// Opts with all cli commands and flags
type Opts struct {
	VersionCmd cmd.VersionCommand `command:"version"`
	CallCmd    cmd.CallCommand    `command:"call"`
	FetchCmd   cmd.FetchCommand   `command:"fetch"`
	WaitCmd    cmd.WaitCommand    `command:"wait"`

	Host    string        `long:"host" env:"ODOO_HOST" default:"localhost" description:"server host"`
	Port    int           `long:"port" env:"ODOO_PORT" default:"8069" description:"server port"`
	SSL     bool          `long:"ssl" env:"ODOO_SSL" description:"use jsonrpc+ssl protocol"`
	Timeout time.Duration `long:"timeout" env:"ODOO_TIMEOUT" default:"120s" description:"request timeout"`

	Dbg bool `long:"dbg" env:"DEBUG" description:"debug mode"`
}

var revision = "unknown"

func main() {
	fmt.Printf("odoorpc %s\n", revision)

	var opts Opts
	p := flags.NewParser(&opts, flags.Default)
	p.CommandHandler = func(command flags.Commander, args []string) error {
		setupLog(opts.Dbg)
		// commands implement CommonOptionsCommander to allow passing set of extra options defined for all commands
		c := command.(cmd.CommonOptionsCommander)
		c.SetCommon(cmd.CommonOpts{
			Host:     opts.Host,
			Port:     opts.Port,
			SSL:      opts.SSL,
			Timeout:  opts.Timeout,
			Revision: revision,
		})
		err := c.Execute(args)
		if err != nil {
			log.Printf("[ERROR] failed with %+v", err)
		}
		return err
	}

	if _, err := p.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		} else {
			os.Exit(1)
		}
	}
}

func setupLog(dbg bool) {
	if dbg {
		log.Setup(log.Debug, log.CallerFile, log.Msec, log.LevelBraces)
		return
	}
	log.Setup(log.Msec, log.LevelBraces)
}

// getDump reads runtime stack and returns as a string
func getDump() string {
	maxSize := 5 * 1024 * 1024
	stacktrace := make([]byte, maxSize)
	length := runtime.Stack(stacktrace, true)
	if length > maxSize {
		length = maxSize
	}
	return string(stacktrace[:length])
}

func init() {
	// catch SIGQUIT and print stack traces
	sigChan := make(chan os.Signal, 1)
	go func() {
		for range sigChan {
			log.Printf("[INFO] SIGQUIT detected, dump:\n%s", getDump())
		}
	}()
	signal.Notify(sigChan, syscall.SIGQUIT)
}
