// Command wrustlr starts the event-dispatcher server described by
// SPEC_FULL.md: it loads ./config/server.conf (or the file named by its
// first argument), binds every configured
// listener, and runs until SIGINT/SIGTERM, at which point it asks the
// Dispatcher for a fast, graceful shutdown before exiting. Grounded on
// Core::start's entry sequence (original_source/.../net/core/core.rs):
// module factory and signal handling are the only process-wide
// singletons, both built before the Dispatcher starts.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/workanator/wrustlr/internal/config"
	"github.com/workanator/wrustlr/internal/dispatcher"
	"github.com/workanator/wrustlr/internal/logging"
	"github.com/workanator/wrustlr/internal/stream"
	"github.com/workanator/wrustlr/modules/echo"
)

const defaultConfigPath = "./config/server.conf"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "wrustlr:", err)
		os.Exit(1)
	}
}

func run() error {
	path := defaultConfigPath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	doc, err := config.Load(path)
	if err != nil {
		return err
	}

	core, err := config.LoadCoreSpec(doc)
	if err != nil {
		return err
	}
	log := logging.New(logging.Config{Level: core.LogLevel, Colorize: core.LogColorize})

	servers, err := config.LoadServerList(doc, "servers")
	if err != nil {
		return err
	}

	factory := stream.NewFactory(doc, log)
	factory.Register(stream.StreamCategory, echo.Name, echo.Version, echo.New)

	d, err := dispatcher.New(servers, factory, core.WorkerCountMax, log)
	if err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	control := make(chan string)
	reply := make(chan string)
	runErr := make(chan error, 1)
	go func() { runErr <- d.Run(control, reply) }()

	select {
	case s := <-sig:
		log.WithField("signal", s).Info("shutting down")
		control <- "shutdown"
		<-reply
		return <-runErr
	case err := <-runErr:
		return err
	}
}
