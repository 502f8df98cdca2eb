package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"

	"github.com/trezcool/tutor/apps/web/di"
	echoweb "github.com/trezcool/tutor/apps/web/echo"
	"github.com/trezcool/tutor/core"
)

func main() {
	c := di.New()

	must(c.Invoke(func(
		conf *core.Config,
		logger core.Logger,
		storeLoggerParam di.StoreLoggerParam,
		closeStore di.StoreCloser,
		server *echoweb.Server,
	) {
		// =========================================================================
		// Initialize App

		logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))

		storeLogger := storeLoggerParam.Logger
		defer func() {
			if err := closeStore(); err != nil {
				storeLogger.Error("Failed to close", err)
			}
		}()
		defer logger.Info("Application stopped")

		// =========================================================================
		// Start Debug Service
		//
		// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
		// /debug/vars - Added to the default mux by importing the expvar package.

		if conf.Server.DebugAddress != "" {
			// Expose important info under /debug/vars.
			expvar.NewString("build").Set(conf.Build)
			expvar.NewString("env").Set(conf.Env)
			expvar.NewString("store").Set(conf.Store.Driver)

			go func() {
				if err := http.ListenAndServe(conf.Server.DebugAddress, http.DefaultServeMux); err != nil {
					logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
				}
			}()
		}

		// =========================================================================
		// Start Web Service

		go func() {
			server.Start()
		}()

		// =========================================================================
		// Shutdown

		select {
		case err := <-server.Errors():
			logger.Fatal(fmt.Sprintf("server error: %v", err), err)

		case sig := <-server.ShutdownSignal():
			logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

			// give outstanding requests a deadline for completion
			ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
			defer cancel()

			// asking listener to shut down and shed load
			if err := server.Shutdown(ctx); err != nil {
				logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

				if err = server.Close(); err != nil {
					logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
				}
			}
		}
	}))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
