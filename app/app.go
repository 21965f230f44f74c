package app

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/kaspanet/chainstated/infrastructure/config"
	"github.com/kaspanet/chainstated/infrastructure/logger"
	"github.com/kaspanet/chainstated/infrastructure/os/signal"
	"github.com/kaspanet/chainstated/util/panics"
	"github.com/kaspanet/chainstated/util/profiling"
	"github.com/kaspanet/chainstated/version"
	"github.com/pkg/errors"
)

const shutdownTimeout = 2 * time.Minute

type chainstatedApp struct {
	cfg *config.Config

	fatalErrorLock sync.Mutex
	fatalError     error
}

// StartApp starts the chainstated app, and blocks until it finishes running
func StartApp() error {
	// Load configuration and parse command line.
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	logger.InitLog(cfg.LogFile, cfg.ErrLogFile)
	defer logger.BackendLog.Close()
	defer panics.HandlePanic(log, "MAIN", nil)

	app := &chainstatedApp{cfg: cfg}
	return app.main(nil)
}

func (app *chainstatedApp) main(startedChan chan<- struct{}) error {
	// Get a channel that will be closed when a shutdown signal has been
	// triggered either from an OS signal such as SIGINT (Ctrl+C) or from
	// another subsystem such as the RPC server.
	interrupt := signal.InterruptListener()
	defer log.Info("Shutdown complete")

	// Show version at startup.
	log.Infof("Version %s", version.Version())

	// Enable http profiling server if requested.
	if app.cfg.Profile != "" {
		profiling.Start(app.cfg.Profile, log)
	}

	err := prepareDataDir(app.cfg.DataDir)
	if err != nil {
		log.Errorf("%+v", err)
		return err
	}

	componentManager, err := NewComponentManager(app.cfg, signal.ShutdownRequestChannel, app.reportFatalError)
	if err != nil {
		log.Errorf("%+v", err)
		return err
	}
	defer func() {
		log.Infof("Gracefully shutting down chainstated...")

		shutdownDone := make(chan struct{})
		spawn("componentManager.Stop", func() {
			componentManager.Stop()
			close(shutdownDone)
		})

		select {
		case <-shutdownDone:
		case <-time.After(shutdownTimeout):
			log.Criticalf("Graceful shutdown timed out %s. Terminating...", shutdownTimeout)
		}
		log.Infof("Chainstated shutdown complete")
	}()

	err = componentManager.Start()
	if err != nil {
		log.Errorf("%+v", err)
		return err
	}
	if startedChan != nil {
		startedChan <- struct{}{}
	}

	// Wait until the interrupt signal is received from an OS signal or
	// shutdown is requested through one of the subsystems such as the RPC
	// server.
	<-interrupt

	return app.loadFatalError()
}

// reportFatalError records err as the reason the app exits and requests a
// shutdown.
func (app *chainstatedApp) reportFatalError(err error) {
	log.Criticalf("Fatal error: %+v", err)

	app.fatalErrorLock.Lock()
	if app.fatalError == nil {
		app.fatalError = err
	}
	app.fatalErrorLock.Unlock()

	signal.RequestShutdown()
}

func (app *chainstatedApp) loadFatalError() error {
	app.fatalErrorLock.Lock()
	defer app.fatalErrorLock.Unlock()
	return app.fatalError
}

// prepareDataDir creates dataDir if needed and makes sure its layout is
// one this version understands.
func prepareDataDir(dataDir string) error {
	err := os.MkdirAll(dataDir, 0700)
	if err != nil {
		return errors.Wrapf(err, "error creating the data directory %s", dataDir)
	}

	doesVersionFileExist, err := checkDatabaseVersion(dataDir)
	if err != nil {
		return err
	}
	if !doesVersionFileExist {
		return createDatabaseVersionFile(dataDir)
	}
	return nil
}
