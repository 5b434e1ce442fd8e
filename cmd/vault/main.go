package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexflint/go-arg"
	"github.com/mcdexio/yield-battle-vault/api"
	"github.com/mcdexio/yield-battle-vault/app"
	"github.com/mcdexio/yield-battle-vault/common/config"
	cerrors "github.com/mcdexio/yield-battle-vault/common/errors"
	"github.com/mcdexio/yield-battle-vault/common/logging"
	database "github.com/mcdexio/yield-battle-vault/database/db"
	"github.com/mcdexio/yield-battle-vault/validator"
	"golang.org/x/sync/errgroup"
)

type args struct {
	EnvFile      string `arg:"--env-file,env:ENV_FILE" default:".env" help:"dotenv file merged under the process environment"`
	APIAddr      string `arg:"--api-addr,env:API_ADDR" default:":9487"`
	InternalAddr string `arg:"--internal-addr,env:INTERNAL_ADDR" default:":9453"`
	validator.Config
}

func main() {
	var a args
	arg.MustParse(&a)
	if err := config.LoadDotEnv(a.EnvFile); err != nil {
		panic(err)
	}

	name := "yield-battle-vault"
	// Initialize logger.
	logging.Initialize(name)
	defer logging.Finalize()

	logger := logging.NewLoggerTag(name)

	// Setup panic handler.
	cerrors.Initialize(logger)
	defer cerrors.Catch()

	logger.Info("%s service started.", name)
	logger.Info("Initializing.")

	backgroundCtx, stop := context.WithCancel(context.Background())
	go WaitExitSignal(stop, logger)
	group, ctx := errgroup.WithContext(backgroundCtx)

	svc, err := app.FromEnv(logger)
	if err != nil {
		logger.Error("init fail:%s", err)
		os.Exit(-3)
	}
	if svc.DB != nil {
		defer database.Finalize()
	}

	internal := api.NewInternalServer(ctx, logging.NewLoggerTag("internal"), a.InternalAddr)
	group.Go(func() error {
		defer cerrors.CatchWithLogger(logger)
		return internal.Run()
	})

	server := api.NewServer(ctx, logging.NewLoggerTag("api"), api.Services{
		Vault:    svc.Vault,
		Board:    svc.Board,
		Profiles: svc.Profiles,
		Ledger:   svc.Ledger,
	}, a.APIAddr)
	group.Go(func() error {
		defer cerrors.CatchWithLogger(logger)
		return server.Run()
	})

	auditor := validator.NewValidator(&a.Config, logging.NewLoggerTag("validator"), svc.Vault, svc.Ledger, nil)
	group.Go(func() error {
		defer cerrors.CatchWithLogger(logger)
		return auditor.Run(ctx)
	})

	internal.SetReady(true)
	if err := group.Wait(); err != nil {
		logger.Critical("service stopped: %s", err)
	}
	logger.Info("service stopped.")
}

func WaitExitSignal(ctxStop context.CancelFunc, logger logging.Logger) {
	var exitSignal = make(chan os.Signal, 1)
	signal.Notify(exitSignal, syscall.SIGTERM)
	signal.Notify(exitSignal, syscall.SIGINT)

	sig := <-exitSignal
	logger.Info("caught sig: %+v, Stopping...\n", sig)
	ctxStop()
}
