package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/roelfdiedericks/csrfkiller/internal/cliargs"
	"github.com/roelfdiedericks/csrfkiller/internal/config"
	kerr "github.com/roelfdiedericks/csrfkiller/internal/errors"
	"github.com/roelfdiedericks/csrfkiller/internal/httpclient"
	. "github.com/roelfdiedericks/csrfkiller/internal/logging"
	"github.com/roelfdiedericks/csrfkiller/internal/payload"
	"github.com/roelfdiedericks/csrfkiller/internal/pool"
	"github.com/roelfdiedericks/csrfkiller/internal/report"
)

// version is set via ldflags at release time; "dev" marks a local build.
var version = "dev"

func main() {
	var args cliargs.Args
	kong.Parse(&args,
		kong.Name("csrfkiller"),
		kong.Description("Concurrent HTTP fuzzer for CSRF-protected endpoints."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	Init(DefaultConfig())

	if err := run(&args); err != nil {
		if kerr.IsKiller(err) {
			L_fatal(err.Error())
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args *cliargs.Args) error {
	settings, err := args.ToSettings()
	if err != nil {
		return err
	}

	client, err := httpclient.New(settings.Options)
	if err != nil {
		return err
	}

	wordlistPath := settings.Modes.Wordlist
	if settings.Modes.Mode == config.ModeUploadFiles {
		wordlistPath = settings.Modes.FilePaths
	}

	stream, total, err := payload.Open(wordlistPath)
	if err != nil {
		return err
	}
	defer stream.Close()

	progress := report.New(total, os.Stdout)
	L_info("run started", "run_id", progress.RunID(), "payloads", total, "concurrence", settings.Concurrence)
	progress.PrintHeader()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		L_warn("interrupted, stopping workers")
		cancel()
	}()

	err = pool.Run(ctx, client, settings, stream, progress)
	progress.Finish()

	L_info("run complete", "run_id", progress.RunID(), "requests", progress.RequestsCompleted(), "errors", progress.TransportErrors())

	return err
}
