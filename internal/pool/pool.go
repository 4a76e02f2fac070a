// Package pool implements the worker pool (spec.md §4.2): N independent
// workers draining the shared payload stream, each running the attack
// pipeline settings.Repeat times per payload and reporting every outcome.
package pool

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/roelfdiedericks/csrfkiller/internal/attack"
	"github.com/roelfdiedericks/csrfkiller/internal/config"
	"github.com/roelfdiedericks/csrfkiller/internal/payload"
	"github.com/roelfdiedericks/csrfkiller/internal/report"
)

// Run spawns settings.Concurrence workers against stream, reporting each
// attempt through progress. The first fatal error observed by any worker
// aborts the remaining workers and is returned; remaining payloads are
// simply left unconsumed in the stream (spec.md §5 Cancellation).
func Run(ctx context.Context, client *http.Client, settings *config.Settings, stream *payload.Stream, progress *report.Progress) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var once sync.Once
	var firstErr error

	n := int(settings.Concurrence)
	if n <= 0 {
		n = 1
	}

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := worker(ctx, client, settings, stream, progress); err != nil {
				once.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}()
	}

	wg.Wait()
	return firstErr
}

func worker(ctx context.Context, client *http.Client, settings *config.Settings, stream *payload.Stream, progress *report.Progress) error {
	delay := time.Duration(settings.Delay * float32(time.Second))

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, ok := stream.Next()
		if !ok {
			return nil
		}

		repeat := int(settings.Repeat)
		if repeat <= 0 {
			repeat = 1
		}

		for r := 0; r < repeat; r++ {
			if err := attempt(ctx, client, settings, line, progress); err != nil {
				return err
			}

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
		}
	}
}

func attempt(ctx context.Context, client *http.Client, settings *config.Settings, line string, progress *report.Progress) error {
	p := buildPayload(settings, line)

	outcome, err := attack.Run(ctx, client, settings, p)
	if err != nil {
		return err
	}

	no := progress.RequestsCompleted() + 1

	if outcome.TransportErr != nil {
		progress.TransportError()
		return nil
	}

	lines, words := report.Classify(outcome.Body)
	progress.Attempt(settings, no, outcome.Status, outcome.ContentLen, lines, words, line)
	return nil
}

func buildPayload(settings *config.Settings, line string) attack.Payload {
	if settings.Modes.Mode == config.ModeUploadFiles {
		return attack.Payload{IsUpload: true, FieldName: settings.Modes.FieldName, Path: line}
	}
	return attack.Payload{Line: line}
}
