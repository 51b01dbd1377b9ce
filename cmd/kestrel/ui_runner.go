package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"kestrel/internal/driver"
	"kestrel/internal/ui"
)

type evalOutcome struct {
	results []driver.FileResult
	err     error
}

func runEvalWithUI(ctx context.Context, title string, files []string, opts driver.Options) ([]driver.FileResult, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan evalOutcome, 1)

	go func() {
		opts.Progress = driver.ChannelSink{Ch: events}
		res, err := driver.EvalFiles(ctx, files, opts)
		outcomeCh <- evalOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	if uiErr != nil {
		// the model stopped reading; keep workers from blocking on the channel
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
