package main

import (
	"context"
	"errors"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"fieldhash/internal/buildpipeline"
	"fieldhash/internal/ui"
)

type pipelineOutcome struct {
	result buildpipeline.Result
	err    error
}

var errInterrupted = errors.New("interrupted")

// runWithUI runs the pipeline while a Bubble Tea program renders its events.
// Quitting the view cancels the pipeline.
func runWithUI(ctx context.Context, title string, req buildpipeline.Request) (buildpipeline.Result, error) {
	targets := make([]string, 0, len(req.Targets))
	for _, t := range req.Targets {
		targets = append(targets, t.Address)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan buildpipeline.Event, 256)
	outcomeCh := make(chan pipelineOutcome, 1)
	go func() {
		req.Progress = buildpipeline.ChannelSink{Ch: events}
		res, err := buildpipeline.Fingerprint(ctx, &req)
		close(events)
		outcomeCh <- pipelineOutcome{result: res, err: err}
	}()

	program := tea.NewProgram(ui.NewProgressModel(title, targets, events), tea.WithOutput(os.Stderr))
	final, uiErr := program.Run()
	interrupted := ui.Interrupted(final)
	if interrupted {
		cancel()
	}
	outcome := awaitPipeline(events, outcomeCh)
	switch {
	case uiErr != nil:
		return outcome.result, uiErr
	case interrupted:
		return outcome.result, errInterrupted
	}
	return outcome.result, outcome.err
}

// awaitPipeline drains events until the pipeline closes the channel, then
// returns its outcome. The view may stop reading early; без этого пайплайн
// встанет на send.
func awaitPipeline(events <-chan buildpipeline.Event, outcomeCh <-chan pipelineOutcome) pipelineOutcome {
	for range events {
	}
	return <-outcomeCh
}

// runPipeline picks the progress view or a plain run.
func runPipeline(ctx context.Context, useUI bool, title string, req buildpipeline.Request) (buildpipeline.Result, error) {
	if useUI && len(req.Targets) > 0 {
		return runWithUI(ctx, title, req)
	}
	return buildpipeline.Fingerprint(ctx, &req)
}
