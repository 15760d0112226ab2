package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cristianoliveira/koyr/internal/command"
	"github.com/cristianoliveira/koyr/internal/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runPalette(t *testing.T, rec *Recorder, cmds []command.Command, query string) {
	t.Helper()

	p, err := palette.New(nil,
		append(rec.PaletteOptions(), palette.WithCommands(cmds))...,
	)
	require.NoError(t, err)
	defer p.Release()

	p.Open()
	p.Change(query)
	exec := p.Select()
	if exec == nil {
		return
	}
	select {
	case <-exec.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("action did not complete")
	}
	require.True(t, p.Settle(exec))
}

func TestRecorderRecordsActionableRuns(t *testing.T) {
	s, _ := newTestStore(t)
	rec := NewRecorder(s, nil)

	cmds := []command.Command{
		command.New("fail", "Fail task", nil, func(context.Context) error { return errors.New("boom") }),
		command.New("ok", "Okay task", nil, func(context.Context) error { return nil }),
	}
	runPalette(t, rec, cmds, "okay")
	runPalette(t, rec, cmds, "fail")

	runs, err := s.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	byID := map[string]Run{}
	for _, r := range runs {
		byID[r.CommandID] = r
	}
	assert.Equal(t, StatusSucceeded, byID["ok"].Status)
	assert.Equal(t, StatusFailed, byID["fail"].Status)
	assert.Equal(t, "boom", byID["fail"].Error)
	assert.Empty(t, rec.pending)
}

func TestRecorderSkipsInformational(t *testing.T) {
	s, _ := newTestStore(t)
	rec := NewRecorder(s, nil)

	runPalette(t, rec, []command.Command{command.New("info", "Info", "details", nil)}, "")

	runs, err := s.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRecorderKeepsOverlappingRunsApart(t *testing.T) {
	s, _ := newTestStore(t)
	rec := NewRecorder(s, nil)

	release := make(chan error)
	cmds := []command.Command{
		command.New("job", "Long job", nil, func(context.Context) error { return <-release }),
	}
	p, err := palette.New(nil, append(rec.PaletteOptions(), palette.WithCommands(cmds))...)
	require.NoError(t, err)
	defer p.Release()

	p.Open()
	first := p.Select()
	require.NotNil(t, first)

	// Closing does not stop the first run; the job is picked again.
	require.True(t, p.Close())
	require.True(t, p.Open())
	second := p.Select()
	require.NotNil(t, second)

	release <- errors.New("first failed")
	<-first.Done()
	require.True(t, p.Settle(first))

	release <- nil
	<-second.Done()
	require.True(t, p.Settle(second))

	runs, err := s.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	newest, oldest := runs[0], runs[1]
	assert.Equal(t, StatusSucceeded, newest.Status)
	assert.Empty(t, newest.Error)
	assert.Equal(t, StatusFailed, oldest.Status)
	assert.Equal(t, "first failed", oldest.Error)
	assert.Empty(t, rec.pending)
}
