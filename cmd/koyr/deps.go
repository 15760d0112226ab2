package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cristianoliveira/koyr/internal/colors"
	"github.com/cristianoliveira/koyr/internal/command"
	"github.com/cristianoliveira/koyr/internal/config"
	"github.com/cristianoliveira/koyr/internal/demo"
	"github.com/cristianoliveira/koyr/internal/history"
	"github.com/cristianoliveira/koyr/internal/logging"
	"github.com/cristianoliveira/koyr/internal/search"
)

// commandSource says where commands come from: a commands file, or the
// built-in demo when no file exists.
type commandSource struct {
	Path  string
	Shell command.Shell
}

// Demo reports whether the demo commands are used.
func (s commandSource) Demo() bool { return s.Path == "" }

// resolveSource picks the commands file. An explicit path must exist; the
// configured default silently falls back to the demo.
func resolveSource(flagPath string) (commandSource, error) {
	src := commandSource{Shell: command.Shell{Path: config.Get("shell", command.DefaultShell)}}
	if flagPath != "" {
		if _, err := os.Stat(flagPath); err != nil {
			return src, fmt.Errorf("commands file: %w", err)
		}
		src.Path = flagPath
		return src, nil
	}
	path := config.Get("commands_file", "")
	if path == "" {
		return src, nil
	}
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return src, fmt.Errorf("commands file: %w", err)
		}
		colors.Debug("no commands file at", path, "using demo commands")
		return src, nil
	}
	src.Path = path
	return src, nil
}

// load reads the commands file and warns about duplicate ids through warn.
func (s commandSource) load(warn func(string)) ([]command.Command, error) {
	loaded, err := command.LoadFile(s.Path, s.Shell)
	if err != nil {
		return nil, err
	}
	if len(loaded.Duplicates) > 0 {
		msg := fmt.Sprintf("duplicate command ids in %s: %s", loaded.Path, strings.Join(loaded.Duplicates, ", "))
		logging.Warn("duplicate command ids", "path", loaded.Path, "ids", loaded.Duplicates)
		if warn != nil {
			warn(msg)
		}
	}
	return loaded.Commands, nil
}

// staticCommands loads the commands once, from the file or the demo.
func (s commandSource) staticCommands(opts ...demo.Option) ([]command.Command, *demo.Set, error) {
	if s.Demo() {
		set := demo.New(opts...)
		return set.Commands(), set, nil
	}
	cmds, err := s.load(func(msg string) { colors.Warning(msg) })
	return cmds, nil, err
}

// searchOptions builds ranking options from configuration. A positive
// limit overrides result_limit.
func searchOptions(limit int) []search.Option {
	if limit <= 0 {
		limit = config.GetInt("result_limit", search.DefaultLimit)
	}
	return []search.Option{
		search.WithLimit(limit),
		search.WithMatcher(config.Get("matcher", search.MatcherFzf)),
		search.WithCaseSensitive(config.GetBool("case_sensitive", false)),
	}
}

// openHistory opens the run history, or returns nil when it is disabled.
func openHistory() (*history.Store, error) {
	if !config.GetBool("history_enabled", true) {
		return nil, nil
	}
	stateDir := config.Get("state_dir", "")
	if stateDir == "" {
		return nil, errors.New("history: state_dir is not set")
	}
	return history.Open(history.Path(stateDir), history.WithMaxRows(config.GetInt("history_max_rows", history.DefaultMaxRows)))
}
