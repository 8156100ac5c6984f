package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/viant/lintexec/linter"
)

const watchDebounce = 300 * time.Millisecond

var ignoredDirectories = map[string]bool{
	"node_modules": true,
	"dist":         true,
	"build":        true,
	"coverage":     true,
}

func newWatchCommand(root *rootOptions) *cobra.Command {
	options := &lintOptions{}
	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Lint a path with packmind.json packages every time a file changes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(options.output)
			if err != nil {
				return err
			}
			diffMode, err := options.diffMode()
			if err != nil {
				return err
			}
			service, err := options.service(cmd.Context(), root.logger)
			if err != nil {
				return err
			}
			location := pathArg(args)
			lint := func(ctx context.Context) {
				result, err := service.LintConfig(ctx, linter.ConfigRequest{Path: location, DiffMode: diffMode})
				if err != nil {
					if ctx.Err() == nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
					}
					return
				}
				if err = report(cmd.OutOrStdout(), format, result); err != nil && !errors.Is(err, errViolationsFound) {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				}
			}
			return watch(cmd.Context(), location, root.logger, cmd.ErrOrStderr(), lint)
		},
	}
	options.register(cmd)
	return cmd
}

// watch runs lint once, then again after every debounced burst of changes below location
func watch(ctx context.Context, location string, logger *slog.Logger, status io.Writer, lint func(ctx context.Context)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(location)
	if err != nil {
		return fmt.Errorf("failed to resolve %v: %w", location, err)
	}
	if err = addRecursive(watcher, abs, logger); err != nil {
		return err
	}
	lint(ctx)
	fmt.Fprintf(status, "watching %v for changes\n", abs)

	runs := make(chan struct{}, 1)
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ignored(abs, event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addRecursive(watcher, event.Name, logger); err != nil {
						logger.Warn("failed to watch directory", slog.String("directory", event.Name), slog.Any("error", err))
					}
				}
			}
			logger.Debug("file changed", slog.String("file", event.Name), slog.String("op", event.Op.String()))
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case runs <- struct{}{}:
				default:
				}
			})
		case <-runs:
			lint(ctx)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", slog.Any("error", err))
		}
	}
}

func addRecursive(watcher *fsnotify.Watcher, root string, logger *slog.Logger) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to watch %v: %w", root, err)
	}
	if !info.IsDir() {
		return watcher.Add(root)
	}
	return filepath.WalkDir(root, func(location string, entry fs.DirEntry, err error) error {
		if err != nil {
			logger.Debug("skipping unreadable path", slog.String("path", location), slog.Any("error", err))
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if location != root && (strings.HasPrefix(entry.Name(), ".") || ignoredDirectories[entry.Name()]) {
			return filepath.SkipDir
		}
		return watcher.Add(location)
	})
}

// ignored reports whether a path below root lies in a hidden or ignored directory
func ignored(root, location string) bool {
	rel, err := filepath.Rel(root, location)
	if err != nil {
		return false
	}
	for _, element := range strings.Split(filepath.ToSlash(rel), "/") {
		if ignoredDirectories[element] || (len(element) > 1 && strings.HasPrefix(element, ".") && element != "..") {
			return true
		}
	}
	return false
}
