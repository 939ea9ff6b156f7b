package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/me/cmdbot/internal/config"
	"github.com/me/cmdbot/internal/robot"
)

// watchConfig reloads the config file whenever it changes and applies the
// autonomous selection to bot. Other settings take effect on the next run.
func watchConfig(ctx context.Context, path string, bot *robot.Robot) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watch: %w", err)
	}
	defer w.Close()

	// Editors usually save by rename, which drops a watch on the file itself.
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("config watch %s: %w", path, err)
	}
	target := filepath.Clean(path)
	logger.Info("watching config", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if err := applyReload(path, bot); err != nil {
				logger.Warn("config reload rejected", "path", path, "error", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watch", "error", err)
		}
	}
}

// applyReload loads path and selects its autonomous routine on bot. An
// invalid file leaves the running robot untouched.
func applyReload(path string, bot *robot.Robot) error {
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	if loaded.Auto == bot.Status().SelectedAuto {
		return nil
	}
	if err := bot.SelectAuto(loaded.Auto); err != nil {
		return err
	}
	logger.Info("config reloaded", "path", path, "auto", loaded.Auto)
	return nil
}
