package cameramark

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"k8s.io/klog/v2"
)

// Watcher marks photos as they appear in an input directory.
type Watcher struct {
	c *Config
	m *Marker
	w *fsnotify.Watcher
}

// NewWatcher starts watching c.InPath, which must be a directory.
func NewWatcher(c *Config, m *Marker) (*Watcher, error) {
	st, err := os.Stat(c.InPath)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("%w: watch needs a directory, got %s", ErrInvalidArgument, c.InPath)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("new watcher: %w", err)
	}
	if err := w.Add(c.InPath); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", c.InPath, err)
	}

	return &Watcher{c: c, m: m, w: w}, nil
}

// Run processes events until ctx is done. Failures are logged, not returned.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.w.Close()
	klog.Infof("watching %s ...", w.c.InPath)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.w.Events:
			if !ok {
				return nil
			}
			klog.V(1).Infof("event: %v", event)
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !watchable(event.Name) {
				continue
			}
			out, err := w.m.Mark(event.Name, w.c.OutDir)
			if err != nil {
				klog.Errorf("mark %s: %v", event.Name, err)
				continue
			}
			klog.Infof("wrote %s", out)
		case err, ok := <-w.w.Errors:
			if !ok {
				return nil
			}
			klog.Errorf("watch error: %v", err)
		}
	}
}

func watchable(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	st, err := os.Stat(path)
	if err != nil || st.IsDir() {
		return false
	}
	return Supported(path)
}
