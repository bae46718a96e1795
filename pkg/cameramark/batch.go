package cameramark

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/otiai10/copy"
	"k8s.io/klog/v2"
)

// UnprocessedDir holds copies of inputs that failed when KeepGoing is set.
var UnprocessedDir = "unprocessed"

// Summary describes a finished batch.
type Summary struct {
	Written []string
	Failed  map[string]error
}

// Run marks every input named by c.InPath into c.OutDir.
func Run(ctx context.Context, c *Config, m *Marker) (*Summary, error) {
	klog.Infof("run: %s -> %s", c.InPath, c.OutDir)

	if err := PrepareOutDir(c.OutDir); err != nil {
		return nil, err
	}

	paths, err := Inputs(c.InPath)
	if err != nil {
		return nil, err
	}

	s := &Summary{Failed: map[string]error{}}
	for i, p := range paths {
		if err := ctx.Err(); err != nil {
			return s, err
		}

		klog.Infof("[%d/%d] marking %s", i+1, len(paths), p)
		out, err := m.Mark(p, c.OutDir)
		if err != nil {
			if !c.KeepGoing {
				return s, fmt.Errorf("mark %s: %w", p, err)
			}
			klog.Errorf("mark %s: %v", p, err)
			s.Failed[p] = err
			if err := quarantine(p, c.OutDir); err != nil {
				klog.Warningf("unable to copy %s to %s: %v", p, UnprocessedDir, err)
			}
			continue
		}
		s.Written = append(s.Written, out)
	}

	klog.Infof("marked %d of %d files", len(s.Written), len(paths))
	if len(s.Failed) > 0 {
		return s, fmt.Errorf("%d of %d files failed", len(s.Failed), len(paths))
	}
	return s, nil
}

// PrepareOutDir creates dir, or empties it if it already exists.
func PrepareOutDir(dir string) error {
	st, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		klog.Infof("creating %s", dir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}

	if !st.IsDir() {
		return fmt.Errorf("%w: output folder %s is not a directory", ErrInvalidArgument, dir)
	}

	names, err := godirwalk.ReadDirnames(dir, nil)
	if err != nil {
		return fmt.Errorf("read dir: %w", err)
	}
	if len(names) > 0 {
		klog.Infof("removing %d stale entries from %s", len(names), dir)
	}
	for _, n := range names {
		if err := os.RemoveAll(filepath.Join(dir, n)); err != nil {
			return fmt.Errorf("remove: %w", err)
		}
	}
	return nil
}

// Inputs returns path itself if it is a file, or the files directly inside it
// in lexicographic order. Subdirectories and dot-files are skipped.
func Inputs(path string) ([]string, error) {
	st, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}

	if !st.IsDir() {
		return []string{path}, nil
	}

	des, err := godirwalk.ReadDirents(path, nil)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	paths := []string{}
	for _, de := range des {
		if de.IsDir() || strings.HasPrefix(de.Name(), ".") {
			klog.V(1).Infof("skipping %s", de.Name())
			continue
		}
		paths = append(paths, filepath.Join(path, de.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func quarantine(path string, outDir string) error {
	return copy.Copy(path, filepath.Join(outDir, UnprocessedDir, filepath.Base(path)))
}
