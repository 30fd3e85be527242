// Package logtail reads and follows the application log.
//
// Logs are rotated at each deploy (one generation), so a full read of the
// current file stays bounded. Follow watches the file with fsnotify and
// streams appended bytes, reopening from the start when a rotation swaps
// the file out underneath it.
package logtail

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Tail returns the last n lines of the file at path. A missing file yields
// no lines and no error, matching a deploy that has not produced output yet.
func Tail(path string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return nil, nil
	}

	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}

// Follow streams the file at path to w until ctx is done. Existing contents
// are skipped; only bytes appended after the call are written. When the
// file is replaced (log rotation), Follow reopens it from the start.
func Follow(ctx context.Context, path string, w io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	// Watch the parent directory so rotation (remove + recreate) is seen.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	var file *os.File
	var offset int64

	openAtEnd := func() error {
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("failed to open log file: %w", err)
		}
		end, err := f.Seek(0, io.SeekEnd)
		if err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to seek log file: %w", err)
		}
		file = f
		offset = end
		return nil
	}

	drain := func() error {
		if file == nil {
			return nil
		}
		if _, err := file.Seek(offset, io.SeekStart); err != nil {
			return fmt.Errorf("failed to seek log file: %w", err)
		}
		n, err := io.Copy(w, file)
		offset += n
		if err != nil {
			return fmt.Errorf("failed to copy log data: %w", err)
		}
		return nil
	}

	if err := openAtEnd(); err != nil {
		return err
	}
	defer func() {
		if file != nil {
			_ = file.Close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != path {
				continue
			}

			switch {
			case event.Op.Has(fsnotify.Create):
				// Rotation produced a fresh file: reopen from the start.
				if file != nil {
					_ = file.Close()
					file = nil
				}
				f, err := os.Open(path)
				if err != nil {
					if os.IsNotExist(err) {
						continue
					}
					return fmt.Errorf("failed to reopen log file: %w", err)
				}
				file = f
				offset = 0
				if err := drain(); err != nil {
					return err
				}

			case event.Op.Has(fsnotify.Write):
				if file == nil {
					if err := openAtEnd(); err != nil {
						return err
					}
					// The write that created this event happened after our
					// open point; start from the beginning to not lose it.
					offset = 0
				}
				if err := drain(); err != nil {
					return err
				}

			case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
				if file != nil {
					_ = file.Close()
					file = nil
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}
