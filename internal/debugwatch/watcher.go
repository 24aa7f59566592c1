// Package debugwatch lets a long-lived host process flip an
// allocator's debug consistency checker on or off by editing a small
// JSON file on disk, instead of restarting the process.
package debugwatch

import (
	"encoding/json"
	"os"

	"github.com/fsnotify/fsnotify"

	"github.com/orizon-lang/heapalloc/internal/errors"
)

// toggleFile is the on-disk shape this package understands: a single
// boolean field. Anything else in the file is ignored.
type toggleFile struct {
	Debug bool `json:"debug"`
}

// Watcher observes a single JSON toggle file and invokes onChange
// every time its "debug" field's value changes, including once with
// the file's initial value before NewWatcher returns.
type Watcher struct {
	w      *fsnotify.Watcher
	path   string
	done   chan struct{}
	errC   chan error
	last   bool
	haveOK bool
}

// NewWatcher starts watching path and delivers the current value of
// its "debug" field to onChange before returning. Subsequent writes
// to path invoke onChange again, but only when the decoded value
// actually differs from the last one delivered.
func NewWatcher(path string, onChange func(bool)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dw := &Watcher{w: fw, path: path, done: make(chan struct{}), errC: make(chan error, 1)}

	initial, err := readToggle(path)
	if err != nil {
		fw.Close()

		return nil, err
	}

	dw.last = initial
	dw.haveOK = true
	onChange(initial)

	if err := fw.Add(path); err != nil {
		fw.Close()

		return nil, err
	}

	go dw.loop(onChange)

	return dw, nil
}

func (dw *Watcher) loop(onChange func(bool)) {
	for {
		select {
		case ev, ok := <-dw.w.Events:
			if !ok {
				return
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			val, err := readToggle(dw.path)
			if err != nil {
				select {
				case dw.errC <- err:
				default:
				}

				continue
			}

			if dw.haveOK && val == dw.last {
				continue
			}

			dw.last = val
			dw.haveOK = true
			onChange(val)

		case err, ok := <-dw.w.Errors:
			if !ok {
				return
			}

			select {
			case dw.errC <- err:
			default:
			}

		case <-dw.done:
			return
		}
	}
}

// Errors reports watcher and decode errors encountered in the
// background goroutine. The channel is buffered by one; callers that
// never drain it simply miss subsequent errors until they do.
func (dw *Watcher) Errors() <-chan error { return dw.errC }

// Close stops the watcher goroutine and releases the underlying
// fsnotify handle.
func (dw *Watcher) Close() error {
	close(dw.done)

	return dw.w.Close()
}

func readToggle(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	var tf toggleFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return false, errors.NewStandardError(errors.CategoryValidation, "INVALID_TOGGLE_FILE",
			"debug toggle file is not valid JSON",
			map[string]interface{}{"path": path})
	}

	return tf.Debug, nil
}
