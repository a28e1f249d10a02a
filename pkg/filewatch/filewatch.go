package filewatch

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// ErrModified is the cause of a context canceled by UntilModified.
type ErrModified struct {
	Name string
	Op   fsnotify.Op
}

func (e *ErrModified) Error() string {
	return fmt.Sprintf("%s is updated (%s)", e.Name, e.Op)
}

const modification = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// UntilModified returns a context canceled when one of paths is written,
// created, removed or renamed. Permission changes are ignored.
//
// context.Cause of the returned context is *ErrModified after such a change.
//
// If error is not nil, both of the context and the cancel function are nil.
func UntilModified(ctx context.Context, paths ...string) (context.Context, func(), error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	for _, p := range paths {
		if err := w.Add(p); err != nil {
			w.Close()
			return nil, nil, err
		}
	}

	cctx, cancel := context.WithCancelCause(ctx)
	go func() {
		defer w.Close()

		for {
			select {
			case <-cctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Op&modification == 0 {
					continue
				}
				cancel(&ErrModified{Name: event.Name, Op: event.Op})
				return
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				cancel(err)
				return
			}
		}
	}()

	return cctx, func() { cancel(nil) }, nil
}
