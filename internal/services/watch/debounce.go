package watch

import (
	"context"
	"sort"
	"time"
)

// Request asks for a re-render after the listed absolute paths changed.
type Request struct {
	Paths []string
}

// Debounce coalesces paths arriving on changes into Requests. A Request is
// sent once no new path has arrived for window. Pending paths are flushed
// when changes is closed. requests is closed on return.
func Debounce(ctx context.Context, changes <-chan string, window time.Duration, requests chan<- Request) {
	defer close(requests)

	pending := make(map[string]struct{})
	var quiet <-chan time.Time

	flush := func() bool {
		if len(pending) == 0 {
			return true
		}
		paths := make([]string, 0, len(pending))
		for path := range pending {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		pending = make(map[string]struct{})
		select {
		case requests <- Request{Paths: paths}:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case path, open := <-changes:
			if !open {
				flush()
				return
			}
			pending[path] = struct{}{}
			quiet = time.After(window)
		case <-quiet:
			quiet = nil
			if !flush() {
				return
			}
		}
	}
}
