// Package source normalizes the ways a list can receive its items (an
// immediate collection, a single deferred load, or a stream of updates) into
// one snapshot-plus-notification model driven by bubbletea messages.
package source

import (
	"context"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/osteele/treeselect/internal/debug"
	"github.com/osteele/treeselect/internal/tree"
)

// Kind identifies how a Provider delivers items.
type Kind int

const (
	KindStatic Kind = iota
	KindDeferred
	KindStream
)

// Update is one snapshot pushed by a stream. A non-nil Err ends the stream.
type Update struct {
	Items []*tree.Item
	Err   error
}

// Provider produces the items of a list.
type Provider struct {
	kind  Kind
	items []*tree.Item
	load  func(context.Context) ([]*tree.Item, error)
	open  func(context.Context) <-chan Update
}

// Static provides a collection that is available immediately.
func Static(items []*tree.Item) Provider {
	return Provider{kind: KindStatic, items: items}
}

// Deferred provides a collection resolved once by load.
func Deferred(load func(ctx context.Context) ([]*tree.Item, error)) Provider {
	return Provider{kind: KindDeferred, load: load}
}

// Stream provides successive snapshots. open is called once per Set; the
// channel it returns must be closed, or carry an error, when the stream ends.
// The context is cancelled when the adapter moves on to another provider.
func Stream(open func(ctx context.Context) <-chan Update) Provider {
	return Provider{kind: KindStream, open: open}
}

// Kind returns the delivery kind.
func (p Provider) Kind() Kind {
	return p.kind
}

// LoadedMsg delivers a provider result to the adapter that requested it.
type LoadedMsg struct {
	Items []*tree.Item
	Err   error

	id   int
	gen  uint64
	done bool
}

var lastID int64

// Adapter holds the current snapshot of one list's items.
type Adapter struct {
	id  int
	gen uint64

	items   []*tree.Item
	err     error
	loading bool

	cancel  context.CancelFunc
	updates <-chan Update
}

// NewAdapter creates an empty adapter.
func NewAdapter() *Adapter {
	return &Adapter{id: int(atomic.AddInt64(&lastID, 1))}
}

// Set switches to a new provider. Results still in flight from the previous
// provider are ignored once they arrive. The returned command, if any, must be
// run by the caller's program and its message passed to Update.
func (a *Adapter) Set(p Provider) tea.Cmd {
	a.stop()
	a.gen++
	a.err = nil

	switch p.kind {
	case KindDeferred:
		a.loading = true
		ctx, cancel := context.WithCancel(context.Background())
		a.cancel = cancel
		id, gen, load := a.id, a.gen, p.load
		return func() tea.Msg {
			items, err := load(ctx)
			return LoadedMsg{Items: items, Err: err, id: id, gen: gen, done: true}
		}

	case KindStream:
		a.loading = true
		ctx, cancel := context.WithCancel(context.Background())
		a.cancel = cancel
		a.updates = p.open(ctx)
		return a.next()

	default:
		a.items = p.items
		a.loading = false
		return nil
	}
}

func (a *Adapter) next() tea.Cmd {
	id, gen, ch := a.id, a.gen, a.updates
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return LoadedMsg{id: id, gen: gen, done: true}
		}
		return LoadedMsg{Items: u.Items, Err: u.Err, id: id, gen: gen, done: u.Err != nil}
	}
}

// Update applies a provider result. It reports whether the snapshot or error
// state changed, and returns the command that waits for the next stream
// update, if any.
func (a *Adapter) Update(msg LoadedMsg) (bool, tea.Cmd) {
	if msg.id != a.id || msg.gen != a.gen {
		return false, nil
	}

	if msg.Err != nil {
		debug.Log("source: provider failed: %v", msg.Err)
		a.stop()
		a.items = nil
		a.err = msg.Err
		a.loading = false
		return true, nil
	}

	if msg.done && a.updates != nil && msg.Items == nil {
		// Stream closed.
		a.stop()
		a.loading = false
		return false, nil
	}

	a.items = msg.Items
	if msg.done {
		a.stop()
		a.loading = false
		return true, nil
	}
	a.loading = false
	return true, a.next()
}

// Snapshot returns the current items. It is empty after a provider failure.
func (a *Adapter) Snapshot() []*tree.Item {
	return a.items
}

// Err returns the terminal provider error, if any.
func (a *Adapter) Err() error {
	return a.err
}

// Hint returns the message to show in place of the list after a provider
// failure, or "".
func (a *Adapter) Hint() string {
	if a.err == nil {
		return ""
	}
	return a.err.Error()
}

// Loading reports whether the provider has not delivered yet.
func (a *Adapter) Loading() bool {
	return a.loading
}

// Close releases the current provider. Later results are ignored.
func (a *Adapter) Close() {
	a.stop()
	a.gen++
	a.loading = false
}

func (a *Adapter) stop() {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.updates = nil
}

// Items resolves a provider outside the update loop. Streams yield their
// first snapshot.
func Items(ctx context.Context, p Provider) ([]*tree.Item, error) {
	switch p.kind {
	case KindStatic:
		return p.items, nil
	case KindDeferred:
		return p.load(ctx)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	u, ok := <-p.open(ctx)
	if !ok {
		return nil, nil
	}
	return u.Items, u.Err
}
