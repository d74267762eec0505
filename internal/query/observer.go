package query

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Options configure how an Observer reads its entry.
type Options struct {
	Enabled bool
	// StaleTime is how long fetched data is considered fresh.
	StaleTime time.Duration
	// CacheTime is how long the entry is kept once no observer uses it.
	CacheTime time.Duration
	// KeepPreviousData serves the last key's data while a new key loads.
	KeepPreviousData bool
	KeyHashFn        KeyHashFunc
	// Select transforms entry data before it is handed out.
	Select func(data any) any
	// Suspense makes Read block until the current key settles.
	Suspense bool
	// Retry is the number of extra attempts after a failed fetch.
	Retry      int
	RetryDelay time.Duration

	OnSuccess func(data any)
	OnError   func(err error)
	OnSettled func(data any, err error)
}

// Result is what an Observer exposes for its current key.
type Result struct {
	Data           any
	Err            error
	Status         Status
	IsFetching     bool
	IsPreviousData bool
	UpdatedAt      time.Time
}

// Observer follows one cache entry at a time. Changing the key moves it to
// another entry; notifications from the entry it left are ignored.
type Observer struct {
	client *Client
	logger *zap.Logger

	mu          sync.Mutex
	hash        string
	key         Key
	fn          QueryFunc
	opts        Options
	state       State
	previous    *State
	unsubscribe func()
	changed     chan struct{}
	subscribers map[int]func(Result)
	nextID      int
	closed      bool

	ctx    context.Context
	cancel context.CancelFunc
	notify *notifier
}

func NewObserver(client *Client, logger *zap.Logger) *Observer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Observer{
		client:      client,
		logger:      logger.Named("observer"),
		changed:     make(chan struct{}),
		subscribers: make(map[int]func(Result)),
		ctx:         ctx,
		cancel:      cancel,
		notify:      newNotifier(),
	}
}

// SetOptions points the observer at key. When the hash changes the observer
// follows the new entry; when enabled and the entry is stale a fetch starts.
func (o *Observer) SetOptions(key Key, fn QueryFunc, opts Options) error {
	hashFn := opts.KeyHashFn
	if hashFn == nil {
		hashFn = HashKey
	}
	hash, err := hashFn(key)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}

	wasEnabled := o.opts.Enabled
	hashChanged := hash != o.hash || o.unsubscribe == nil
	o.key = key
	o.fn = fn
	o.opts = opts

	if hashChanged {
		if o.unsubscribe != nil {
			o.unsubscribe()
			if o.state.HasData() {
				prev := o.state
				o.previous = &prev
			}
		}
		o.hash = hash
		o.unsubscribe = o.client.Subscribe(hash, opts.CacheTime, o.listener(hash))
		o.state, _ = o.client.State(hash)
		if o.state.HasData() {
			o.previous = nil
		}
	}
	if !opts.KeepPreviousData {
		o.previous = nil
	}

	if opts.Enabled && (hashChanged || !wasEnabled) && !o.state.Fetching && !o.client.isFresh(o.state, opts.StaleTime) {
		o.startFetchLocked()
	}
	o.broadcastLocked()
	return nil
}

func (o *Observer) listener(hash string) Listener {
	return func(st State) {
		o.mu.Lock()
		defer o.mu.Unlock()
		if o.closed || o.hash != hash {
			return
		}
		o.state = st
		if st.HasData() {
			o.previous = nil
		}
		o.broadcastLocked()
	}
}

// startFetchLocked must be called with o.mu held.
func (o *Observer) startFetchLocked() {
	hash, key, fn, opts := o.hash, o.key, o.fn, o.opts
	// mark the local snapshot so Result reports loading until the cache catches up
	o.state.Fetching = true
	go func() {
		_, _ = o.run(o.ctx, hash, key, fn, opts, opts.StaleTime)
	}()
}

// run fetches with retries and fires callbacks when the key is still current.
func (o *Observer) run(ctx context.Context, hash string, key Key, fn QueryFunc, opts Options, staleTime time.Duration) (any, error) {
	var (
		data any
		err  error
	)
	for attempt := 0; ; attempt++ {
		data, err = o.client.Fetch(ctx, hash, key, fn, staleTime)
		if err == nil || attempt >= opts.Retry || ctx.Err() != nil {
			break
		}
		o.logger.Debug("Retrying query", zap.String("hash", hash), zap.Int("attempt", attempt+1), zap.Error(err))
		select {
		case <-ctx.Done():
		case <-time.After(opts.RetryDelay):
		}
	}

	o.mu.Lock()
	current := !o.closed && o.hash == hash
	if current {
		// a fresh hit or an abandoned wait writes nothing to the cache
		if st, ok := o.client.State(hash); ok {
			o.state = st
		} else {
			o.state.Fetching = false
		}
		o.broadcastLocked()
	}
	o.mu.Unlock()
	if !current {
		return data, err
	}
	// the caller stopped waiting; the shared fetch still settles the entry
	if err != nil && ctx.Err() != nil {
		return data, err
	}

	if err != nil {
		o.logger.Debug("Query settled with error", zap.String("hash", hash), zap.Error(err))
		o.notify.enqueue(func() {
			if opts.OnError != nil {
				opts.OnError(err)
			}
			if opts.OnSettled != nil {
				opts.OnSettled(nil, err)
			}
		})
		return data, err
	}
	selected := data
	if opts.Select != nil {
		selected = opts.Select(data)
	}
	o.notify.enqueue(func() {
		if opts.OnSuccess != nil {
			opts.OnSuccess(selected)
		}
		if opts.OnSettled != nil {
			opts.OnSettled(selected, nil)
		}
	})
	return data, nil
}

// broadcastLocked wakes waiters and queues subscriber notifications.
func (o *Observer) broadcastLocked() {
	close(o.changed)
	o.changed = make(chan struct{})
	if len(o.subscribers) == 0 {
		return
	}
	v := o.viewLocked()
	subs := make([]func(Result), 0, len(o.subscribers))
	for _, fn := range o.subscribers {
		subs = append(subs, fn)
	}
	o.notify.enqueue(func() {
		res := v.result()
		for _, fn := range subs {
			fn(res)
		}
	})
}

// Result returns the current result without blocking.
func (o *Observer) Result() Result {
	o.mu.Lock()
	v := o.viewLocked()
	o.mu.Unlock()
	return v.result()
}

// view is a result whose Select has not run yet. Select is user code and
// only runs once no lock is held.
type view struct {
	res     Result
	hasData bool
	sel     func(any) any
}

func (v view) result() Result {
	if v.hasData && v.sel != nil {
		v.res.Data = v.sel(v.res.Data)
	}
	return v.res
}

func (o *Observer) viewLocked() view {
	st := o.state
	res := Result{
		IsFetching: st.Fetching,
		UpdatedAt:  st.UpdatedAt,
	}

	data, hasData := st.Data, st.HasData()
	if !hasData && o.previous != nil {
		data, hasData = o.previous.Data, true
		res.IsPreviousData = true
		res.UpdatedAt = o.previous.UpdatedAt
	}
	if hasData {
		res.Data = data
	}

	switch {
	case st.Err != nil && !st.ErrorUpdatedAt.Before(st.UpdatedAt):
		res.Status = StatusError
		res.Err = st.Err
	case hasData:
		res.Status = StatusSuccess
	case st.Fetching:
		res.Status = StatusLoading
	case !o.opts.Enabled:
		res.Status = StatusIdle
	default:
		res.Status = StatusLoading
	}
	return view{res: res, hasData: hasData, sel: o.opts.Select}
}

// Read returns the current result, waiting for it to settle first when the
// observer runs in suspense mode.
func (o *Observer) Read(ctx context.Context) (Result, error) {
	o.mu.Lock()
	suspense := o.opts.Suspense
	o.mu.Unlock()
	if suspense {
		return o.Wait(ctx)
	}
	return o.Result(), nil
}

// Wait blocks until the current key has data or an error, or the observer
// is disabled. It returns early with ctx's error.
func (o *Observer) Wait(ctx context.Context) (Result, error) {
	for {
		o.mu.Lock()
		v := o.viewLocked()
		changed := o.changed
		closed := o.closed
		o.mu.Unlock()

		if closed || v.res.Status != StatusLoading {
			return v.result(), nil
		}
		select {
		case <-ctx.Done():
			return v.result(), ctx.Err()
		case <-changed:
		}
	}
}

// Refetch fetches the current key regardless of staleness and returns the
// settled result.
func (o *Observer) Refetch(ctx context.Context) (Result, error) {
	o.mu.Lock()
	if o.closed || o.unsubscribe == nil {
		v := o.viewLocked()
		o.mu.Unlock()
		return v.result(), nil
	}
	hash, key, fn, opts := o.hash, o.key, o.fn, o.opts
	o.state.Fetching = true
	o.broadcastLocked()
	o.mu.Unlock()

	// a zero stale time always reaches the query function
	if _, err := o.run(ctx, hash, key, fn, opts, 0); err != nil && ctx.Err() != nil {
		return o.Result(), ctx.Err()
	}
	return o.Result(), nil
}

// Subscribe registers fn for every result change. Notifications are
// delivered in order on a dedicated goroutine.
func (o *Observer) Subscribe(fn func(Result)) (unsubscribe func()) {
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.subscribers[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.subscribers, id)
	}
}

// Close detaches the observer from the cache and stops notifications.
func (o *Observer) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	unsubscribe := o.unsubscribe
	o.unsubscribe = nil
	close(o.changed)
	o.changed = make(chan struct{})
	o.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	o.cancel()
	o.notify.stop()
}
