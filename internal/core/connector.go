// Package database supervises the single long-lived MongoDB connection.
//
// Connection happens in the background so that route registration and socket
// binding never wait for the database. Until the connector reports Connected,
// Collection returns domain.ErrUnavailable and data-dependent requests fail
// fast instead of blocking on server selection.
package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/duynhne/groc-service/internal/core/domain"
)

// State is the lifecycle state of the connector.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Failed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Observer is notified of every state transition. err is non-nil only for Failed.
// Observers run on the connector goroutine and must not block for long.
type Observer func(state State, err error)

// Connector owns the MongoDB client.
type Connector struct {
	uri     string
	dbName  string
	timeout time.Duration

	mu        sync.RWMutex
	state     State
	lastErr   error
	client    *mongo.Client
	db        *mongo.Database
	observers []Observer
	started   bool
	closed    bool
	done      chan struct{}
}

// NewConnector creates a connector for uri. The connection attempt is bounded by timeout.
func NewConnector(uri, dbName string, timeout time.Duration) *Connector {
	return &Connector{
		uri:     uri,
		dbName:  dbName,
		timeout: timeout,
		done:    make(chan struct{}),
	}
}

// OnStateChange registers an observer. Register observers before Start.
func (c *Connector) OnStateChange(fn Observer) {
	c.mu.Lock()
	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

// Start launches a single connection attempt in the background and returns immediately.
// There is no automatic retry; a failed attempt leaves the connector in Failed.
// Only the first call has an effect, and Start after Close does nothing.
func (c *Connector) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.state, c.lastErr = Connecting, nil
	observers := append([]Observer(nil), c.observers...)
	c.mu.Unlock()

	notify(observers, Connecting, nil)
	go c.connect(ctx)
}

func (c *Connector) connect(ctx context.Context) {
	defer close(c.done)

	opts := options.Client().
		ApplyURI(c.uri).
		SetServerSelectionTimeout(c.timeout).
		SetConnectTimeout(c.timeout)

	client, err := mongo.Connect(opts)
	if err != nil {
		c.transition(Failed, fmt.Errorf("connect mongo: %w", err))
		return
	}

	pingCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		c.transition(Failed, fmt.Errorf("ping mongo: %w", err))
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = client.Disconnect(context.Background())
		c.transition(Disconnected, nil)
		return
	}
	c.client = client
	c.db = client.Database(c.dbName)
	c.mu.Unlock()
	c.transition(Connected, nil)
}

func (c *Connector) transition(s State, err error) {
	c.mu.Lock()
	c.state = s
	c.lastErr = err
	observers := append([]Observer(nil), c.observers...)
	c.mu.Unlock()

	notify(observers, s, err)
}

func notify(observers []Observer, s State, err error) {
	for _, fn := range observers {
		fn(s, err)
	}
}

// State returns the current state and the cause of the last failure, if any.
func (c *Connector) State() (State, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state, c.lastErr
}

// Done is closed once the connection attempt has finished, successfully or not.
func (c *Connector) Done() <-chan struct{} {
	return c.done
}

// Collection returns the named collection, or domain.ErrUnavailable while not connected.
func (c *Connector) Collection(name string) (*mongo.Collection, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != Connected || c.db == nil {
		return nil, fmt.Errorf("collection %q (%s): %w", name, c.state, domain.ErrUnavailable)
	}
	return c.db.Collection(name), nil
}

// Close disconnects the client if one was established. An attempt still in
// flight is discarded when it completes.
func (c *Connector) Close(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	client := c.client
	c.client = nil
	c.db = nil
	wasConnected := c.state == Connected
	c.mu.Unlock()

	if client == nil {
		return nil
	}
	if wasConnected {
		c.transition(Disconnected, nil)
	}
	return client.Disconnect(ctx)
}
