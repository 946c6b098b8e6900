package connection

import (
	"context"
	"errors"

	pool "github.com/jolestar/go-commons-pool/v2"
)

// Pool keeps up to size idle-checked Clients to one server.
type Pool struct {
	pool *pool.ObjectPool
}

// clientFactory tells the object pool how to create, check and destroy
// clients.
type clientFactory struct {
	opts Options
}

func (f *clientFactory) MakeObject(ctx context.Context) (*pool.PooledObject, error) {
	c, err := Dial(ctx, f.opts)
	if err != nil {
		return nil, err
	}
	return pool.NewPooledObject(c), nil
}

func (f *clientFactory) DestroyObject(_ context.Context, object *pool.PooledObject) error {
	c, ok := object.Object.(*Client)
	if !ok {
		return errors.New("type mismatch")
	}
	return c.Close()
}

func (f *clientFactory) ValidateObject(_ context.Context, object *pool.PooledObject) bool {
	c, ok := object.Object.(*Client)
	return ok && c.Ping() == nil
}

func (f *clientFactory) ActivateObject(context.Context, *pool.PooledObject) error {
	return nil
}

func (f *clientFactory) PassivateObject(context.Context, *pool.PooledObject) error {
	return nil
}

// NewPool creates a pool of at most size clients.
func NewPool(ctx context.Context, opts Options, size int) *Pool {
	cfg := pool.NewDefaultPoolConfig()
	cfg.MaxTotal = size
	cfg.MaxIdle = size
	cfg.TestOnCreate = true
	return &Pool{pool: pool.NewObjectPool(ctx, &clientFactory{opts: opts}, cfg)}
}

// Borrow returns an idle client or dials a new one, blocking while size
// clients are in use.
func (p *Pool) Borrow(ctx context.Context) (*Client, error) {
	obj, err := p.pool.BorrowObject(ctx)
	if err != nil {
		return nil, err
	}
	return obj.(*Client), nil
}

// Return gives a healthy client back to the pool.
func (p *Pool) Return(ctx context.Context, c *Client) error {
	return p.pool.ReturnObject(ctx, c)
}

// Invalidate closes a broken client and frees its slot.
func (p *Pool) Invalidate(ctx context.Context, c *Client) error {
	return p.pool.InvalidateObject(ctx, c)
}

// Active returns the number of borrowed clients.
func (p *Pool) Active() int {
	return p.pool.GetNumActive()
}

// Idle returns the number of idle clients.
func (p *Pool) Idle() int {
	return p.pool.GetNumIdle()
}

// Close closes every idle client and rejects further borrows.
func (p *Pool) Close(ctx context.Context) {
	p.pool.Close(ctx)
}
