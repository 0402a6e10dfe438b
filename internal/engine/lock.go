package engine

import (
	"context"
	"sync"

	"github.com/kode4food/tartan/pkg/api"
)

type (
	// projectLocks serializes executions per project. Waiting honors the
	// caller's context
	projectLocks struct {
		locks map[api.ProjectID]*projectLock
		mu    sync.Mutex
	}

	projectLock struct {
		ch   chan struct{}
		refs int
	}
)

func newProjectLocks() *projectLocks {
	return &projectLocks{
		locks: map[api.ProjectID]*projectLock{},
	}
}

func (p *projectLocks) acquire(
	ctx context.Context, id api.ProjectID,
) (func(), error) {
	l := p.ref(id)
	select {
	case l.ch <- struct{}{}:
		return func() {
			<-l.ch
			p.unref(id, l)
		}, nil
	case <-ctx.Done():
		p.unref(id, l)
		return nil, ctx.Err()
	}
}

func (p *projectLocks) ref(id api.ProjectID) *projectLock {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.locks[id]
	if !ok {
		l = &projectLock{ch: make(chan struct{}, 1)}
		p.locks[id] = l
	}
	l.refs++
	return l
}

func (p *projectLocks) unref(id api.ProjectID, l *projectLock) {
	p.mu.Lock()
	defer p.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(p.locks, id)
	}
}
