package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Group starts services in registration order and stops them in reverse
type Group struct {
	log *slog.Logger

	mu       sync.Mutex
	services []Service
	started  int
}

// NewGroup creates an empty group; nil logger discards
func NewGroup(log *slog.Logger) *Group {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Group{log: log}
}

// Add registers services; must be called before Start
func (g *Group) Add(svcs ...Service) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.services = append(g.services, svcs...)
}

// Start starts every service; on failure the already started ones are stopped
func (g *Group) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for g.started < len(g.services) {
		svc := g.services[g.started]
		if err := svc.Start(ctx); err != nil {
			stopErr := g.stopLocked()
			return errors.Join(fmt.Errorf("start %s: %w", svc.Name(), err), stopErr)
		}
		g.log.Debug("service started", "service", svc.Name())
		g.started++
	}
	return nil
}

// Stop stops started services in reverse order, joining their errors
func (g *Group) Stop() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stopLocked()
}

func (g *Group) stopLocked() error {
	var errs []error
	for ; g.started > 0; g.started-- {
		svc := g.services[g.started-1]
		if err := svc.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", svc.Name(), err))
			continue
		}
		g.log.Debug("service stopped", "service", svc.Name())
	}
	return errors.Join(errs...)
}
