// internal/dashboard/registry.go
package dashboard

import (
	"context"
	"sync"

	"live-temp-dashboard/internal/config"
)

// Registry holds the configured dashboards in configuration order.
type Registry struct {
	list  []*Dashboard
	byKey map[string]*Dashboard
}

func NewRegistry(cfg *config.Config, opts Options) *Registry {
	r := &Registry{byKey: make(map[string]*Dashboard, len(cfg.Dashboards))}
	for _, dc := range cfg.Dashboards {
		d := New(cfg, dc, opts)
		r.list = append(r.list, d)
		r.byKey[d.Key] = d
	}
	return r
}

func (r *Registry) Get(key string) (*Dashboard, bool) {
	d, ok := r.byKey[key]
	return d, ok
}

func (r *Registry) All() []*Dashboard { return r.list }

// Run starts every hub and scheduler and blocks until ctx is done and all of
// them have returned.
func (r *Registry) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, d := range r.list {
		wg.Add(2)
		go func(d *Dashboard) {
			defer wg.Done()
			d.Hub.Run(ctx)
		}(d)
		go func(d *Dashboard) {
			defer wg.Done()
			d.Scheduler.Run(ctx)
		}(d)
	}
	wg.Wait()
}
