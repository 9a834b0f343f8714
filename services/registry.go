// Package services wires the named service instances the application
// boots with. The registry replaces runtime module discovery with an
// explicit registration list resolved once at startup.
package services

import (
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/GregoryFarmer/orthant/errors"
	"github.com/GregoryFarmer/orthant/internal"
	"github.com/samber/lo"
)

// Definition names one service and the factory producing it.
type Definition struct {
	Name string
	New  func() (any, error)
}

// Registry resolves loaded services by name. It is immutable once Load
// returns; there is no hot reload.
type Registry struct {
	log      *slog.Logger
	services map[string]any
}

// Load instantiates every definition in order. A failing definition is
// logged and omitted from the resolvable set; the remaining definitions
// still load. There are no retries.
func Load(log *slog.Logger, defs ...Definition) *Registry {
	r := &Registry{log: log, services: make(map[string]any, len(defs))}
	for _, def := range defs {
		start := time.Now()
		svc, err := safeLoad(def)
		if err != nil {
			log.Error(
				internal.ErrorTag("Error")+fmt.Sprintf("Unable to load service '%s'", def.Name),
				"error", err,
			)
			continue
		}
		r.services[def.Name] = svc
		log.Info(internal.LoadedTag("Service Loaded") + fmt.Sprintf(
			"Service '%s' has been loaded! (%s)",
			def.Name, time.Since(start).Round(time.Millisecond),
		))
	}
	return r
}

// safeLoad isolates a panicking factory so one bad definition cannot
// abort the remaining loads.
func safeLoad(def Definition) (svc any, err error) {
	defer func() {
		if r := recover(); r != nil {
			svc = nil
			err = fmt.Errorf("%w: %s: panic: %v", apperrors.ErrServiceLoad, def.Name, r)
		}
	}()
	if def.New == nil {
		return nil, fmt.Errorf("%w: %s: nil factory", apperrors.ErrServiceLoad, def.Name)
	}
	svc, err = def.New()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrServiceLoad, def.Name, err)
	}
	return svc, nil
}

// Service returns the loaded service or nil when the name is unknown or
// its load failed.
func (r *Registry) Service(name string) any {
	return r.services[name]
}

// Services resolves several names at once, one slot per requested name in
// request order. Unknown names yield nil slots.
func (r *Registry) Services(names ...string) []any {
	return lo.Map(names, func(name string, _ int) any {
		return r.services[name]
	})
}
