package shipper

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Registry manages registered delivery carriers.
type Registry struct {
	shippers map[string]Shipper
	mu       sync.RWMutex
}

// NewRegistry creates a new carrier registry.
func NewRegistry() *Registry {
	return &Registry{
		shippers: make(map[string]Shipper),
	}
}

// Register adds a carrier to the registry, replacing any with the same name.
func (r *Registry) Register(s Shipper) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shippers[s.Name()] = s
}

// Get returns a carrier by name.
func (r *Registry) Get(name string) (Shipper, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.shippers[name]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrCarrierNotFound, name)
}

// DriverManager returns the named carrier's driver operations.
func (r *Registry) DriverManager(name string) (DriverManager, error) {
	s, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	dm, ok := s.(DriverManager)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not manage drivers", ErrNotSupported, name)
	}
	return dm, nil
}

// CityLister returns the named carrier's city catalog.
func (r *Registry) CityLister(name string) (CityLister, error) {
	s, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	cl, ok := s.(CityLister)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not list cities", ErrNotSupported, name)
	}
	return cl, nil
}

// All returns all registered carriers ordered by name.
func (r *Registry) All() []Shipper {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Shipper, 0, len(r.shippers))
	for _, s := range r.shippers {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result
}

// Names returns the sorted names of all registered carriers.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.shippers))
	for name := range r.shippers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered carriers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.shippers)
}

// GetQuotesFromCarriers prices req with each named carrier in parallel, or
// with every registered carrier when carriers is empty. A failing carrier
// does not fail the others; its error is returned alongside the quotes.
func (r *Registry) GetQuotesFromCarriers(ctx context.Context, req *QuoteRequest, carriers []string) ([]*QuoteResponse, []error) {
	if len(carriers) == 0 {
		carriers = r.Names()
	}
	if len(carriers) == 0 {
		return nil, []error{ErrCarrierNotFound}
	}

	results := make([]*QuoteResponse, 0, len(carriers))
	errs := make([]error, 0)
	mu := &sync.Mutex{}

	g, ctx := errgroup.WithContext(ctx)

	for _, name := range carriers {
		g.Go(func() error {
			s, err := r.Get(name)
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}

			resp, err := s.GetQuote(ctx, req)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return nil
			}
			results = append(results, resp)
			return nil
		})
	}

	g.Wait()
	sort.Slice(results, func(i, j int) bool { return results[i].Carrier < results[j].Carrier })
	return results, errs
}
