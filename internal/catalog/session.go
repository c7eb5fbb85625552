package catalog

import (
	"context"
	"errors"
	"sync"

	"github.com/minhle/prodcat/internal/models"
)

// Session holds the canonical in-session product list. Mutations that reach
// the repository follow an optimistic discipline: apply locally first, roll
// back to the prior snapshot when the durable write fails. The list is only
// ever mutated through Session methods; callers receive copies.
type Session struct {
	mu       sync.Mutex
	repo     Repository
	products []models.Product
}

// NewSession creates an empty session over the given repository.
func NewSession(repo Repository) *Session {
	return &Session{repo: repo, products: []models.Product{}}
}

// Load replaces the session list with the repository's current collection.
func (s *Session) Load(ctx context.Context) error {
	products, err := s.repo.GetAll(ctx)
	if err != nil {
		return err
	}
	s.SetAll(products)
	return nil
}

// Products returns a copy of the current list.
func (s *Session) Products() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneProducts(s.products)
}

// SetAll replaces the list with a copy of products.
func (s *Session) SetAll(products []models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = cloneProducts(products)
}

// PendingOrError returns the eligible set for a processing run.
func (s *Session) PendingOrError() []models.Product {
	return s.filter(models.Product.Eligible)
}

// Completed returns the enriched products.
func (s *Session) Completed() []models.Product {
	return s.filter(func(p models.Product) bool { return p.Status == models.StatusCompleted })
}

func (s *Session) filter(keep func(models.Product) bool) []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Product, 0)
	for _, p := range s.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// optimistic applies a local change, runs the durable effect, and restores
// the prior snapshot when the effect fails. commit runs under the lock after
// a successful effect, typically to swap temp entries for stored ones.
func (s *Session) optimistic(apply func(), effect func() error, commit func()) error {
	s.mu.Lock()
	prev := cloneProducts(s.products)
	apply()
	s.mu.Unlock()

	if err := effect(); err != nil {
		s.mu.Lock()
		s.products = prev
		s.mu.Unlock()
		return err
	}

	if commit != nil {
		s.mu.Lock()
		commit()
		s.mu.Unlock()
	}
	return nil
}

// Add creates one product optimistically under a temp id, swapping in the
// stored product once the repository confirms.
func (s *Session) Add(ctx context.Context, name string) (models.Product, error) {
	if !models.ValidName(name) {
		return models.Product{}, ErrInvalidName
	}

	temp := models.NewTemp(name, models.SourceManual)
	var created models.Product

	err := s.optimistic(
		func() {
			s.products = append(s.products, temp)
		},
		func() error {
			var err error
			created, err = s.repo.Create(ctx, name, models.SourceManual)
			return err
		},
		func() {
			for i, p := range s.products {
				if p.ID == temp.ID {
					s.products[i] = created
					break
				}
			}
		},
	)
	if err != nil {
		return models.Product{}, err
	}
	return created, nil
}

// AddMany batch-creates the valid subset of names, optimistically inserting
// temp entries first. Nothing valid is a no-op, not an error.
func (s *Session) AddMany(ctx context.Context, names []string, source string) ([]models.Product, error) {
	valid := models.ValidNames(names)
	if len(valid) == 0 {
		return []models.Product{}, nil
	}

	temps := make([]models.Product, len(valid))
	tempIDs := make(map[string]bool, len(valid))
	for i, name := range valid {
		temps[i] = models.NewTemp(name, source)
		tempIDs[temps[i].ID] = true
	}

	var created []models.Product
	err := s.optimistic(
		func() {
			s.products = append(s.products, temps...)
		},
		func() error {
			var err error
			created, err = s.repo.BatchCreate(ctx, valid, source)
			return err
		},
		func() {
			kept := make([]models.Product, 0, len(s.products))
			for _, p := range s.products {
				if !tempIDs[p.ID] {
					kept = append(kept, p)
				}
			}
			s.products = append(kept, created...)
		},
	)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Remove deletes one product, restoring the prior list if the delete fails.
func (s *Session) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	found := false
	for _, p := range s.products {
		if p.ID == id {
			found = true
			break
		}
	}
	s.mu.Unlock()
	if !found {
		return ErrNotFound
	}

	return s.optimistic(
		func() {
			kept := make([]models.Product, 0, len(s.products))
			for _, p := range s.products {
				if p.ID != id {
					kept = append(kept, p)
				}
			}
			s.products = kept
		},
		func() error {
			return s.repo.Delete(ctx, id)
		},
		nil,
	)
}

// Clear removes everything, issuing the individual deletes concurrently and
// awaiting them together. Any failure restores the full prior list; items
// whose deletes already landed remotely are reconciled by the next Load.
func (s *Session) Clear(ctx context.Context) error {
	prev := s.Products()
	if len(prev) == 0 {
		return nil
	}

	return s.optimistic(
		func() {
			s.products = []models.Product{}
		},
		func() error {
			var wg sync.WaitGroup
			errs := make([]error, len(prev))
			for i, p := range prev {
				wg.Add(1)
				go func(i int, id string) {
					defer wg.Done()
					errs[i] = s.repo.Delete(ctx, id)
				}(i, p.ID)
			}
			wg.Wait()
			return errors.Join(errs...)
		},
		nil,
	)
}

// Process runs the batch engine over the current list, keeping the session
// in sync with every published snapshot.
func (s *Session) Process(ctx context.Context, proc *Processor, publish PublishFunc) (RunResult, error) {
	result, err := proc.Run(ctx, s.Products(), func(snapshot []models.Product) {
		s.SetAll(snapshot)
		if publish != nil {
			publish(snapshot)
		}
	})
	s.SetAll(result.Products)
	return result, err
}
