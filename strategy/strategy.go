// Package strategy expresses one fetch-and-sum operation under three
// scheduling models.
//
// A Combinator decides how fetches are scheduled; it never changes what a
// fetch does. All combinators return lengths in list order, so the same
// URL list yields the same sum whichever combinator produced it.
package strategy

import (
	"context"

	"golang.org/x/sync/errgroup"

	"gitlab.com/slon/wgetter/fetch"
	"gitlab.com/slon/wgetter/join"
	"gitlab.com/slon/wgetter/workpool"
)

// Combinator fetches every url and returns the lengths in list order.
// On failure no lengths are returned.
type Combinator func(ctx context.Context, urls []string, f fetch.Fetcher) ([]int, error)

// Strategy is a named combinator.
type Strategy struct {
	Name    string
	Combine Combinator
}

// Run fetches every url and returns the total length.
func (s Strategy) Run(ctx context.Context, urls []string, f fetch.Fetcher) (int, error) {
	lengths, err := s.Combine(ctx, urls, f)
	if err != nil {
		return 0, err
	}
	return Sum(lengths), nil
}

// Standard returns the strategies in reporting order.
func Standard(pool workpool.Pool) []Strategy {
	return []Strategy{
		{Name: "Synchronous", Combine: Sequential},
		{Name: "Worker pool", Combine: Pooled(pool)},
		{Name: "Cooperative", Combine: Cooperative},
	}
}

// Sequential fetches on the calling goroutine, strictly in list order,
// and stops at the first failure.
func Sequential(ctx context.Context, urls []string, f fetch.Fetcher) ([]int, error) {
	lengths := make([]int, len(urls))
	for i, url := range urls {
		n, err := f.Fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		lengths[i] = n
	}
	return lengths, nil
}

// Pooled submits one blocking fetch per url to pool and waits until every
// submitted fetch has finished. Each fetch holds a worker for its whole
// duration.
func Pooled(pool workpool.Pool) Combinator {
	return func(ctx context.Context, urls []string, f fetch.Fetcher) ([]int, error) {
		lengths := make([]int, len(urls))
		g := join.New()

		for i, url := range urls {
			g.Add(1)
			err := pool.Go(func() {
				n, err := f.Fetch(ctx, url)
				lengths[i] = n
				g.Done(err)
			})
			if err != nil {
				g.Done(err)
			}
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}
		return lengths, nil
	}
}

// Cooperative starts a goroutine per url without waiting for any of them,
// then waits for all. While a fetch waits for the network its goroutine is
// parked by the runtime poller and holds no OS thread. Nothing is cancelled
// on failure: every fetch runs to its end.
func Cooperative(ctx context.Context, urls []string, f fetch.Fetcher) ([]int, error) {
	lengths := make([]int, len(urls))

	var g errgroup.Group
	for i, url := range urls {
		g.Go(func() error {
			n, err := f.Fetch(ctx, url)
			lengths[i] = n
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lengths, nil
}
