package savings

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// parallelRuns limits how many users are processed at the same time by
// scheduled runs.
const parallelRuns = 4

// Schedule processes the income of all users right away and then every
// interval until ctx is done. Failed runs are logged and retried on the
// next tick.
func (a *Allocator) Schedule(ctx context.Context, interval time.Duration, users []string) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		a.ProcessAll(ctx, users)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ProcessAll runs Process for all users and returns the results of the
// successful runs by user.
func (a *Allocator) ProcessAll(ctx context.Context, users []string) map[string]Result {
	results := make([]Result, len(users))
	ok := make([]bool, len(users))

	g := errgroup.Group{}
	g.SetLimit(parallelRuns)

	for i, user := range users {
		g.Go(func() error {
			result, err := a.Process(ctx, user)
			if err != nil {
				log.Error().Err(err).Str("user", user).Msg("Scheduled allocation run failed")
				return nil
			}

			log.Info().Str("user", user).Int("processed", result.Processed).Int("created", result.Created).Int("skipped", result.Skipped).Msg("Scheduled allocation run")
			results[i], ok[i] = result, true
			return nil
		})
	}
	_ = g.Wait()

	byUser := make(map[string]Result, len(users))
	for i, user := range users {
		if ok[i] {
			byUser[user] = results[i]
		}
	}

	return byUser
}
