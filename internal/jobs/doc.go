// Package jobs provides background job processing for the Tontine API.
//
// Jobs run on fixed intervals in their own goroutines and stop
// gracefully on shutdown. Each processor exposes Start, Stop, RunOnce
// and IsRunning.
//
// # Available Jobs
//
//   - ContributionCycleProcessor: materializes pending contributions
//     for schedule cycles starting inside a lookahead window
//   - GroupCompletionProcessor: transitions active groups past their
//     end date to COMPLETED
//
// # Usage
//
//	cycle := jobs.NewContributionCycleProcessor(generator, time.Hour, 7*24*time.Hour)
//	cycle.Start()
//	defer cycle.Stop()
//
// Both sweeps are idempotent, so overlapping runs across replicas are
// safe.
package jobs
