// Package pruner runs rate window maintenance on a cron schedule.
//
// The rate limiter never expires windows by itself. Long-running processes
// (the CLI in watch mode) start a Scheduler so stale windows are dropped:
//
//	sched := pruner.NewScheduler(limiter, "*/10 * * * *")
//	if err := sched.Start(ctx); err != nil {
//	    return err
//	}
//	defer sched.Stop()
package pruner
