// Package jobs provides the scheduled status reconciliation of the shipping
// service.
//
// Each polling-capable provider gets a ReconciliationJob built on
// github.com/robfig/cron/v3. The cron expression has a seconds field; the default
// "0 * * * * *" runs once a minute.
//
//	jobManager := jobs.NewJobManager(gateway, reconcileHandler, cfg.ReconcileSchedule, m, logger,
//		jobs.WithLocker(redisLocker, time.Minute))
//
//	if err := jobManager.StartAll(); err != nil {
//		return err
//	}
//	defer jobManager.StopAll()
//
// # Overlap
//
// Within a process, cron.SkipIfStillRunning drops a tick whose predecessor
// is still running. Across replicas, the optional Locker does the same.
//
// # Error Handling
//
// A failing delivery is logged and counted, and the pass continues. A pass
// that cannot start (listing failed, provider unknown) is logged as a whole;
// the next tick tries again.
package jobs
