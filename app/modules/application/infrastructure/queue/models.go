package applicationqueue

// EnrichmentSweepJob claims pending applications and runs them through the
// posting parser. It carries no payload; the pending rows are the queue.
type EnrichmentSweepJob struct{}

// Kind returns the job type identifier for River
func (EnrichmentSweepJob) Kind() string { return "enrichment_sweep" }
