package applicationdomain

// EnrichmentStatus tracks the posting-parser pipeline for one application.
// Enrichment only writes enriched_* columns and never touches status or points.
type EnrichmentStatus string

const (
	EnrichmentPending    EnrichmentStatus = "pending"
	EnrichmentProcessing EnrichmentStatus = "processing"
	EnrichmentDone       EnrichmentStatus = "enriched"
	EnrichmentFailed     EnrichmentStatus = "failed"
	// EnrichmentSkipped marks applications logged without a posting URL.
	EnrichmentSkipped EnrichmentStatus = "skipped"
)

// MaxEnrichmentAttempts is how many parser failures an application tolerates
// before it is parked as failed.
const MaxEnrichmentAttempts = 3

// InitialEnrichmentStatus picks the starting status for a new application.
func InitialEnrichmentStatus(postingURL string) EnrichmentStatus {
	if postingURL == "" {
		return EnrichmentSkipped
	}
	return EnrichmentPending
}
