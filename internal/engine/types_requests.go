package engine

// DeployRequest configures one run of the deploy pipeline.
type DeployRequest struct {
	// DryRun computes and returns the stage plan without executing it.
	DryRun bool

	// StrictHealth turns an unhealthy post-launch probe into an error
	// instead of a degraded-but-successful deploy.
	StrictHealth bool
}

// StatusRequest configures a status query.
type StatusRequest struct {
	// Probe runs a live health probe (without the post-launch delay).
	Probe bool

	// HistoryLimit is how many recent releases to include, 0 for none.
	HistoryLimit int
}
