package taskname

const (
	// Performance tasks
	PerformanceSyncViews = "performance:sync_views"

	// Waitlist tasks
	WaitlistWelcomeEmail = "waitlist:welcome_email"
)
