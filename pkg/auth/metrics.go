package auth

// Metrics receives authentication events. pkg/metrics provides a Prometheus
// implementation; the default discards everything.
type Metrics interface {
	// LoginAttempt records a login by method ("password" or a provider name)
	// with outcome "success" or "failure".
	LoginAttempt(method, outcome string)
	TokenIssued(class string)
	// SessionRejected records why a presented token was refused.
	SessionRejected(reason string)
	// OAuthResolved records which tier resolved an OAuth login: "link", "merge" or "create".
	OAuthResolved(provider, tier string)
}

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"

	MethodPassword = "password"

	TierLink   = "link"
	TierMerge  = "merge"
	TierCreate = "create"
)

type noopMetrics struct{}

func (noopMetrics) LoginAttempt(string, string)  {}
func (noopMetrics) TokenIssued(string)           {}
func (noopMetrics) SessionRejected(string)       {}
func (noopMetrics) OAuthResolved(string, string) {}
