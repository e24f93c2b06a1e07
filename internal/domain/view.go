package domain

// View is the top-level screen selected by the session resolver.
// Exactly one view is active at a time.
type View int

const (
	// ViewChecking is shown while auth state or the business lookup is pending.
	ViewChecking View = iota
	// ViewLogin is shown when no user session exists.
	ViewLogin
	// ViewOnboarding is shown when the user has no registered business.
	ViewOnboarding
	// ViewDashboard is the live inbox for a resolved business.
	ViewDashboard
)

func (v View) String() string {
	switch v {
	case ViewChecking:
		return "checking"
	case ViewLogin:
		return "login"
	case ViewOnboarding:
		return "onboarding"
	case ViewDashboard:
		return "dashboard"
	default:
		return "unknown"
	}
}
