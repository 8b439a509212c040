package appversion

// CodeDomain is an opaque handle to the isolation context that loaded a unit
// of code. Only identity comparison is meaningful; the descriptor never
// inspects a domain's contents. Parent exists solely for the safe-runtime
// check against the platform base domain's direct parent.
type CodeDomain interface {
	Parent() CodeDomain
}

// SystemDomainsFunc returns the platform's base code domain. Consulting it
// may require an elevated execution context, so all privileged access is
// funneled through this single hook instead of being scattered across the
// comparison logic.
type SystemDomainsFunc func() CodeDomain

// TrustCategory is the trust classification of a unit of executing code,
// consumed by debugging and sandboxing hooks.
type TrustCategory int

const (
	// TrustApplication marks code loaded by the application's own domain.
	TrustApplication TrustCategory = iota
	// TrustRuntime marks code loaded by the hosting runtime's domain.
	TrustRuntime
	// TrustSafeRuntime marks code loaded by the platform base domain or its
	// direct parent.
	TrustSafeRuntime
	// TrustUnknown marks code from any other domain.
	TrustUnknown
)

func (c TrustCategory) String() string {
	switch c {
	case TrustApplication:
		return "application"
	case TrustRuntime:
		return "runtime"
	case TrustSafeRuntime:
		return "safe_runtime"
	default:
		return "unknown"
	}
}

// trustClassifier answers trust queries for one version. Classification is a
// pure identity comparison; the application check runs first so a version
// that reuses the runtime's domain still classifies as application code.
type trustClassifier struct {
	app     CodeDomain
	runtime CodeDomain
	system  SystemDomainsFunc
}

// Classify maps a code domain to exactly one trust category.
func (t trustClassifier) Classify(d CodeDomain) TrustCategory {
	if d == t.app {
		return TrustApplication
	}
	if d == t.runtime {
		return TrustRuntime
	}
	if base := t.system(); base != nil {
		if d == base || d == base.Parent() {
			return TrustSafeRuntime
		}
	}
	return TrustUnknown
}
