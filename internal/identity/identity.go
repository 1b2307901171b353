package identity

// Kind distinguishes the two caller principals.
type Kind string

// Identity kinds.
const (
	// KindAccount marks an authenticated account identity.
	KindAccount Kind = "account"
	// KindAnonymous marks a cookie-based anonymous identity.
	KindAnonymous Kind = "anonymous"
)

// Identity is the resolved caller principal used as the quota key. Exactly
// one identity is attached to every inbound request.
type Identity struct {
	Kind   Kind   // Account or anonymous.
	Key    string // Stable quota key ("user:<id>" or the anonymous token ID).
	UserID uint64 // Account ID, zero for anonymous callers.
}

// IsAccount reports whether the identity belongs to a registered account.
func (id Identity) IsAccount() bool {
	return id.Kind == KindAccount
}
