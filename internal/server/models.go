package server

// HTTPError is the generic error envelope returned by the server.
type HTTPError struct {
	Error string `json:"error"`
}

// AuthSignupRequest represents the signup payload.
type AuthSignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthLoginRequest represents the login payload.
type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// CheckRequest starts a fact-check. Exactly one of Transcript or URL
// supplies the source text; Instructions overrides the default analysis
// prompt when set. From/To narrow the check to a timestamp range of the
// transcript; callers checking a sub-range should bake the bounds into
// the key so whole-document and range results do not collide.
type CheckRequest struct {
	Key          string `json:"key"`
	Transcript   string `json:"transcript,omitempty"`
	URL          string `json:"url,omitempty"`
	From         string `json:"from,omitempty"`
	To           string `json:"to,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// APIKeyRequest carries the backend credential for the settings surface.
type APIKeyRequest struct {
	APIKey string `json:"api_key"`
}

// APIKeyResponse reports whether a credential is configured. The key
// itself is never echoed back.
type APIKeyResponse struct {
	Configured bool `json:"configured"`
}

// CacheClearResponse acknowledges a cache purge.
type CacheClearResponse struct {
	Cleared bool `json:"cleared"`
}
