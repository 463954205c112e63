package httpclient

import "net/http"

// AuthType identifies the authentication method.
type AuthType int

const (
	// AuthNone disables authentication.
	AuthNone AuthType = iota
	// AuthBearer sends "Authorization: Bearer <token>".
	AuthBearer
	// AuthHeader sends the key in a named header, optionally with a scheme
	// prefix ("Token <key>").
	AuthHeader
	// AuthQuery sends the key as a query parameter.
	AuthQuery
)

// AuthConfig configures request authentication. Credentials are supplied by
// the caller; this package never looks them up.
type AuthConfig struct {
	Type AuthType
	// Key is the token or API key.
	Key string
	// Name is the header or query parameter name.
	Name string
	// Scheme prefixes the header value, separated by a space.
	Scheme string
}

// BearerAuth creates a bearer token auth config.
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Type: AuthBearer, Key: token}
}

// HeaderAuth sends key in header name, prefixed by scheme when non-empty.
func HeaderAuth(name, scheme, key string) *AuthConfig {
	return &AuthConfig{Type: AuthHeader, Key: key, Name: name, Scheme: scheme}
}

// QueryAuth sends key as query parameter name.
func QueryAuth(name, key string) *AuthConfig {
	return &AuthConfig{Type: AuthQuery, Key: key, Name: name}
}

func (a *AuthConfig) apply(req *http.Request) {
	if a == nil || a.Key == "" {
		return
	}
	switch a.Type {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+a.Key)
	case AuthHeader:
		value := a.Key
		if a.Scheme != "" {
			value = a.Scheme + " " + a.Key
		}
		req.Header.Set(a.Name, value)
	case AuthQuery:
		q := req.URL.Query()
		q.Set(a.Name, a.Key)
		req.URL.RawQuery = q.Encode()
	}
}
