package ports

import "context"

// SecretResolver resolves a secret code to its materialized value. The
// env provider resolves by reading the named environment variable.
type SecretResolver interface {
	Resolve(ctx context.Context, code string) (string, error)
}

// ConnectionResolver resolves a connection code to its settings, with
// ${NAME} substrings already replaced from the environment (recursively
// on nested objects).
type ConnectionResolver interface {
	Resolve(ctx context.Context, code string) (map[string]any, error)
}

// RequestContext is the narrow abstraction authentication and user/
// channel resolution are hidden behind (§1 Non-goals): a bearer token
// plus the resolved channel/language, opaque otherwise.
type RequestContext struct {
	Token           string
	Channel         string
	ContentLanguage string
	UserID          string
}
