package auth

const (
	// AuthorizationHeader carries "<type> <token>" for OAuth2 credentials.
	AuthorizationHeader = "Authorization"
	// APIKeyHeader carries an API key.
	APIKeyHeader = "X-Goog-Api-Key"
	// UserProjectHeader names the project billed for a call.
	UserProjectHeader = "X-Goog-User-Project"
	// RequestIDHeader carries the id of the request descriptor a call was built from.
	RequestIDHeader = "X-Request-Id"
)
