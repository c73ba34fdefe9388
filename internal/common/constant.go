package common

// Header names attached to outbound GraphQL requests.
const (
	AuthorizationHeaderName = "Authorization"
	APIKeyHeaderName        = "x-api-key"
)

// Secure store keys shared by the identity layer and the session.
const (
	AccessTokenKey = "AccessToken"
	StateHandleKey = "StateHandle"
	EmailKey       = "email"

	// BiometricPasswordKeyPrefix namespaces stored biometric passwords,
	// which are keyed by email.
	BiometricPasswordKeyPrefix = "biometric:"
)
