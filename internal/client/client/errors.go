package client

import "errors"

var (
	errEmptyPayload     = errors.New("response carries no payload")
	errNoEndpoint       = errors.New("graphql endpoint is not configured")
	errUnexpectedResult = errors.New("identity provider returned a non-auth error")
)
