// Package client talks to the profile backend.
//
// # Overview
//
// The package provides:
//  1. The Client contract used by the auth flows: RegisterUser and
//     LoginStep1 (GraphQL mutations), LoginStep2 and RequestPasswordReset
//     (routed to the identity provider).
//  2. GraphQLClient, the implementation over github.com/machinebox/graphql.
//  3. An http.RoundTripper that authorizes every outgoing request: it adds
//     the API key and the stored access token, renewing the token first when
//     the provider no longer accepts it.
//
// # Error Handling
//
// Transport and payload failures never leave the package raw. RegisterUser
// reports common.ErrMutationFailed and LoginStep1 reports
// common.ErrAuthenticationFailed; the cause is logged. Identity failures are
// *common.AuthError.
//
// Concurrency & Contexts
//
// GraphQLClient is safe for concurrent use. Every call honors ctx.
package client
