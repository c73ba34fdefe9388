package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/authflow/internal/client/identity"
	"github.com/dmitrijs2005/authflow/internal/client/models"
	"github.com/dmitrijs2005/authflow/internal/common"
	"github.com/dmitrijs2005/authflow/internal/logging"
	"github.com/machinebox/graphql"
)

const signUpUserMutation = `mutation SignUpUser($createProfileInput: CreateProfileInput!) {
  createProfile(createProfileInput: $createProfileInput) {
    id
    patientId
    firstName
    lastName
  }
}`

const logInUserMutation = `mutation LogInUser($loginInput: LoginInput!) {
  loginProfile(loginInput: $loginInput) {
    sessionToken
    status
    profile {
      id
      patientId
      firstName
      lastName
    }
  }
}`

const loginTypeEmail = "EMAIL"

type createProfileInput struct {
	DateOfBirth  string   `json:"dateOfBirth"`
	Email        string   `json:"email"`
	FirstName    string   `json:"firstName"`
	GroupIDs     []string `json:"groupIds"`
	LastName     string   `json:"lastName"`
	Password     string   `json:"password"`
	PrimaryPhone string   `json:"primaryPhone"`
	ZipCode      string   `json:"zipCode,omitempty"`
}

type loginInput struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	LoginType string `json:"loginType"`
}

type createProfileData struct {
	CreateProfile json.RawMessage `json:"createProfile"`
}

type loginProfileData struct {
	LoginProfile json.RawMessage `json:"loginProfile"`
}

// Options configures GraphQLClient.
type Options struct {
	Endpoint string
	APIKey   string
	// Timeout bounds every HTTP request; zero means no limit.
	Timeout time.Duration
	// Transport is the base round tripper; nil means http.DefaultTransport.
	Transport http.RoundTripper
}

// GraphQLClient implements Client over a GraphQL endpoint. Identity calls go
// to the Provider, which also authorizes every GraphQL request.
type GraphQLClient struct {
	gql      *graphql.Client
	provider identity.Provider
	log      logging.Logger
}

func NewGraphQLClient(opts Options, provider identity.Provider, log logging.Logger) *GraphQLClient {
	log = log.With("component", "graphql")

	httpClient := &http.Client{
		Timeout:   opts.Timeout,
		Transport: newAuthTransport(opts.Transport, opts.APIKey, provider, log),
	}

	var gql *graphql.Client
	if opts.Endpoint != "" {
		gql = graphql.NewClient(opts.Endpoint, graphql.WithHTTPClient(httpClient))
	}

	return &GraphQLClient{gql: gql, provider: provider, log: log}
}

func (c *GraphQLClient) RegisterUser(ctx context.Context, input models.CreateAccountInput) (models.AuthProfile, error) {
	req := graphql.NewRequest(signUpUserMutation)
	req.Var("createProfileInput", createProfileInput{
		DateOfBirth:  input.DateOfBirth,
		Email:        input.Email,
		FirstName:    input.FirstName,
		GroupIDs:     input.GroupIDs,
		LastName:     input.LastName,
		Password:     input.Password,
		PrimaryPhone: input.UnformattedPhone(),
		ZipCode:      input.ZipCode,
	})

	var data createProfileData
	if err := c.run(ctx, req, &data); err != nil {
		c.log.Warn(ctx, "createProfile failed", "error", err)
		return models.AuthProfile{}, common.ErrMutationFailed
	}

	var profile models.AuthProfile
	if err := decodePayload(data.CreateProfile, &profile); err != nil {
		c.log.Warn(ctx, "createProfile payload rejected", "error", err)
		return models.AuthProfile{}, common.ErrMutationFailed
	}
	return profile, nil
}

func (c *GraphQLClient) LoginStep1(ctx context.Context, email, password string) (models.LoginStep1Response, error) {
	req := graphql.NewRequest(logInUserMutation)
	req.Var("loginInput", loginInput{Username: email, Password: password, LoginType: loginTypeEmail})

	var data loginProfileData
	if err := c.run(ctx, req, &data); err != nil {
		c.log.Warn(ctx, "loginProfile failed", "error", err)
		return models.LoginStep1Response{}, common.ErrAuthenticationFailed
	}

	var resp models.LoginStep1Response
	if err := decodePayload(data.LoginProfile, &resp); err != nil {
		c.log.Warn(ctx, "loginProfile payload rejected", "error", err)
		return models.LoginStep1Response{}, common.ErrAuthenticationFailed
	}
	return resp, nil
}

func (c *GraphQLClient) LoginStep2(ctx context.Context, step1 models.LoginStep1Response) (models.AuthProfile, error) {
	profile, err := c.provider.Authenticate(ctx, step1)
	if err != nil {
		return models.AuthProfile{}, asAuthError(err)
	}
	return profile, nil
}

func (c *GraphQLClient) RequestPasswordReset(ctx context.Context, email string) (models.AuthStatus, error) {
	status, err := c.provider.RecoverPassword(ctx, email)
	if err != nil {
		return "", asAuthError(err)
	}
	return status, nil
}

func (c *GraphQLClient) run(ctx context.Context, req *graphql.Request, resp any) error {
	if c.gql == nil {
		return errNoEndpoint
	}
	return c.gql.Run(ctx, req, resp)
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return errEmptyPayload
	}
	return json.Unmarshal(raw, v)
}

// asAuthError keeps provider errors in the AuthError shape.
func asAuthError(err error) error {
	var ae *common.AuthError
	if errors.As(err, &ae) {
		return err
	}
	return &common.AuthError{Err: common.ErrAuthenticationFailed, Summary: errUnexpectedResult.Error()}
}

var _ Client = (*GraphQLClient)(nil)
