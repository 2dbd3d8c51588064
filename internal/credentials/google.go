// Package credentials builds the OAuth2-authenticated HTTP client used to
// call the Business Messages API.
package credentials

import (
	"context"
	"net/http"
	"os"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scope grants access to the Business Messages API.
const Scope = "https://www.googleapis.com/auth/businessmessages"

// NewHTTPClient loads credentials from credentialsFile, or from Application
// Default Credentials when it is empty, and fetches one token so that bad
// credentials surface immediately.
//
// ctx must outlive the client: token refreshes run under it.
func NewHTTPClient(ctx context.Context, credentialsFile string) (*http.Client, error) {
	creds, err := load(ctx, strings.TrimSpace(credentialsFile))
	if err != nil {
		return nil, err
	}
	if _, err := creds.TokenSource.Token(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "credentials: refresh token").
			WithTextCode("CREDENTIALS_INVALID")
	}
	return oauth2.NewClient(ctx, creds.TokenSource), nil
}

// Factory adapts NewHTTPClient to the client provider's factory signature.
func Factory(baseCtx context.Context, credentialsFile string) func(context.Context) (*http.Client, error) {
	return func(context.Context) (*http.Client, error) {
		return NewHTTPClient(baseCtx, credentialsFile)
	}
}

func load(ctx context.Context, path string) (*google.Credentials, error) {
	if path == "" {
		creds, err := google.FindDefaultCredentials(ctx, Scope)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "credentials: find application default credentials").
				WithTextCode("CREDENTIALS_MISSING")
		}
		return creds, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "credentials: read credentials file").
			WithTextCode("CREDENTIALS_MISSING").
			WithMetadata(map[string]any{"path": path})
	}
	creds, err := google.CredentialsFromJSON(ctx, data, Scope)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "credentials: parse credentials file").
			WithTextCode("CREDENTIALS_INVALID").
			WithMetadata(map[string]any{"path": path})
	}
	return creds, nil
}
