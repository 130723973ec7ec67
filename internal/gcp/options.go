// Package gcp builds client options for the Google REST backends (speech
// recognition and text-to-speech). Both accept either an API key or a
// service-account JSON key.
package gcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// CloudPlatformScope is the OAuth scope shared by Cloud Speech and Cloud TTS.
const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// ErrNoCredentials is returned when neither an API key, a service-account key
// nor a preconfigured HTTP client is supplied.
var ErrNoCredentials = errors.New("gcp: API key or service account credentials required")

// Auth describes how to reach a Google REST backend.
type Auth struct {
	APIKey          string
	CredentialsJSON []byte
	Endpoint        string

	// HTTPClient, when set, is used as-is and must carry its own auth.
	HTTPClient *http.Client
}

// ClientOptions converts Auth into google.golang.org/api options.
// Precedence: HTTPClient, then service-account JSON, then API key.
func ClientOptions(ctx context.Context, a Auth) ([]option.ClientOption, error) {
	var opts []option.ClientOption

	switch {
	case a.HTTPClient != nil:
		opts = append(opts, option.WithHTTPClient(a.HTTPClient))
	case len(a.CredentialsJSON) > 0:
		conf, err := google.JWTConfigFromJSON(a.CredentialsJSON, CloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("gcp: parse service account key: %w", err)
		}
		opts = append(opts, option.WithTokenSource(conf.TokenSource(ctx)))
	case a.APIKey != "":
		opts = append(opts, option.WithAPIKey(a.APIKey))
	default:
		return nil, ErrNoCredentials
	}

	if a.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(a.Endpoint))
	}

	return opts, nil
}
