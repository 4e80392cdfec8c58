package auth

import (
	"context"
	"encoding/base64"
	"net/http"
)

// ClientCredentials is the app-only flow. Tokens carry no user context and
// cannot be refreshed; Refresh requests a new one.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	HTTP         *http.Client
}

var _ Flow = (*ClientCredentials)(nil)

func NewClientCredentials(clientID, clientSecret string) *ClientCredentials {
	return &ClientCredentials{ClientID: clientID, ClientSecret: clientSecret}
}

// RequestToken exchanges the app credentials for an access token.
func (c *ClientCredentials) RequestToken(ctx context.Context) (*Token, error) {
	return requestToken(ctx, c.HTTP, c.TokenURL, c.basicAuth(), clientCredentialsForm{GrantType: "client_credentials"})
}

func (c *ClientCredentials) Refresh(ctx context.Context, _ *Token) (*Token, error) {
	return c.RequestToken(ctx)
}

func (c *ClientCredentials) basicAuth() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.ClientID+":"+c.ClientSecret))
}
