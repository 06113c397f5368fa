package login

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Identity is a verified identity returned by an IdentityProvider.
type Identity struct {
	Email       string
	DisplayName string

	// AccessToken is kept on the employee record for document metadata calls.
	AccessToken string
}

// IdentityProvider is a delegated login capability. The protocol details stay behind it.
type IdentityProvider interface {
	// AuthCodeURL returns the URL the caller is redirected to in order to log in.
	AuthCodeURL(state string) string

	// Verify exchanges the authorization code returned to the callback for a verified identity.
	Verify(ctx context.Context, code string) (*Identity, error)
}

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// GoogleProvider implements IdentityProvider with Google OAuth 2.0.
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

var _ IdentityProvider = (*GoogleProvider)(nil)

func NewGoogleProvider(clientID, clientSecret, callbackURL string) (*GoogleProvider, error) {
	if clientID == "" || clientSecret == "" || callbackURL == "" {
		return nil, fmt.Errorf("client ID, client secret, and callback URL are required")
	}

	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes: []string{
				"profile",
				"email",
				"https://www.googleapis.com/auth/spreadsheets.readonly",
				"https://www.googleapis.com/auth/drive.metadata.readonly",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}, nil
}

func (g *GoogleProvider) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type googleUserInfo struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

func (g *GoogleProvider) Verify(ctx context.Context, code string) (*Identity, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	// Add timeout to prevent hanging on a slow userinfo endpoint
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := g.config.Client(ctx, token)
	resp, err := client.Get(g.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo endpoint returned HTTP %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	if info.Email == "" || !info.EmailVerified {
		return nil, fmt.Errorf("provider did not return a verified email")
	}

	return &Identity{
		Email:       info.Email,
		DisplayName: info.Name,
		AccessToken: token.AccessToken,
	}, nil
}
