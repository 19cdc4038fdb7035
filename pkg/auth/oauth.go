package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/jward/taskmedal/pkg/model"
)

const (
	// ClientSecretsFile is the downloaded Google API credentials.json file,
	// containing client_id, client_secret, and redirect_uris. It lives in
	// the app's config directory.
	ClientSecretsFile = "credentials.json"

	// TokenFile is where the obtained OAuth token (access + refresh) is
	// cached between runs.
	TokenFile = "token.json"

	// LocalhostAuthPort is the port the local web server listens on to
	// capture the OAuth redirect.
	LocalhostAuthPort = "6789"

	xdgAppName = "taskmedal"
)

// GoogleBridge implements Bridge against Google's OAuth endpoints. The
// authorization step runs a localhost-redirect code flow in the user's
// browser; the exchange step resolves the userinfo profile.
type GoogleBridge struct {
	configDir string
}

// NewGoogleBridge builds a bridge rooted at the given config directory
// (empty means ~/.config/taskmedal).
func NewGoogleBridge(configDir string) (*GoogleBridge, error) {
	if configDir == "" {
		var err error
		configDir, err = GetXdgHome()
		if err != nil {
			return nil, err
		}
	}
	return &GoogleBridge{configDir: configDir}, nil
}

// BeginAuthorization obtains an external credential. A cached token short-
// circuits the browser flow; otherwise the localhost redirect flow runs and
// the captured authorization code becomes the credential.
func (g *GoogleBridge) BeginAuthorization(ctx context.Context) (Credential, error) {
	tokenFile := filepath.Join(g.configDir, TokenFile)
	if _, err := tokenFromFile(tokenFile); err == nil {
		return Credential{cached: true}, nil
	}

	config, err := g.oauthConfig()
	if err != nil {
		return Credential{}, err
	}
	code, err := codeFromWeb(ctx, config)
	if err != nil {
		return Credential{}, err
	}
	return Credential{AuthCode: code}, nil
}

// ExchangeCredential turns the credential into a resolved profile. For a
// fresh authorization code the token is exchanged and cached first; a cached
// credential reuses the token on disk (refreshing transparently).
func (g *GoogleBridge) ExchangeCredential(ctx context.Context, cred Credential) (model.UserProfile, error) {
	config, err := g.oauthConfig()
	if err != nil {
		return model.UserProfile{}, err
	}

	tokenFile := filepath.Join(g.configDir, TokenFile)
	var tok *oauth2.Token
	if cred.cached {
		tok, err = tokenFromFile(tokenFile)
		if err != nil {
			return model.UserProfile{}, fmt.Errorf("cached token unavailable: %w", err)
		}
	} else {
		exchangeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		tok, err = config.Exchange(exchangeCtx, cred.AuthCode)
		if err != nil {
			return model.UserProfile{}, fmt.Errorf("unable to retrieve token from Google: %w", err)
		}
		saveToken(tokenFile, tok)
	}

	client := config.Client(ctx, tok)
	srv, err := goauth2.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("unable to build userinfo service: %w", err)
	}
	info, err := srv.Userinfo.Get().Do()
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("unable to fetch userinfo: %w", err)
	}

	// Missing provider fields become empty strings; Google's userinfo has
	// no phone number at these scopes.
	return model.UserProfile{
		Name:   info.Name,
		Avatar: info.Picture,
		Email:  info.Email,
		Phone:  "",
	}, nil
}

// ClearToken removes the cached token so the next login runs the full flow.
func (g *GoogleBridge) ClearToken() error {
	tokenFile := filepath.Join(g.configDir, TokenFile)
	if err := os.Remove(tokenFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete token file %s: %w", tokenFile, err)
	}
	return nil
}

// oauthConfig creates an oauth2.Config from the client secrets file with the
// userinfo scopes, forcing the redirect onto our localhost port.
func (g *GoogleBridge) oauthConfig() (*oauth2.Config, error) {
	clientSecretsFile := filepath.Join(g.configDir, ClientSecretsFile)
	b, err := os.ReadFile(clientSecretsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file %s: %w", clientSecretsFile, err)
	}

	config, err := google.ConfigFromJSON(b,
		goauth2.UserinfoProfileScope,
		goauth2.UserinfoEmailScope,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}

	parsedURL, parseErr := url.Parse(config.RedirectURL)
	if parseErr != nil {
		log.Printf("Warning: Could not parse RedirectURL '%s': %v. Using it as is.", config.RedirectURL, parseErr)
	} else if parsedURL.Host == "localhost" || parsedURL.Hostname() == "127.0.0.1" {
		// It's crucial that the redirect URI registered with Google matches
		// the one net.Listen binds, so always force our port.
		if parsedURL.Port() != LocalhostAuthPort {
			parsedURL.Host = fmt.Sprintf("%s:%s", parsedURL.Hostname(), LocalhostAuthPort)
			config.RedirectURL = parsedURL.String()
		}
	} else if config.RedirectURL == "urn:ietf:wg:oauth:2.0:oob" {
		config.RedirectURL = fmt.Sprintf("http://localhost:%s/oauth2callback", LocalhostAuthPort)
		log.Printf("Overriding 'urn:ietf:wg:oauth:2.0:oob' RedirectURL to: %s", config.RedirectURL)
	} else {
		log.Printf("Warning: Configured RedirectURL in credentials.json is not a localhost callback or OOB: %s. Ensure this is correct for your setup.", config.RedirectURL)
	}

	return config, nil
}

// codeFromWeb runs the authorization-code flow via a local web server. It
// opens the consent URL for the user and captures the redirect.
func codeFromWeb(ctx context.Context, config *oauth2.Config) (string, error) {
	codeCh := make(chan string)
	errCh := make(chan error)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", LocalhostAuthPort))
	if err != nil {
		return "", fmt.Errorf("failed to start listener on port %s: %w", LocalhostAuthPort, err)
	}
	defer listener.Close()

	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := r.URL.Query().Get("code")
			if code == "" {
				http.Error(w, "Authorization code not found", http.StatusBadRequest)
				errCh <- fmt.Errorf("authorization code not found in redirect URL")
				return
			}
			fmt.Fprintf(w, "Authentication successful! You can close this window.")
			codeCh <- code
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		log.Printf("Local server listening on %s for OAuth2 redirect...", config.RedirectURL)
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// AccessTypeOffline is crucial to ensure a refresh token is returned.
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Printf("Please open the following URL in your browser to authorize taskmedal:\n%s\n", authURL)
	log.Println("Waiting for authorization code...")

	select {
	case authCode := <-codeCh:
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
		return authCode, nil
	case err := <-errCh:
		return "", err
	case <-ctx.Done():
		server.Shutdown(context.Background())
		return "", fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
	case <-time.After(5 * time.Minute): // Timeout for the user to authorize
		server.Shutdown(context.Background())
		return "", fmt.Errorf("%w: authorization timed out, please try again", ErrCancelled)
	}
}

// tokenFromFile reads an oauth2.Token from a JSON file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token from file %s: %w", file, err)
	}
	return tok, nil
}

// saveToken caches an oauth2.Token to a JSON file.
func saveToken(path string, token *oauth2.Token) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		log.Printf("Warning: Could not create token directory %s: %v", filepath.Dir(path), err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		log.Printf("Warning: Unable to cache OAuth token to %s: %v", path, err)
		return
	}
	defer f.Close()
	json.NewEncoder(f).Encode(token)
}

// GetXdgHome returns the app's config directory (~/.config/taskmedal).
func GetXdgHome() (string, error) {
	xdgHome, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(xdgHome, ".config", xdgAppName), nil
}
