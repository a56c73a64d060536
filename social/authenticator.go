package social

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/mirutina/auth"
)

// SocialAuthenticator orchestrates social login flows. Accounts are
// keyed by the provider subject id; a verified matching email links
// the social identity onto an existing password account instead of
// creating a duplicate.
type SocialAuthenticator struct {
	providers    map[string]SocialProvider
	stateManager StateManager
	users        auth.Users
	tokenService auth.TokenService
	logger       auth.Logger
	config       SocialAuthConfig
}

// SocialAuthConfig configures the social authenticator.
type SocialAuthConfig struct {
	DefaultRedirectURL   string
	StateSecret          string
	StateTTL             time.Duration
	RequireEmailVerified bool
}

// SocialAuthOption configures the social authenticator.
type SocialAuthOption func(*SocialAuthenticator)

// NewSocialAuthenticator creates a new social authenticator.
func NewSocialAuthenticator(
	users auth.Users,
	tokenService auth.TokenService,
	config SocialAuthConfig,
	opts ...SocialAuthOption,
) *SocialAuthenticator {
	cfg := config
	if cfg.StateTTL == 0 {
		cfg.StateTTL = 10 * time.Minute
	}

	sa := &SocialAuthenticator{
		providers:    make(map[string]SocialProvider),
		users:        users,
		tokenService: tokenService,
		config:       cfg,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sa)
		}
	}

	if sa.stateManager == nil {
		encKey, hmacKey := DeriveStateKeys(cfg.StateSecret)
		sa.stateManager = NewEncryptedStateManager(encKey, hmacKey, cfg.StateTTL)
	}

	return sa
}

// WithProvider registers a social provider.
func WithProvider(provider SocialProvider) SocialAuthOption {
	return func(sa *SocialAuthenticator) {
		if provider == nil {
			return
		}
		sa.providers[provider.Name()] = provider
	}
}

// WithStateManager sets a custom state manager.
func WithStateManager(sm StateManager) SocialAuthOption {
	return func(sa *SocialAuthenticator) {
		sa.stateManager = sm
	}
}

// WithLogger sets the logger.
func WithLogger(l auth.Logger) SocialAuthOption {
	return func(sa *SocialAuthenticator) {
		sa.logger = l
	}
}

// HasProviders reports whether any provider is registered at all.
func (sa *SocialAuthenticator) HasProviders() bool {
	return len(sa.providers) > 0
}

// HasProvider reports whether a named provider is registered.
func (sa *SocialAuthenticator) HasProvider(name string) bool {
	_, ok := sa.providers[name]
	return ok
}

// BeginAuth starts the OAuth flow for a provider.
func (sa *SocialAuthenticator) BeginAuth(
	ctx context.Context,
	providerName string,
	opts ...BeginAuthOption,
) (*AuthRedirect, error) {
	provider, ok := sa.providers[providerName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, providerName)
	}

	if sa.stateManager == nil {
		return nil, ErrInvalidState
	}

	cfg := &beginAuthConfig{
		redirectURL: sa.config.DefaultRedirectURL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	codeVerifier, err := generateCodeVerifier()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}
	codeChallenge := computeCodeChallenge(codeVerifier)

	state := &OAuthState{
		Nonce:        generateNonce(),
		Provider:     providerName,
		CodeVerifier: codeVerifier,
		RedirectURL:  cfg.redirectURL,
		IssuedAt:     time.Now().Unix(),
		ExpiresAt:    time.Now().Add(sa.config.StateTTL).Unix(),
	}

	stateToken, err := sa.stateManager.Encode(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}

	authURL := provider.AuthCodeURL(stateToken, WithPKCE(codeChallenge, "S256"))

	return &AuthRedirect{
		URL:      authURL,
		State:    stateToken,
		Provider: providerName,
	}, nil
}

// CompleteAuth finishes the OAuth flow after callback.
func (sa *SocialAuthenticator) CompleteAuth(
	ctx context.Context,
	providerName string,
	code string,
	stateToken string,
) (*AuthResult, error) {
	if sa.stateManager == nil {
		return nil, ErrInvalidState
	}

	state, err := sa.stateManager.Decode(stateToken)
	if err != nil {
		if errors.Is(err, ErrStateExpired) {
			return nil, ErrStateExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	if state.Provider != providerName {
		return nil, fmt.Errorf("%w: provider mismatch", ErrInvalidState)
	}

	provider, ok := sa.providers[providerName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, providerName)
	}

	token, err := provider.Exchange(ctx, code, WithCodeVerifier(state.CodeVerifier))
	if err != nil {
		return nil, wrapProviderError(ErrTokenExchangeFailed, providerName, "exchange", err)
	}

	profile, err := provider.UserInfo(ctx, token)
	if err != nil {
		return nil, wrapProviderError(ErrUserInfoFailed, providerName, "user_info", err)
	}

	if profile == nil || profile.ProviderUserID == "" || profile.Email == "" {
		return nil, ErrProfileIncomplete
	}

	if sa.config.RequireEmailVerified && !profile.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	user, isNew, err := sa.resolveUser(ctx, profile, token)
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, auth.ErrUserInactive
	}

	if err := sa.users.TrackSuccessfulLogin(ctx, user); err != nil {
		if sa.logger != nil {
			sa.logger.Error("failed to track successful login: %v", err)
		}
	}

	identity := auth.NewIdentityFromUser(user)

	jwtToken, err := sa.tokenService.Generate(identity)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &AuthResult{
		User:        identity,
		Token:       jwtToken,
		IsNewUser:   isNew,
		Provider:    providerName,
		Profile:     profile,
		RedirectURL: state.RedirectURL,
	}, nil
}

// resolveUser finds the local account for a provider profile. Lookup
// order: provider subject id, then email link onto an existing
// account, then provision a fresh one.
func (sa *SocialAuthenticator) resolveUser(ctx context.Context, profile *SocialProfile, token *Token) (*auth.User, bool, error) {
	user, err := sa.users.GetByGoogleID(ctx, profile.ProviderUserID)
	if err == nil {
		return user, false, sa.refreshSocialFields(ctx, user, profile, token)
	}
	if !repository.IsRecordNotFound(err) {
		return nil, false, err
	}

	user, err = sa.users.GetByEmail(ctx, profile.Email)
	if err == nil {
		// existing password account, link the social identity to it
		user.GoogleID = profile.ProviderUserID
		return user, false, sa.refreshSocialFields(ctx, user, profile, token)
	}
	if !repository.IsRecordNotFound(err) {
		return nil, false, err
	}

	record := &auth.User{
		Email:        profile.Email,
		Name:         profile.Name,
		Picture:      profile.AvatarURL,
		GoogleID:     profile.ProviderUserID,
		Provider:     auth.ProviderGoogle,
		Role:         auth.RoleUser,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}

	created, err := sa.users.Register(ctx, record)
	if err != nil {
		return nil, false, err
	}

	return created, true, nil
}

func (sa *SocialAuthenticator) refreshSocialFields(ctx context.Context, user *auth.User, profile *SocialProfile, token *Token) error {
	if profile.Name != "" {
		user.Name = profile.Name
	}
	if profile.AvatarURL != "" {
		user.Picture = profile.AvatarURL
	}
	user.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		user.RefreshToken = token.RefreshToken
	}

	_, err := sa.users.Update(ctx, user, repository.UpdateByID(user.ID.String()))
	if err != nil {
		return fmt.Errorf("failed to update social profile: %w", err)
	}

	return nil
}

// ListProviders returns all registered providers.
func (sa *SocialAuthenticator) ListProviders() []ProviderInfo {
	var providers []ProviderInfo
	for name, p := range sa.providers {
		providers = append(providers, ProviderInfo{
			Name:    name,
			AuthURL: p.AuthCodeURL(""),
		})
	}
	return providers
}

// ProviderInfo describes an available provider.
type ProviderInfo struct {
	Name    string `json:"name"`
	AuthURL string `json:"auth_url"`
}

// AuthRedirect contains the authorization URL for redirecting users.
type AuthRedirect struct {
	URL      string
	State    string
	Provider string
}

// AuthResult contains the result of a successful authentication.
type AuthResult struct {
	User        auth.Identity
	Token       string
	IsNewUser   bool
	Provider    string
	Profile     *SocialProfile
	RedirectURL string
}

// BeginAuthOption configures the auth initiation.
type BeginAuthOption func(*beginAuthConfig)

type beginAuthConfig struct {
	redirectURL string
}

// WithRedirectURL sets the post-auth redirect URL.
func WithRedirectURL(url string) BeginAuthOption {
	return func(c *beginAuthConfig) {
		c.redirectURL = url
	}
}
