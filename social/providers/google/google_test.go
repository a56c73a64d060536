package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/mirutina/auth/social"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		CallbackURL:  "https://api.example.com/auth/google/callback",
	}
}

func TestAuthCodeURL(t *testing.T) {
	p := New(testConfig())

	raw := p.AuthCodeURL("state-token",
		social.WithPKCE("challenge-value", "S256"),
		social.WithPrompt("select_account"),
	)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "accounts.google.com", parsed.Host)
	assert.Equal(t, "/o/oauth2/v2/auth", parsed.Path)

	query := parsed.Query()
	assert.Equal(t, "client-id", query.Get("client_id"))
	assert.Equal(t, "https://api.example.com/auth/google/callback", query.Get("redirect_uri"))
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, "openid email profile", query.Get("scope"))
	assert.Equal(t, "state-token", query.Get("state"))
	assert.Equal(t, "offline", query.Get("access_type"))
	assert.Equal(t, "challenge-value", query.Get("code_challenge"))
	assert.Equal(t, "S256", query.Get("code_challenge_method"))
	assert.Equal(t, "select_account", query.Get("prompt"))
}

func TestAuthCodeURL_NoPKCE(t *testing.T) {
	p := New(testConfig())

	parsed, err := url.Parse(p.AuthCodeURL("state-token"))
	require.NoError(t, err)

	query := parsed.Query()
	assert.Equal(t, "", query.Get("code_challenge"))
	assert.Equal(t, "", query.Get("code_challenge_method"))
	assert.Equal(t, "", query.Get("prompt"))
}

func TestExchange(t *testing.T) {
	var gotForm url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"access_token": "ya29.token",
			"token_type": "Bearer",
			"expires_in": 3599,
			"refresh_token": "1//refresh",
			"scope": "openid email profile",
			"id_token": "eyJ.header.payload"
		}`))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.TokenURL = server.URL
	p := New(cfg)

	token, err := p.Exchange(context.Background(), "auth-code", social.WithCodeVerifier("verifier-value"))
	require.NoError(t, err)

	assert.Equal(t, "auth-code", gotForm.Get("code"))
	assert.Equal(t, "client-id", gotForm.Get("client_id"))
	assert.Equal(t, "client-secret", gotForm.Get("client_secret"))
	assert.Equal(t, "authorization_code", gotForm.Get("grant_type"))
	assert.Equal(t, "verifier-value", gotForm.Get("code_verifier"))

	assert.Equal(t, "ya29.token", token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, "1//refresh", token.RefreshToken)
	assert.Equal(t, []string{"openid", "email", "profile"}, token.Scopes)
	assert.Equal(t, "eyJ.header.payload", token.Raw["id_token"])
	assert.False(t, token.ExpiresAt.IsZero())
}

func TestExchange_OAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "invalid_grant", "error_description": "Bad authorization code."}`))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.TokenURL = server.URL
	p := New(cfg)

	_, err := p.Exchange(context.Background(), "stale-code")
	require.Error(t, err)

	var provErr *social.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "google", provErr.Provider)
	assert.Equal(t, "exchange", provErr.Operation)
	assert.Equal(t, http.StatusBadRequest, provErr.Status)
	assert.Equal(t, "invalid_grant", provErr.Code)
}

func TestUserInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer ya29.token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"sub": "110169484474386276334",
			"email": "tester@example.com",
			"email_verified": true,
			"name": "Test User",
			"given_name": "Test",
			"family_name": "User",
			"picture": "https://lh3.example.com/photo.jpg",
			"locale": "en"
		}`))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.UserInfoURL = server.URL
	p := New(cfg)

	profile, err := p.UserInfo(context.Background(), &social.Token{AccessToken: "ya29.token"})
	require.NoError(t, err)

	assert.Equal(t, "google", profile.Provider)
	assert.Equal(t, "110169484474386276334", profile.ProviderUserID)
	assert.Equal(t, "tester@example.com", profile.Email)
	assert.True(t, profile.EmailVerified)
	assert.Equal(t, "Test User", profile.Name)
	assert.Equal(t, "Test", profile.FirstName)
	assert.Equal(t, "User", profile.LastName)
	assert.Equal(t, "https://lh3.example.com/photo.jpg", profile.AvatarURL)
}

func TestUserInfo_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"code": 401, "message": "Invalid Credentials", "status": "UNAUTHENTICATED"}}`))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.UserInfoURL = server.URL
	p := New(cfg)

	_, err := p.UserInfo(context.Background(), &social.Token{AccessToken: "expired"})
	require.Error(t, err)

	var provErr *social.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "user_info", provErr.Operation)
	assert.Equal(t, http.StatusUnauthorized, provErr.Status)
	assert.Equal(t, "UNAUTHENTICATED", provErr.Code)
}

func TestRefreshToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "1//refresh", r.PostForm.Get("refresh_token"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token": "ya29.fresh", "token_type": "Bearer", "expires_in": 3599}`))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.TokenURL = server.URL
	p := New(cfg)

	token, err := p.RefreshToken(context.Background(), "1//refresh")
	require.NoError(t, err)

	assert.Equal(t, "ya29.fresh", token.AccessToken)
	// Google does not echo the refresh token back, the provider keeps it
	assert.Equal(t, "1//refresh", token.RefreshToken)
}
