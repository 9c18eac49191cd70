package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/wppanel/internal/domain/model"
	"github.com/ericfisherdev/wppanel/internal/domain/port/driven"
)

func newConfigService(store *fakeCredentialStore, client *fakeWordPressClient, seen *[]model.WordPressCredential) *ConfigService {
	clients := NewWordPressClientProvider(store, func(cred model.WordPressCredential) driven.WordPressClient {
		if seen != nil {
			*seen = append(*seen, cred)
		}
		return client
	})
	return NewConfigService(store, clients, discardLogger())
}

func TestConfigService_ConfigureStoresNormalizedCredential(t *testing.T) {
	store := &fakeCredentialStore{}
	client := newFakeWordPressClient().on("GET", "posts", `[]`)
	var seen []model.WordPressCredential
	svc := newConfigService(store, client, &seen)

	stored, err := svc.Configure(context.Background(), model.WordPressCredential{
		SiteURL:     "https://example.com/",
		Username:    "admin",
		AppPassword: "abcd efgh ijkl",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", stored.SiteURL)

	got, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", got.SiteURL)
	assert.Equal(t, "admin", got.Username)

	require.Len(t, seen, 1)
	assert.Equal(t, "https://example.com", seen[0].SiteURL, "handshake uses the normalized URL")
	assert.Equal(t, "1", client.lastCall().Query.Get("per_page"))
}

func TestConfigService_HandshakeFailureDoesNotPersist(t *testing.T) {
	store := &fakeCredentialStore{}
	client := newFakeWordPressClient().fail("GET", "posts", &driven.UpstreamError{StatusCode: 401, Body: `{"code":"invalid_username"}`})
	svc := newConfigService(store, client, nil)

	_, err := svc.Configure(context.Background(), model.WordPressCredential{
		SiteURL:     "https://example.com",
		Username:    "admin",
		AppPassword: "wrong-password",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectionFailed)

	var upstream *driven.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, 401, upstream.StatusCode)

	_, err = svc.Get(context.Background())
	assert.ErrorIs(t, err, driven.ErrNotConfigured)
	assert.Equal(t, 0, store.replaced)
}

func TestConfigService_InvalidURLSkipsHandshake(t *testing.T) {
	store := &fakeCredentialStore{}
	client := newFakeWordPressClient()
	svc := newConfigService(store, client, nil)

	_, err := svc.Configure(context.Background(), model.WordPressCredential{SiteURL: "ftp://example.com"})
	assert.ErrorIs(t, err, model.ErrInvalidSiteURL)
	assert.Empty(t, client.paths())
}

func TestConfigService_ReplaceKeepsPreviousUntilHandshakeSucceeds(t *testing.T) {
	store := &fakeCredentialStore{cred: &model.WordPressCredential{ID: "old", SiteURL: "https://old.example.com", Username: "old"}}
	client := newFakeWordPressClient().fail("GET", "posts", &driven.UpstreamError{StatusCode: 500})
	svc := newConfigService(store, client, nil)

	_, err := svc.Configure(context.Background(), model.WordPressCredential{SiteURL: "https://new.example.com", Username: "new"})
	require.ErrorIs(t, err, ErrConnectionFailed)

	got, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "old", got.Username)
}
