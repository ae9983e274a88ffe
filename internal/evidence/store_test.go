package evidence

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firtrace/pkg/platform/sentinel"
)

func TestPinataStoreUpload(t *testing.T) {
	t.Run("uploads and returns the pinned identifier", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/pinning/pinFileToIPFS", r.URL.Path)
			assert.Equal(t, "key", r.Header.Get("pinata_api_key"))
			assert.Equal(t, "secret", r.Header.Get("pinata_secret_api_key"))

			file, header, err := r.FormFile("file")
			require.NoError(t, err)
			defer file.Close()
			assert.Equal(t, "screenshot.png", header.Filename)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"IpfsHash":"QmTestHash"}`))
		}))
		defer srv.Close()

		store := NewPinataStore(srv.URL, "key", "secret")
		cid, err := store.Upload(context.Background(), "screenshot.png", strings.NewReader("fake image bytes"))
		require.NoError(t, err)
		assert.Equal(t, "QmTestHash", cid)
	})

	t.Run("server error yields no identifier", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		store := NewPinataStore(srv.URL, "key", "secret")
		cid, err := store.Upload(context.Background(), "a.png", strings.NewReader("x"))
		require.ErrorIs(t, err, sentinel.ErrUnavailable)
		assert.Empty(t, cid, "a failed upload must never hand back an identifier")
	})

	t.Run("empty hash in response is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"IpfsHash":""}`))
		}))
		defer srv.Close()

		store := NewPinataStore(srv.URL, "key", "secret")
		_, err := store.Upload(context.Background(), "a.png", strings.NewReader("x"))
		assert.Error(t, err)
	})
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("identifiers are content-derived", func(t *testing.T) {
		store := NewMemoryStore()
		a, err := store.Upload(ctx, "a.txt", strings.NewReader("same bytes"))
		require.NoError(t, err)
		b, err := store.Upload(ctx, "b.txt", strings.NewReader("same bytes"))
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("injected failure returns no identifier", func(t *testing.T) {
		store := NewMemoryStore()
		store.FailUploads(true)
		cid, err := store.Upload(ctx, "a.txt", strings.NewReader("x"))
		require.Error(t, err)
		assert.Empty(t, cid)
	})
}

func TestDigestFor(t *testing.T) {
	d := DigestFor("QmTestHash")
	assert.NotEqual(t, d, DigestFor("QmOtherHash"))
	assert.Equal(t, d, DigestFor("QmTestHash"), "digest must be deterministic per identifier")
}
