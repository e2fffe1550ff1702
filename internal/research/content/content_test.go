package content

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "business-research/internal/common/errors"
	httpclient "business-research/internal/common/http"
	"business-research/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingHTML = `<!DOCTYPE html><html><head><title>Ace Plumbing - Springfield</title>
<meta name="description" content="Family owned plumber since 1998">
<style>.a{margin:0}</style></head>
<body><div>Emergency repairs</div><script>var x = 1;</script><p>Call today!</p>
<span>xkcdqwrt</span><svg><text>icon</text></svg><noscript>Enable JavaScript</noscript></body></html>`

// ==========================
// Cleaning
// ==========================

func TestFilterTokens(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"punctuation stripped", "Hello, world!", "Hello world"},
		{"long token", "ok abcdefghijklmnopqrstuvwxyz0 fine", "ok fine"},
		{"unicode range id", "U1F600A smile", "smile"},
		{"consonant run", "strengths matter", "matter"},
		{"css and js", "rgba(0,0,0) 10px isTrue window.open kept", "kept"},
		{"null variants", "NULL value null", "value"},
		{"chrome", "DoubleClick gtag('js') Roboto open now", "open now"},
		{"whitespace collapsed", "  a \n\t b  ", "a b"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterTokens(tt.in, 25))
		})
	}
}

func TestFilterTokens_LengthCountsCharacters(t *testing.T) {
	// 10 characters, 12 bytes
	assert.Equal(t, "Bckerstb ok", FilterTokens("Bäckerstüb ok", 10))
	assert.Equal(t, "ok", FilterTokens("Bäckerstübe ok", 10))
}

func TestClean(t *testing.T) {
	got, err := Clean(listingHTML, 25)
	require.NoError(t, err)
	assert.Equal(t, "Ace Plumbing Springfield Family owned plumber since 1998 Emergency repairs Call today", got)

	empty, err := Clean("   ", 25)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestExtractHTML(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"body field", `{"status_code":200,"body":"<html><p>x</p></html>"}`, "<html><p>x</p></html>", false},
		{"later key", `{"body":"captcha","data":"<HTML>y</HTML>"}`, "<HTML>y</HTML>", false},
		{"nested", `{"result":{"html":"<html>z</html>"}}`, "<html>z</html>", false},
		{"no html", `{"body":"plain text"}`, "", true},
		{"not json", `<html>raw</html>`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractHTML([]byte(tt.body))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoHTML)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ==========================
// Client
// ==========================

func newTestClient(t *testing.T, srvURL string, maxLength int) *Client {
	t.Helper()
	fetcher, err := httpclient.NewClient(httpclient.Options{MaxAttempts: 1}, logger.NewNoOpLogger())
	require.NoError(t, err)
	return NewClient(fetcher, Config{
		RequestURL:  srvURL,
		APIKey:      "secret",
		Zone:        "maps_zone",
		MapsBaseURL: "https://www.google.com/maps",
		MaxLength:   maxLength,
	}, logger.NewTestLogger(t))
}

func TestFetch_SendsScrapeRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "maps_zone", payload["zone"])
		assert.Equal(t, "https://www.google.com/maps?cid=100", payload["url"])
		assert.Equal(t, "GET", payload["method"])
		assert.Equal(t, "json", payload["format"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{"status_code": 200, "body": listingHTML})
	}))
	defer srv.Close()

	text, err := newTestClient(t, srv.URL, 0).Fetch(context.Background(), "100")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "Ace Plumbing Springfield"))
}

func TestFetch_TruncatesOnWordBoundary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"body": listingHTML})
	}))
	defer srv.Close()

	text, err := newTestClient(t, srv.URL, 20).Fetch(context.Background(), "100")
	require.NoError(t, err)
	assert.Equal(t, "Ace Plumbing", text)
}

func TestFetch_Failures(t *testing.T) {
	t.Run("upstream error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv.URL, 0).Fetch(context.Background(), "100")
		assert.ErrorIs(t, err, apperrors.ErrTransportExhausted)
	})

	t.Run("page without text", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{"body": "<html><script>var a;</script></html>"})
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv.URL, 0).Fetch(context.Background(), "100")
		assert.ErrorIs(t, err, ErrEmptyContent)
	})
}
