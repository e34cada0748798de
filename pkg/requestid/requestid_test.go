package requestid_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/featureflag/pkg/logger"
	"github.com/dmitrymomot/featureflag/pkg/requestid"
)

func serve(t *testing.T, mw func(http.Handler) http.Handler, header, value string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestid.FromContext(r.Context())
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if value != "" {
		req.Header.Set(header, value)
	}
	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)
	return rec, seen
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("generates uuid", func(t *testing.T) {
		t.Parallel()
		rec, seen := serve(t, requestid.Middleware(), requestid.Header, "")
		_, err := uuid.Parse(seen)
		require.NoError(t, err)
		assert.Equal(t, seen, rec.Header().Get(requestid.Header))
	})

	t.Run("reuses client id", func(t *testing.T) {
		t.Parallel()
		rec, seen := serve(t, requestid.Middleware(), requestid.Header, "abc-123_X")
		assert.Equal(t, "abc-123_X", seen)
		assert.Equal(t, "abc-123_X", rec.Header().Get(requestid.Header))
	})

	t.Run("replaces malformed id", func(t *testing.T) {
		t.Parallel()
		gen := func() string { return "generated" }
		for _, bad := range []string{"has space", "semi;colon", strings.Repeat("a", 129)} {
			_, seen := serve(t, requestid.Middleware(requestid.WithGenerator(gen)), requestid.Header, bad)
			assert.Equal(t, "generated", seen, bad)
		}
	})

	t.Run("custom header", func(t *testing.T) {
		t.Parallel()
		rec, seen := serve(t, requestid.Middleware(requestid.WithHeader("X-Trace")), "X-Trace", "t1")
		assert.Equal(t, "t1", seen)
		assert.Equal(t, "t1", rec.Header().Get("X-Trace"))
		assert.Empty(t, rec.Header().Get(requestid.Header))
	})
}

func TestFromContext(t *testing.T) {
	t.Parallel()
	assert.Empty(t, requestid.FromContext(context.Background()))
	assert.Equal(t, "r1", requestid.FromContext(requestid.WithContext(context.Background(), "r1")))
}

func TestExtractor(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithLevel(slog.LevelDebug),
		logger.WithContextExtractors(requestid.Extractor()),
	)

	log.InfoContext(requestid.WithContext(context.Background(), "r1"), "with id")
	log.InfoContext(context.Background(), "without id")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"request_id":"r1"`)
	assert.NotContains(t, lines[1], "request_id")
}
