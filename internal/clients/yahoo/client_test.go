package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fintrack/internal/domain"
)

const chartBody = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "INFY.NS"},
      "indicators": {"quote": [{"close": [1501.25, null, 1523.4500122070312]}]}
    }],
    "error": null
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	log := zerolog.New(nil).Level(zerolog.Disabled)
	return NewClient(log, WithBaseURL(server.URL), WithTimeout(2*time.Second)), server
}

func TestNormalizeSymbol(t *testing.T) {
	assert.Equal(t, "INFY.NS", NormalizeSymbol("INFY"))
	assert.Equal(t, "INFY.NS", NormalizeSymbol("INFY.NS"))
	assert.Equal(t, "500209.BO", NormalizeSymbol("500209.BO"))
	assert.Equal(t, "TCS.NS", NormalizeSymbol(" TCS "))
}

func TestLastClose_ReturnsLastSeriesValue(t *testing.T) {
	var gotPath, gotQuery, gotUA string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chartBody))
	})

	price, err := client.LastClose(context.Background(), "INFY")
	require.NoError(t, err)

	assert.Equal(t, "1523.4500122070312", price.String())
	assert.Equal(t, "/v8/finance/chart/INFY.NS", gotPath)
	assert.Equal(t, "interval=1d", gotQuery)
	assert.Equal(t, DefaultUserAgent, gotUA)
}

func TestLastClose_ErrorClasses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"rate limited", http.StatusTooManyRequests, `{}`, domain.ErrRateLimited},
		{"server error is a hard failure", http.StatusInternalServerError, `oops`, domain.ErrDataUnavailable},
		{"not found is a hard failure", http.StatusNotFound, `{}`, domain.ErrDataUnavailable},
		{"garbage body is transient", http.StatusOK, `{"chart":`, domain.ErrTransientProvider},
		{"missing series", http.StatusOK, `{"chart":{"result":[]}}`, domain.ErrMalformedData},
		{"null last close", http.StatusOK, `{"chart":{"result":[{"indicators":{"quote":[{"close":[1.5,null]}]}}]}}`, domain.ErrMalformedData},
		{"empty series", http.StatusOK, `{"chart":{"result":[{"indicators":{"quote":[{"close":[]}]}}]}}`, domain.ErrMalformedData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.LastClose(context.Background(), "INFY")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var pe *domain.ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, ProviderName, pe.Provider)
			assert.Equal(t, tt.status, pe.StatusCode)
		})
	}
}

func TestLastClose_TransportFailureIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(zerolog.New(nil).Level(zerolog.Disabled), WithBaseURL(url))
	_, err := client.LastClose(context.Background(), "INFY")

	assert.ErrorIs(t, err, domain.ErrTransientProvider)
	assert.True(t, domain.IsRetryable(err))
}

func TestLastClose_ContextCancelled(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.LastClose(ctx, "INFY")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
