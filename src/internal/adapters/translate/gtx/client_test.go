package gtx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateJoinsSegments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/translate_a/single", r.URL.Path)
		assert.Equal(t, "fr", r.URL.Query().Get("tl"))
		assert.Equal(t, "Hello. World.", r.URL.Query().Get("q"))
		w.Write([]byte(`[[["Bonjour. ","Hello. ",null,null,10],["Monde.","World.",null,null,10]],null,"en"]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	out, err := c.Translate(context.Background(), "Hello. World.", "fr")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour. Monde.", out)
}

func TestTranslateEmptyInputSkipsNetwork(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", time.Second)
	out, err := c.Translate(context.Background(), "  ", "fr")
	require.NoError(t, err)
	assert.Equal(t, "  ", out)
}

func TestTranslateFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTooManyRequests) },
		"shape":  func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"error": true}`)) },
		"empty":  func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`[[]]`)) },
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			_, err := NewClient(srv.URL, time.Second).Translate(context.Background(), "Hello", "fr")
			require.Error(t, err)
			if name != "status" {
				assert.True(t, errors.Is(err, ErrMalformed))
			}
		})
	}
}
