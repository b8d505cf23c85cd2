package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSynthesizeReturnsBytes(t *testing.T) {
	audio := []byte{0x49, 0x44, 0x33, 0x00, 0xff}
	var got map[string]string
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/tts", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write(audio)
	}))
	defer srv.Close()

	c := New(srv.URL+"/api/", WithToken("tok"))
	out, err := c.Synthesize(context.Background(), "Hello world")

	require.NoError(t, err)
	assert.Equal(t, audio, out)
	assert.Equal(t, map[string]string{"text": "Hello world"}, got)
	assert.Equal(t, "Bearer tok", auth)
}

func TestClientSynthesizeNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Failed to generate speech"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Synthesize(context.Background(), "Hello")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSynthesisFailed))
	assert.Contains(t, err.Error(), "status 500")
}

func TestClientSynthesizeTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Synthesize(context.Background(), "Hello")

	assert.ErrorIs(t, err, ErrSynthesisFailed)
}
