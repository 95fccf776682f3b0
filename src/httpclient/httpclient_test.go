package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytesSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	c := New(5 * time.Second)
	data, err := c.Get(context.Background(), srv.URL).Bytes()
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestExpectStatusMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(5 * time.Second)
	_, err := c.Get(context.Background(), srv.URL).ExpectStatus(200).Bytes()
	assert.Error(t, err)
}

func TestJSONDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"1.20.1"}`))
	}))
	defer srv.Close()

	c := New(5 * time.Second)
	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, c.Get(context.Background(), srv.URL).JSON(&out))
	assert.Equal(t, "1.20.1", out.ID)
}

func TestJSONDecodeMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := New(5 * time.Second)
	var out struct{}
	err := c.Get(context.Background(), srv.URL).JSON(&out)
	assert.Error(t, err)
}

func TestStreamReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("streamed"))
	}))
	defer srv.Close()

	c := New(5 * time.Second)
	body, err := c.Get(context.Background(), srv.URL).Stream()
	require.NoError(t, err)
	defer body.Close()

	buf := make([]byte, 8)
	n, _ := body.Read(buf)
	assert.Equal(t, "streamed", string(buf[:n]))
}
