package source

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const payload = "192.0.2.0/25\n192.0.2.128/25\n2001:db8::/32\n"

func TestCreateOpenRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"list.txt", "list.zst", "list.gz", "list.xz", "list"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)

			w, err := Create(path)
			require.NoError(t, err)
			_, err = io.WriteString(w, payload)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			if algo(name) != "" {
				assert.NotEqual(t, payload, string(raw), "compressed on disk")
			} else {
				assert.Equal(t, payload, string(raw))
			}

			r, err := Open(context.Background(), path, Options{})
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			require.NoError(t, r.Close())
			assert.Equal(t, payload, string(got))
		})
	}
}

func TestOpenErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := Open(context.Background(), filepath.Join(dir, "missing.txt"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to read file")

	bogus := filepath.Join(dir, "bogus.gz")
	require.NoError(t, os.WriteFile(bogus, []byte("not gzip at all"), 0o600))
	_, err = Open(context.Background(), bogus, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GZIP")

	_, err = Create(filepath.Join(dir, "no", "such", "dir.txt"))
	require.Error(t, err)

	_, err = Open(context.Background(), "http://[::1/list.txt", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[source] [open] invalid url syntax")
}

func TestOpenStdin(t *testing.T) {
	t.Parallel()

	r, err := Open(context.Background(), Stdio, Options{Stdin: strings.NewReader(payload)})
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, payload, string(got))
}

func TestOpenURL(t *testing.T) {
	t.Parallel()

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, err := io.WriteString(zw, payload)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	var agent atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent.Store(r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/list.txt":
			io.WriteString(w, payload)
		case "/list.txt.gz":
			w.Write(gz.Bytes())
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	for _, path := range []string{"/list.txt", "/list.txt.gz"} {
		r, err := Open(context.Background(), srv.URL+path, Options{UserAgent: "netagg-test"})
		require.NoError(t, err, path)
		got, err := io.ReadAll(r)
		require.NoError(t, err)
		require.NoError(t, r.Close())
		assert.Equal(t, payload, string(got), path)
		assert.Equal(t, "netagg-test", agent.Load())
	}

	_, err = Open(context.Background(), srv.URL+"/missing", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")

	_, err = Open(context.Background(), srv.URL+"/list.txt", Options{MaxBytes: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestOpenURLWithClient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, payload)
	}))
	defer srv.Close()

	r, err := Open(context.Background(), srv.URL+"/list", Options{Client: srv.Client()})
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, payload, string(got))

	// the default client does not trust the test certificate
	_, err = Open(context.Background(), srv.URL+"/list", Options{})
	require.Error(t, err)
}

func TestKeyPin(t *testing.T) {
	t.Parallel()

	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, payload)
	}))
	defer srv.Close()
	roots := srv.Client().Transport.(*http.Transport).TLSClientConfig.RootCAs

	client := func(pin string) *http.Client {
		conf := getTlsConf(pin)
		conf.RootCAs = roots
		tr := getTransport(conf)
		t.Cleanup(tr.CloseIdleConnections)
		return getClient(tr)
	}

	pin := KeyPinBase64(srv.Certificate())
	r, err := Open(context.Background(), srv.URL+"/list", Options{Client: client(pin)})
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, payload, string(got))

	_, err = Open(context.Background(), srv.URL+"/list", Options{Client: client("c29tZSBvdGhlciBrZXk=")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keypin verification failed")
}

func TestOpenURLCanceled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, payload)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Open(ctx, srv.URL+"/list", Options{})
	require.Error(t, err)
}

func TestTransport(t *testing.T) {
	t.Parallel()

	conf := getTlsConf("")
	assert.False(t, conf.InsecureSkipVerify)
	assert.Nil(t, conf.VerifyConnection)
	assert.NotNil(t, getTlsConf("pin").VerifyConnection)
	assert.Equal(t, uint16(tls.VersionTLS12), conf.MinVersion)

	tr := getTransport(conf)
	assert.True(t, tr.DisableCompression)
	assert.Same(t, conf, tr.TLSClientConfig)
	assert.Same(t, tr, getClient(tr).Transport)

	assert.True(t, IsURL("https://example.com/list.zst"))
	assert.True(t, IsURL("http://example.com/list"))
	assert.False(t, IsURL("list.txt"))
	assert.False(t, IsURL(Stdio))
}
