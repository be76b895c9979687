package source

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strconv"
)

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// getTlsConf ...
func getTlsConf(keyPin string) *tls.Config {
	tlsConfig := &tls.Config{
		InsecureSkipVerify:     false,
		SessionTicketsDisabled: true,
		Renegotiation:          tls.RenegotiateNever,
		MinVersion:             tls.VersionTLS12,
	}
	if keyPin != "" {
		tlsConfig.VerifyConnection = func(state tls.ConnectionState) error {
			if !pinVerifyState(keyPin, &state) {
				return errors.New("[source] [tls] keypin verification failed")
			}
			return nil
		}
	}
	return tlsConfig
}

// pinVerifyState ...
func pinVerifyState(keyPin string, state *tls.ConnectionState) bool {
	if len(state.PeerCertificates) > 0 {
		if keyPin == KeyPinBase64(state.PeerCertificates[0]) {
			return true
		}
	}
	return false
}

// KeyPinBase64 returns the base64 sha256 of the certificate public key, the
// form Options.KeyPin expects.
func KeyPinBase64(cert *x509.Certificate) string {
	h := sha256.Sum256(cert.RawSubjectPublicKeyInfo)
	return base64.StdEncoding.EncodeToString(h[:])
}

// getTransport ...
func getTransport(tlsconf *tls.Config) *http.Transport {
	return &http.Transport{
		Proxy:              http.ProxyFromEnvironment,
		TLSClientConfig:    tlsconf,
		DisableCompression: true, // pre-compressed file downloads
		ForceAttemptHTTP2:  false,
	}
}

// getClient ...
func getClient(transport *http.Transport) *http.Client {
	return &http.Client{
		CheckRedirect: nil,
		Jar:           nil,
		Transport:     transport,
	}
}

// fetch downloads a prefix list, refusing bodies above opts.MaxBytes
func fetch(ctx context.Context, targetURL string, opts Options) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.timeout())
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, errors.New("[source] [" + targetURL + "] invalid url syntax [" + err.Error() + "]")
	}
	request.Header.Set("User-Agent", opts.userAgent())

	client := opts.Client
	if client == nil {
		client = getClient(getTransport(getTlsConf(opts.KeyPin)))
	}
	resp, err := client.Do(request)
	if err != nil {
		return nil, errors.New("[source] [fetch] [" + targetURL + "] [" + err.Error() + "]")
	}
	defer resp.Body.Close()
	if resp.StatusCode > 299 {
		return nil, errors.New("[source] [fetch] [" + targetURL + "] [status " + strconv.Itoa(resp.StatusCode) + "]")
	}

	limit := opts.maxBytes()
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, errors.New("[source] [fetch] [" + targetURL + "] [" + err.Error() + "]")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("[source] [fetch] [" + targetURL + "] [body exceeds " + strconv.FormatInt(limit, 10) + " bytes]")
	}
	return data, nil
}
