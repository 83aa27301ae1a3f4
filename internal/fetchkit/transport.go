package fetchkit

import (
	"context"
	"net"
	"net/http"
	"time"

	tls "github.com/refraction-networking/utls"
	"github.com/rotisserie/eris"
)

// chromeHelloSpec builds a Chrome-like TLS ClientHello with ALPN forced to
// http/1.1 only, so the server never negotiates HTTP/2 (which Go's
// http.Transport cannot handle over a utls connection).
func chromeHelloSpec() (tls.ClientHelloSpec, error) {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return tls.ClientHelloSpec{}, eris.Wrap(err, "fetch: generate client hello spec")
	}
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	return spec, nil
}

// Available reports whether the fetching capability can be initialized at
// all. It is called before argument parsing; failure maps to exit code 2.
func Available() error {
	_, err := chromeHelloSpec()
	return err
}

// newChromeTransport returns an http.Transport that presents a Chrome TLS
// fingerprint on HTTPS connections. Plain HTTP connections are unaffected.
func newChromeTransport() (*http.Transport, error) {
	spec, err := chromeHelloSpec()
	if err != nil {
		return nil, err
	}
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: 10 * time.Second,
		}).DialContext,
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: 10 * time.Second}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, _ := net.SplitHostPort(addr)
			tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
			if err := tlsConn.ApplyPreset(&spec); err != nil {
				_ = conn.Close()
				return nil, eris.Wrap(err, "fetch: apply tls spec")
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				_ = conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2: false,
	}, nil
}
