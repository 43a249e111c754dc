package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
)

// NewTransport returns the pooled transport shared by all fetches. TLS
// handshakes present a Chrome ClientHello so the statistics site sees an
// ordinary browser fingerprint; ALPN is pinned to HTTP/1.1 because the
// transport's HTTP/1 codepath reads the connection afterwards.
func NewTransport(maxConns int) *http.Transport {
	if maxConns <= 0 {
		maxConns = 4
	}
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		DialTLSContext:        dialTLSChrome,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		MaxConnsPerHost:       maxConns,
		ForceAttemptHTTP2:     false,
	}
}

func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("split host port: %w", err)
	}
	raw, err := (&net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	spec, err := utls.UTLSIdToSpec(utls.HelloChrome_Auto)
	if err != nil {
		raw.Close()
		return nil, fmt.Errorf("chrome hello spec: %w", err)
	}
	pinALPN(&spec)

	conn := utls.UClient(raw, &utls.Config{ServerName: host}, utls.HelloCustom)
	if err := conn.ApplyPreset(&spec); err != nil {
		raw.Close()
		return nil, fmt.Errorf("apply chrome hello: %w", err)
	}
	if err := conn.HandshakeContext(ctx); err != nil {
		raw.Close()
		return nil, fmt.Errorf("tls handshake %s: %w", host, err)
	}
	return conn, nil
}

// pinALPN rewrites the ALPN extension of the Chrome hello to offer only
// HTTP/1.1; the rest of the fingerprint is left untouched.
func pinALPN(spec *utls.ClientHelloSpec) {
	for _, ext := range spec.Extensions {
		if alpn, ok := ext.(*utls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
		}
	}
}
