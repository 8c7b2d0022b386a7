// Package network wraps the TLS listener so plain HTTP requests on the
// HTTPS port get a redirect instead of a handshake error.
package network

import (
	"bufio"
	"bytes"
	"fmt"
	"net"
	"net/http"
	"sync"
)

// RedirectListener hands out connections that answer a plain HTTP request
// with 307 to the https:// form of the same URL.
type RedirectListener struct {
	net.Listener
}

func NewRedirectListener(l net.Listener) net.Listener {
	return &RedirectListener{Listener: l}
}

func (l *RedirectListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return &redirectConn{Conn: conn}, nil
}

// redirectConn peeks at the first read. A TLS ClientHello is replayed to the
// caller untouched; anything that parses as HTTP is redirected and closed.
type redirectConn struct {
	net.Conn

	once    sync.Once
	pending []byte
}

func (c *redirectConn) sniff() {
	buf := make([]byte, 2048)
	n, err := c.Conn.Read(buf)
	c.pending = buf[:n]
	if err != nil || n == 0 {
		return
	}
	req, err := http.ReadRequest(bufio.NewReader(bytes.NewReader(c.pending)))
	if err != nil {
		return
	}
	resp := http.Response{
		StatusCode: http.StatusTemporaryRedirect,
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     http.Header{},
	}
	resp.Header.Set("Location", fmt.Sprintf("https://%s%s", req.Host, req.RequestURI))
	_ = resp.Write(c.Conn)
	_ = c.Conn.Close()
	c.pending = nil
}

func (c *redirectConn) Read(b []byte) (int, error) {
	c.once.Do(c.sniff)
	if len(c.pending) > 0 {
		n := copy(b, c.pending)
		c.pending = c.pending[n:]
		return n, nil
	}
	return c.Conn.Read(b)
}
