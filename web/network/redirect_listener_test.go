package network

import (
	"bufio"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedirectConnAnswersPlainHTTP(t *testing.T) {
	client, server := net.Pipe()
	conn := &redirectConn{Conn: server}

	go func() {
		_, _ = client.Write([]byte("GET /panel/api/dashboard HTTP/1.1\r\nHost: ward.example:8443\r\n\r\n"))
	}()
	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, 16)
		_, _ = conn.Read(buf)
	}()

	resp, err := http.ReadResponse(bufio.NewReader(client), nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "https://ward.example:8443/panel/api/dashboard", resp.Header.Get("Location"))
	<-done
}

func TestRedirectConnReplaysNonHTTP(t *testing.T) {
	client, server := net.Pipe()
	conn := &redirectConn{Conn: server}
	hello := []byte{0x16, 0x03, 0x01, 0x00, 0x05, 'h', 'e', 'l', 'l', 'o'}

	go func() {
		_, _ = client.Write(hello)
	}()

	got := make([]byte, 0, len(hello))
	buf := make([]byte, 4)
	for len(got) < len(hello) {
		n, err := conn.Read(buf)
		require.NoError(t, err)
		got = append(got, buf[:n]...)
	}
	assert.Equal(t, hello, got)
}
