package endpoint

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

func TestService_Response(t *testing.T) {
	svc := NewService(nil, zap.NewNop())
	dir := t.TempDir()

	t.Run("ReadsFile", func(t *testing.T) {
		path := filepath.Join(dir, "response.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"status":"ok"}`), 0o644))

		data, err := svc.Response(path)
		require.NoError(t, err)
		assert.Equal(t, `{"status":"ok"}`, string(data))
	})

	t.Run("MissingFile", func(t *testing.T) {
		data, err := svc.Response(filepath.Join(dir, "absent.json"))
		require.NoError(t, err)
		assert.Equal(t, string(NotFoundBody), string(data))
	})

	t.Run("UnreadableFile", func(t *testing.T) {
		_, err := svc.Response(dir)
		assert.Error(t, err)
	})
}

func TestCharset(t *testing.T) {
	assert.Equal(t, "utf-8", Charset(""))
	assert.Equal(t, "utf-8", Charset("application/json"))
	assert.Equal(t, "ISO-8859-1", Charset("text/plain; charset=ISO-8859-1"))
	assert.Equal(t, "shift_jis", Charset(`application/json; charset="shift_jis"`))
	assert.Equal(t, "utf-8", Charset("not a media type;;"))
}

func TestDecodeBody(t *testing.T) {
	assert.Equal(t, "", DecodeBody(nil, "application/json"))
	assert.Equal(t, `{"x":1}`, DecodeBody([]byte(`{"x":1}`), ""))
	assert.Equal(t, "héllo", DecodeBody([]byte("héllo"), "application/json; charset=utf-8"))
	assert.Equal(t, "héllo", DecodeBody([]byte{'h', 0xe9, 'l', 'l', 'o'}, "text/plain; charset=iso-8859-1"))
	assert.Equal(t, "plain", DecodeBody([]byte("plain"), "text/plain; charset=no-such-charset"))
}

func TestRequestHeaders_WireOrder(t *testing.T) {
	raw := "POST /api/widget HTTP/1.1\r\n" +
		"Host: localhost\r\n" +
		"X-Zeta: last-alpha\r\n" +
		"Content-Type: application/json\r\n" +
		"X-Alpha: first-alpha\r\n" +
		"X-Alpha: again\r\n" +
		"Content-Length: 2\r\n" +
		"\r\n" +
		"{}"

	var req fasthttp.Request
	require.NoError(t, req.Read(bufio.NewReader(strings.NewReader(raw))))

	headers := RequestHeaders(&req)
	require.Len(t, headers, 6)
	assert.Equal(t, Header{Key: "Host", Value: "localhost"}, headers[0])
	assert.Equal(t, Header{Key: "X-Zeta", Value: "last-alpha"}, headers[1])
	assert.Equal(t, Header{Key: "X-Alpha", Value: "first-alpha"}, headers[3])
	assert.Equal(t, Header{Key: "X-Alpha", Value: "again"}, headers[4])
}

func TestRequestHeaders_Fallback(t *testing.T) {
	var req fasthttp.Request
	req.Header.Set("X-One", "1")

	headers := RequestHeaders(&req)
	assert.Contains(t, headers, Header{Key: "X-One", Value: "1"})
}

func TestParseRaw_SkipsMalformed(t *testing.T) {
	headers := parseRaw([]byte("Good: yes\r\nbroken line\r\n\r\nAlso: fine : with colon\r\n"))
	assert.Equal(t, Headers{{Key: "Good", Value: "yes"}, {Key: "Also", Value: "fine : with colon"}}, headers)
}
