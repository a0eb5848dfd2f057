package endpoint

import (
	"bytes"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap/zapcore"
)

// Header is one request header line.
type Header struct {
	Key   string
	Value string
}

// Headers lists request headers in the order they were received.
type Headers []Header

// MarshalLogArray implements zapcore.ArrayMarshaler.
func (h Headers) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for _, kv := range h {
		enc.AppendString(kv.Key + ": " + kv.Value)
	}
	return nil
}

// RequestHeaders returns the headers of req in wire order, repeated keys included.
// Requests that were not parsed from the wire fall back to fasthttp's own order.
func RequestHeaders(req *fasthttp.Request) Headers {
	if raw := req.Header.RawHeaders(); len(raw) > 0 {
		return parseRaw(raw)
	}
	var out Headers
	req.Header.VisitAll(func(key, value []byte) {
		out = append(out, Header{Key: string(key), Value: string(value)})
	})
	return out
}

func parseRaw(raw []byte) Headers {
	var out Headers
	for _, line := range bytes.Split(raw, []byte("\n")) {
		line = bytes.TrimRight(line, "\r")
		if len(line) == 0 {
			continue
		}
		key, value, ok := bytes.Cut(line, []byte(":"))
		if !ok {
			continue
		}
		out = append(out, Header{
			Key:   string(bytes.TrimSpace(key)),
			Value: string(bytes.TrimSpace(value)),
		})
	}
	return out
}
