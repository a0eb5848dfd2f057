package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		raw      string
		endpoint string
		secure   bool
	}{
		{"localhost:9000", "localhost:9000", false},
		{"http://localhost:9000", "localhost:9000", false},
		{"https://s3.amazonaws.com/", "s3.amazonaws.com", true},
		{"  minio:9000 ", "minio:9000", false},
	}
	for _, tt := range tests {
		endpoint, secure := splitEndpoint(tt.raw)
		assert.Equal(t, tt.endpoint, endpoint, tt.raw)
		assert.Equal(t, tt.secure, secure, tt.raw)
	}
}

func TestConfigTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, Config{}.timeout())
	assert.Equal(t, 5*time.Second, Config{TimeoutSeconds: 5}.timeout())
}
