package server

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ConfigurationError reports a malformed listener setting.
type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid server.%s %q: %s", e.Field, e.Value, e.Reason)
}

// Address is the listener endpoint derived from one configuration snapshot.
type Address struct {
	Scheme string
	Host   string
	Port   int
	// Path is the prefix without leading or trailing slashes.
	Path string
}

// Address validates c and derives the listener endpoint from it.
func (c Config) Address() (Address, error) {
	scheme := strings.ToLower(strings.TrimSpace(c.Scheme))
	if scheme == "" {
		scheme = SchemeHTTP
	}
	if scheme != SchemeHTTP && scheme != SchemeHTTPS {
		return Address{}, &ConfigurationError{Field: "scheme", Value: c.Scheme, Reason: "must be http or https"}
	}

	host := strings.TrimSpace(c.Host)
	if host == "" {
		return Address{}, &ConfigurationError{Field: "host_name", Value: c.Host, Reason: "must not be empty"}
	}
	if strings.ContainsAny(host, "/?#@ ") {
		return Address{}, &ConfigurationError{Field: "host_name", Value: c.Host, Reason: "must be a bare host name"}
	}

	port, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil {
		return Address{}, &ConfigurationError{Field: "port_no", Value: c.Port, Reason: "must be an integer"}
	}
	if port < 0 || port > 65535 {
		return Address{}, &ConfigurationError{Field: "port_no", Value: c.Port, Reason: "out of range"}
	}

	path, err := normalizePath(c.Path)
	if err != nil {
		return Address{}, &ConfigurationError{Field: "path", Value: c.Path, Reason: err.Error()}
	}

	if scheme == SchemeHTTPS && (c.TLSCertFile == "" || c.TLSKeyFile == "") {
		return Address{}, &ConfigurationError{Field: "scheme", Value: c.Scheme, Reason: "https requires tls_cert_file and tls_key_file"}
	}

	return Address{Scheme: scheme, Host: host, Port: port, Path: path}, nil
}

func normalizePath(raw string) (string, error) {
	p := strings.Trim(strings.TrimSpace(raw), "/")
	if p == "" {
		return "", nil
	}
	if strings.ContainsAny(p, "?#\\ \t") {
		return "", fmt.Errorf("must not contain query, fragment, backslash or whitespace")
	}
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "":
			return "", fmt.Errorf("must not contain empty segments")
		case ".", "..":
			return "", fmt.Errorf("must not contain dot segments")
		}
	}
	return p, nil
}

// Prefix returns the URI prefix in the form scheme://host:port/path/.
func (a Address) Prefix() string {
	hostPort := net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
	if a.Path == "" {
		return fmt.Sprintf("%s://%s/", a.Scheme, hostPort)
	}
	return fmt.Sprintf("%s://%s/%s/", a.Scheme, hostPort, a.Path)
}

// RoutePrefix returns the path the request router is mounted on ("" for the root).
func (a Address) RoutePrefix() string {
	if a.Path == "" {
		return ""
	}
	return "/" + a.Path
}

// ListenAddr returns the host:port string handed to net.Listen.
func (a Address) ListenAddr() string {
	host := a.Host
	if host == "*" || host == "+" {
		host = ""
	}
	return net.JoinHostPort(host, strconv.Itoa(a.Port))
}

// IsTLS reports whether the listener serves https.
func (a Address) IsTLS() bool {
	return a.Scheme == SchemeHTTPS
}
