package auth

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"

	"stub-server/core/server"
)

// Kind selects how requests are authenticated.
type Kind int

const (
	// Anonymous accepts every request.
	Anonymous Kind = iota
	// Basic requires matching HTTP Basic credentials.
	Basic
)

func (k Kind) String() string {
	if k == Basic {
		return server.AuthBasic
	}
	return server.AuthAnonymous
}

// Policy is the authentication requirement for one request.
type Policy struct {
	Kind     Kind
	User     string
	Password string
}

// PolicyFrom derives the policy from the listener configuration.
// Any method other than Basic is treated as anonymous.
func PolicyFrom(cfg server.Config) Policy {
	if !cfg.IsBasicAuth() {
		return Policy{Kind: Anonymous}
	}
	return Policy{Kind: Basic, User: cfg.User, Password: cfg.Password}
}

// Decision is the outcome of Validate.
type Decision int

const (
	Denied Decision = iota
	Allowed
)

func (d Decision) String() string {
	if d == Allowed {
		return "allowed"
	}
	return "denied"
}

const basicPrefix = "Basic "

// Validate checks the Authorization header value against policy.
// A Basic policy with an empty expected user or password denies everything.
func Validate(authorization string, policy Policy) Decision {
	if policy.Kind != Basic {
		return Allowed
	}
	if policy.User == "" || policy.Password == "" {
		return Denied
	}

	if len(authorization) < len(basicPrefix) || !strings.EqualFold(authorization[:len(basicPrefix)], basicPrefix) {
		return Denied
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(authorization[len(basicPrefix):]))
	if err != nil || !utf8.Valid(decoded) {
		return Denied
	}

	// The password may itself contain colons.
	user, password, ok := strings.Cut(string(decoded), ":")
	if !ok || user == "" {
		return Denied
	}

	if user == policy.User && password == policy.Password {
		return Allowed
	}
	return Denied
}
