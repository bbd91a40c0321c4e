package nexpose

import (
	"log/slog"
	"net/http"
)

// Credential is an opaque username/password pair used for HTTP Basic auth
// The password never leaves the value except when a request is signed
type Credential struct {
	username string
	password []byte
}

// NewCredential copies password so the caller can wipe its own buffer
func NewCredential(username string, password []byte) Credential {
	p := make([]byte, len(password))
	copy(p, password)
	return Credential{username: username, password: p}
}

// Username returns the account name
func (c Credential) Username() string {
	return c.username
}

// Empty reports whether either part of the credential is missing
func (c Credential) Empty() bool {
	return c.username == "" || len(c.password) == 0
}

// Clear overwrites the password bytes
func (c *Credential) Clear() {
	for i := range c.password {
		c.password[i] = 0
	}
	c.password = nil
}

func (c Credential) apply(req *http.Request) {
	req.SetBasicAuth(c.username, string(c.password))
}

func (c Credential) String() string {
	return c.username + ":[REDACTED]"
}

// LogValue keeps the password out of structured logs
func (c Credential) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("username", c.username),
		slog.String("password", "[REDACTED]"),
	)
}
