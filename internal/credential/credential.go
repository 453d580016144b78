// Package credential supplies the secret injected into connection strings.
//
// A Provider is called synchronously whenever a connection manager needs the
// secret. Providers do not cache; wrap one in a Cache for session-long reuse.
package credential

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-secure-stdlib/parseutil"
	"github.com/hashicorp/go-secure-stdlib/password"
	"github.com/koustreak/querykit/internal/errs"
)

// Provider returns a secret on demand.
type Provider interface {
	Secret() (string, error)
}

// Static is a Provider that always returns the same value.
type Static string

func (s Static) Secret() (string, error) { return string(s), nil }

// Env is a Provider that reads the named environment variable.
// An unset variable is an error; an empty one is not.
type Env string

func (e Env) Secret() (string, error) {
	v, ok := os.LookupEnv(string(e))
	if !ok {
		return "", errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("environment variable %s is not set", string(e)))
	}
	return v, nil
}

// Prompt asks for the secret on a terminal without echoing it.
type Prompt struct {
	// Message is printed before reading. Defaults to a generic prompt.
	Message string

	// In is the terminal to read from. Defaults to os.Stdin.
	In *os.File

	// Out receives the prompt. Defaults to os.Stderr.
	Out io.Writer
}

func (p *Prompt) Secret() (string, error) {
	in := p.In
	if in == nil {
		in = os.Stdin
	}
	out := p.Out
	if out == nil {
		out = os.Stderr
	}
	msg := p.Message
	if msg == "" {
		msg = "Please enter the database password (it will be hidden): "
	}

	fmt.Fprint(out, msg)
	value, err := password.Read(in)
	fmt.Fprint(out, "\n")
	if err != nil {
		return "", errs.Wrap(errs.ErrKindInvalidInput,
			"failed to read password; stdin is probably not a terminal, pass -password with env:// or file:// instead", err)
	}
	return strings.TrimSpace(value), nil
}

// FromFlag turns a -password flag value into a Provider. An empty value
// prompts; env://NAME and file://PATH resolve lazily on first use;
// string://VALUE is accepted for scripting. Bare values are rejected so that
// secrets do not end up in shell history.
func FromFlag(value string, prompt *Prompt) (Provider, error) {
	if value == "" {
		if prompt == nil {
			prompt = &Prompt{}
		}
		return prompt, nil
	}
	if !hasSecretScheme(value) {
		return nil, errs.New(errs.ErrKindInvalidInput,
			"password flag must use env://, file:// or string:// syntax, or be left empty for an interactive prompt")
	}
	return pathProvider(value), nil
}

func hasSecretScheme(value string) bool {
	v := strings.TrimSpace(value)
	for _, scheme := range []string{"env://", "file://", "string://"} {
		if strings.HasPrefix(v, scheme) {
			return true
		}
	}
	return false
}

type pathProvider string

func (p pathProvider) Secret() (string, error) {
	v, err := parseutil.MustParsePath(string(p), parseutil.WithErrorOnMissingEnv(true))
	if err != nil {
		return "", errs.Wrap(errs.ErrKindInvalidInput, "failed to resolve password", err)
	}
	return v, nil
}

// Cache wraps a Provider and remembers the first secret it returns.
// Failed lookups are not cached.
type Cache struct {
	p      Provider
	secret string
	ok     bool
}

// NewCache wraps p.
func NewCache(p Provider) *Cache {
	return &Cache{p: p}
}

func (c *Cache) Secret() (string, error) {
	if c.ok {
		return c.secret, nil
	}
	s, err := c.p.Secret()
	if err != nil {
		return "", err
	}
	c.secret, c.ok = s, true
	return s, nil
}

// Forget drops the cached secret so the next call asks the provider again.
func (c *Cache) Forget() {
	c.secret, c.ok = "", false
}
