package proxy

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// componentHeader lets a CMS front controller name the active component
// when it cannot be read from the query string.
const componentHeader = "X-Component"

// SessionOptions tells the server how to recognise an authenticated visitor.
type SessionOptions struct {
	Cookies        []string // any of these cookies marks a logged-in user
	JWTSecret      []byte   // HMAC key for bearer or cookie tokens, optional
	ComponentParam string   // query parameter naming the component
}

type sessionResolver struct {
	opts   SessionOptions
	parser *jwt.Parser
}

func newSessionResolver(opts SessionOptions) *sessionResolver {
	if opts.ComponentParam == "" {
		opts.ComponentParam = "option"
	}
	return &sessionResolver{
		opts:   opts,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})),
	}
}

// Guest reports whether r carries no user session. Without a JWT secret the
// presence of a session cookie is enough; with one, the cookie value or the
// bearer token must be a valid signed token.
func (s *sessionResolver) Guest(r *http.Request) bool {
	if len(s.opts.JWTSecret) > 0 {
		if tok := bearerToken(r); tok != "" && s.validToken(tok) {
			return false
		}
	}
	for _, name := range s.opts.Cookies {
		c, err := r.Cookie(name)
		if err != nil || c.Value == "" {
			continue
		}
		if len(s.opts.JWTSecret) == 0 || s.validToken(c.Value) {
			return false
		}
	}
	return true
}

func (s *sessionResolver) validToken(raw string) bool {
	tok, err := s.parser.Parse(raw, func(*jwt.Token) (any, error) {
		return s.opts.JWTSecret, nil
	})
	return err == nil && tok.Valid
}

// Component returns the active component, taken from componentHeader or the
// component query parameter. Values with characters outside [A-Za-z0-9._-]
// are ignored.
func (s *sessionResolver) Component(r *http.Request) string {
	if v := cleanComponent(r.Header.Get(componentHeader)); v != "" {
		return v
	}
	return cleanComponent(r.URL.Query().Get(s.opts.ComponentParam))
}

func cleanComponent(v string) string {
	v = strings.TrimSpace(v)
	for _, c := range v {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '_', c == '-':
		default:
			return ""
		}
	}
	return v
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
