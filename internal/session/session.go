// Package session keeps per-visitor state (identity, cart, flash messages)
// in a signed cookie. A *Session is obtained once per request and passed to
// whatever needs identity or cart; nothing here is process-global state.
package session

import (
	"encoding/gob"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
)

const CookieName = "curepoint_session"

const (
	keyUserID   = "user_id"
	keyUserName = "user_name"
	keyRole     = "role"
	keyCart     = "cart"
)

var ErrRoleConflict = errors.New("already logged in with another role")

func init() {
	gob.Register(map[string]int{})
	gob.Register(Flash{})
	gob.Register([]any{})
}

type Identity struct {
	UserID      uint   `json:"user_id"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
}

type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)

type Store struct {
	store sessions.Store
}

func NewStore(secret []byte, secure bool) *Store {
	cs := sessions.NewCookieStore(secret)
	cs.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	cs.MaxAge(86400 * 7)
	return &Store{store: cs}
}

// Get returns the caller's session. A cookie that fails verification yields a
// fresh anonymous session rather than an error.
func (s *Store) Get(c echo.Context) (*Session, error) {
	raw, err := s.store.Get(c.Request(), CookieName)
	if raw == nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &Session{raw: raw}, nil
}

type Session struct {
	raw *sessions.Session
}

func (s *Session) Identity() (Identity, bool) {
	role, ok := ParseRole(stringValue(s.raw.Values[keyRole]))
	if !ok {
		return Identity{}, false
	}
	id, ok := s.raw.Values[keyUserID].(uint)
	if !ok {
		return Identity{}, false
	}
	return Identity{
		UserID:      id,
		DisplayName: stringValue(s.raw.Values[keyUserName]),
		Role:        role,
	}, true
}

// Login moves an anonymous session to id's role. Logging in again with the
// same role replaces the identity; switching roles requires a logout first.
func (s *Session) Login(id Identity) error {
	if !id.Role.Valid() {
		return fmt.Errorf("unknown role %q", id.Role)
	}
	if cur, ok := s.Identity(); ok && cur.Role != id.Role {
		return fmt.Errorf("%w: logged in as %s", ErrRoleConflict, cur.Role)
	}
	s.raw.Values[keyUserID] = id.UserID
	s.raw.Values[keyUserName] = id.DisplayName
	s.raw.Values[keyRole] = string(id.Role)
	return nil
}

// Clear drops identity, cart and any pending flashes.
func (s *Session) Clear() {
	for k := range s.raw.Values {
		delete(s.raw.Values, k)
	}
}

func (s *Session) Cart() Cart {
	stored, _ := s.raw.Values[keyCart].(map[string]int)
	out := make(Cart, len(stored))
	for k, v := range stored {
		out[k] = v
	}
	return out
}

func (s *Session) SetCart(c Cart) {
	if len(c) == 0 {
		delete(s.raw.Values, keyCart)
		return
	}
	s.raw.Values[keyCart] = map[string]int(c)
}

func (s *Session) ClearCart() {
	delete(s.raw.Values, keyCart)
}

func (s *Session) AddFlash(category, message string) {
	s.raw.AddFlash(Flash{Category: category, Message: message})
}

// Flashes consumes pending flashes; Save must follow for them to stay consumed.
func (s *Session) Flashes() []Flash {
	raw := s.raw.Flashes()
	out := make([]Flash, 0, len(raw))
	for _, f := range raw {
		if fl, ok := f.(Flash); ok {
			out = append(out, fl)
		}
	}
	return out
}

func (s *Session) Save(c echo.Context) error {
	if err := s.raw.Save(c.Request(), c.Response()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

const contextKey = "session"

// Middleware loads the caller's session once per request and stores it on the
// echo context for From.
func (s *Store) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, err := s.Get(c)
			if err != nil {
				return err
			}
			c.Set(contextKey, sess)
			return next(c)
		}
	}
}

// From returns the session placed by Middleware, or nil.
func From(c echo.Context) *Session {
	sess, _ := c.Get(contextKey).(*Session)
	return sess
}
