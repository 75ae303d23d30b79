package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/curepoint/pharmacy/internal/session"
	"github.com/curepoint/pharmacy/pkg/middleware/auth"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("0123456789abcdef0123456789abcdef")

func loginCookies(t *testing.T, store *session.Store, id session.Identity) []*http.Cookie {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	sess, err := store.Get(c)
	require.NoError(t, err)
	require.NoError(t, sess.Login(id))
	require.NoError(t, sess.Save(c))
	return rec.Result().Cookies()
}

func serveGuarded(store *session.Store, role session.Role, cookies []*http.Cookie) *httptest.ResponseRecorder {
	e := echo.New()
	e.Use(store.Middleware())
	e.GET("/guarded", func(c echo.Context) error {
		id, ok := auth.UserID(c)
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.JSON(http.StatusOK, map[string]uint{"user_id": id})
	}, auth.Require(role))

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequire(t *testing.T) {
	store := session.NewStore(secret, false)

	customer := session.Identity{UserID: 4, DisplayName: "Ann", Role: session.RoleCustomer}
	employee := session.Identity{UserID: 153398, DisplayName: "Bob", Role: session.RoleEmployee}
	admin := session.Identity{UserID: 1, DisplayName: "Root", Role: session.RoleAdmin}

	cases := []struct {
		name     string
		caller   *session.Identity
		required session.Role
		status   int
		location string
	}{
		{"customer on employee route", &customer, session.RoleEmployee, http.StatusSeeOther, "/customer/login"},
		{"customer on admin route", &customer, session.RoleAdmin, http.StatusSeeOther, "/customer/login"},
		{"admin on employee route", &admin, session.RoleEmployee, http.StatusSeeOther, "/admin/login"},
		{"employee on customer route", &employee, session.RoleCustomer, http.StatusSeeOther, "/employee/login"},
		{"anonymous on employee route", nil, session.RoleEmployee, http.StatusSeeOther, "/employee/login"},
		{"anonymous on customer route", nil, session.RoleCustomer, http.StatusSeeOther, "/customer/login"},
		{"customer on customer route", &customer, session.RoleCustomer, http.StatusOK, ""},
		{"employee on employee route", &employee, session.RoleEmployee, http.StatusOK, ""},
		{"admin on admin route", &admin, session.RoleAdmin, http.StatusOK, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var cookies []*http.Cookie
			if tc.caller != nil {
				cookies = loginCookies(t, store, *tc.caller)
			}

			rec := serveGuarded(store, tc.required, cookies)
			require.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.location, rec.Header().Get(echo.HeaderLocation))
		})
	}
}

func TestRequireLeavesFlashOnRejection(t *testing.T) {
	store := session.NewStore(secret, false)
	cookies := loginCookies(t, store, session.Identity{UserID: 4, Role: session.RoleCustomer})

	rec := serveGuarded(store, session.RoleAdmin, cookies)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range rec.Result().Cookies() {
		req.AddCookie(ck)
	}
	c := e.NewContext(req, httptest.NewRecorder())
	sess, err := store.Get(c)
	require.NoError(t, err)

	flashes := sess.Flashes()
	require.Len(t, flashes, 1)
	assert.Equal(t, session.FlashDanger, flashes[0].Category)

	id, ok := sess.Identity()
	require.True(t, ok)
	assert.Equal(t, session.RoleCustomer, id.Role)
}
