package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-dashboard/internal/model"
	"github.com/iliyamo/event-dashboard/internal/utils"
)

func newCtx(cookies ...*http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestLoadAnonymous(t *testing.T) {
	m := NewManager("secret", time.Hour, false)
	c, _ := newCtx()
	s := m.Load(c)
	assert.False(t, s.Authenticated)
	assert.Equal(t, ThemeSystem, s.Theme)
}

func TestSignInThenLoad(t *testing.T) {
	m := NewManager("secret", 30*time.Minute, true)
	acc := model.Account{Email: "ops@example.com", Role: model.RoleAdmin}

	c, rec := newCtx()
	tok, err := m.SignIn(c, acc)
	require.NoError(t, err)

	ck := findCookie(rec, CookieSession)
	require.NotNil(t, ck)
	assert.Equal(t, tok.Token, ck.Value)
	assert.True(t, ck.HttpOnly)
	assert.True(t, ck.Secure)

	c2, _ := newCtx(&http.Cookie{Name: CookieSession, Value: ck.Value}, &http.Cookie{Name: CookieTheme, Value: "dark"})
	s := m.Load(c2)
	assert.True(t, s.Authenticated)
	assert.Equal(t, "ops@example.com", s.Email)
	assert.Equal(t, model.RoleAdmin, s.Role)
	assert.Equal(t, ThemeDark, s.Theme)
}

func TestLoadRejectsForeignToken(t *testing.T) {
	tok, err := utils.NewAccessToken("someone-else", "ops@example.com", model.RoleAdmin, 10)
	require.NoError(t, err)

	m := NewManager("secret", time.Hour, false)
	c, _ := newCtx(&http.Cookie{Name: CookieSession, Value: tok.Token}, &http.Cookie{Name: CookieTheme, Value: "neon"})
	s := m.Load(c)
	assert.False(t, s.Authenticated)
	assert.Equal(t, ThemeSystem, s.Theme)
}

func TestSignOutAndTheme(t *testing.T) {
	m := NewManager("secret", time.Hour, false)
	c, rec := newCtx()
	m.SignOut(c)
	m.SetTheme(c, ThemeLight)

	out := findCookie(rec, CookieSession)
	require.NotNil(t, out)
	assert.Empty(t, out.Value)
	assert.Negative(t, out.MaxAge)

	th := findCookie(rec, CookieTheme)
	require.NotNil(t, th)
	assert.Equal(t, "light", th.Value)
}

func TestPutFrom(t *testing.T) {
	c, _ := newCtx()
	assert.Equal(t, Settings{Theme: ThemeSystem}, From(c))
	Put(c, Settings{Authenticated: true, Theme: ThemeDark})
	assert.True(t, From(c).Authenticated)
}
