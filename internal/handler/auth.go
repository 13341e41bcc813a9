package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-dashboard/internal/model"
	"github.com/iliyamo/event-dashboard/internal/session"
	"github.com/iliyamo/event-dashboard/internal/utils"
)

// ErrInvalidCredentials is returned when the email or password is wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

var validate = validator.New()

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Account  model.Account
	Sessions *session.Manager
}

func NewAuthHandler(acc model.Account, m *session.Manager) *AuthHandler {
	return &AuthHandler{Account: acc, Sessions: m}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
	Next     string `json:"-" form:"next"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}
type authResp struct {
	User   userPart  `json:"user"`
	Access tokenPart `json:"access"`
}

type loginView struct {
	chrome
	Email string
	Next  string
	Error string
}

func (h *AuthHandler) authenticate(req loginReq) error {
	if !utils.CheckCredentials(h.Account, req.Email, req.Password) {
		return ErrInvalidCredentials
	}
	return nil
}

// LoginPage renders GET /login.  Signed-in operators go straight on.
func (h *AuthHandler) LoginPage(c echo.Context) error {
	next := safeReturn(c.QueryParam("next"), EventsPath)
	if session.From(c).Authenticated {
		return c.Redirect(http.StatusSeeOther, next)
	}
	return c.Render(http.StatusOK, "login.html", loginView{chrome: newChrome(c, "Sign in"), Next: next})
}

// Login handles the HTML form: POST /login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.Render(http.StatusBadRequest, "login.html", loginView{chrome: newChrome(c, "Sign in"), Error: "Invalid form."})
	}
	req.Email = strings.TrimSpace(req.Email)
	next := safeReturn(req.Next, EventsPath)
	view := loginView{chrome: newChrome(c, "Sign in"), Email: req.Email, Next: next}

	if err := validate.Struct(req); err != nil {
		view.Error = "Enter a valid email and password."
		return c.Render(http.StatusBadRequest, "login.html", view)
	}
	if err := h.authenticate(req); err != nil {
		view.Error = "Invalid email or password."
		return c.Render(http.StatusUnauthorized, "login.html", view)
	}
	if _, err := h.Sessions.SignIn(c, h.Account); err != nil {
		view.Error = "Could not start a session."
		return c.Render(http.StatusInternalServerError, "login.html", view)
	}
	return c.Redirect(http.StatusSeeOther, next)
}

// APILogin: verify and return a session token.  The session cookie is set
// as well, so browser clients of the API need nothing else.
func (h *AuthHandler) APILogin(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	if err := h.authenticate(req); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": ErrInvalidCredentials.Error()})
	}
	tok, err := h.Sessions.SignIn(c, h.Account)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	return c.JSON(http.StatusOK, authResp{
		User:   userPart{Email: h.Account.Email, Role: h.Account.Role},
		Access: tokenPart{Token: tok.Token, Expires: tok.Exp},
	})
}

// Logout clears the session and returns to the login page.
func (h *AuthHandler) Logout(c echo.Context) error {
	h.Sessions.SignOut(c)
	return c.Redirect(http.StatusSeeOther, "/login")
}

// Me returns the authenticated operator from the JWT claims.
func (h *AuthHandler) Me(c echo.Context) error {
	email, _ := c.Get("user_id").(string)
	role, _ := c.Get("role").(string)
	return c.JSON(http.StatusOK, userPart{Email: email, Role: role})
}

// safeReturn accepts only local absolute paths, so redirect targets taken
// from forms cannot send the browser to another site.
func safeReturn(raw, fallback string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, `\`) {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return u.RequestURI()
}
