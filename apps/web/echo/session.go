package echoweb

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tutor/core/tutor"
)

var (
	contextSessionKey = "session"
	signingMethod     = jwt.SigningMethodHS256

	errInvalidSession = errors.New("invalid session token")
)

// Claims represents the session transmitted in the session cookie.
type Claims struct {
	jwt.RegisteredClaims
	Name string     `json:"name"`
	Role tutor.Role `json:"role"`
}

type sessionCodec struct {
	appName    string
	secretKey  []byte
	cookieName string
	expiration time.Duration
	secure     bool
}

func (sc sessionCodec) claims(id tutor.Identity, now time.Time) *Claims {
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sc.appName,
			Subject:   id.Name,
			ExpiresAt: jwt.NewNumericDate(now.Add(sc.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Name: id.Name,
		Role: id.Role,
	}
}

// encode generates a signed token string representing the identity.
func (sc sessionCodec) encode(id tutor.Identity) (string, error) {
	token := jwt.NewWithClaims(signingMethod, sc.claims(id, time.Now()))
	ss, err := token.SignedString(sc.secretKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (sc sessionCodec) decode(tokenStr string) (tutor.Identity, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != signingMethod.Alg() {
			return nil, errInvalidSession
		}
		return sc.secretKey, nil
	})
	if err != nil || !token.Valid || claims.Name == "" {
		return tutor.Identity{}, errInvalidSession
	}
	return tutor.Identity{Name: claims.Name, Role: tutor.ParseRole(string(claims.Role))}, nil
}

func (sc sessionCodec) cookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     sc.cookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   sc.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// login stores the identity in the request session and in the cookie.
func (sc sessionCodec) login(ctx echo.Context, id tutor.Identity) error {
	token, err := sc.encode(id)
	if err != nil {
		return err
	}
	ctx.SetCookie(sc.cookie(token, time.Now().Add(sc.expiration)))
	getSession(ctx).Login(id)
	return nil
}

// logout clears the request session and expires the cookie.
func (sc sessionCodec) logout(ctx echo.Context) {
	c := sc.cookie("", time.Unix(0, 0))
	c.MaxAge = -1
	ctx.SetCookie(c)
	getSession(ctx).Logout()
}

// sessionMiddleware attaches a fresh tutor.Session to every request, authenticated when the cookie is valid.
func sessionMiddleware(sc sessionCodec) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess := tutor.NewSession()
			if c, err := ctx.Cookie(sc.cookieName); err == nil && c.Value != "" {
				if id, err := sc.decode(c.Value); err == nil {
					sess.Login(id)
				}
			}
			ctx.Set(contextSessionKey, sess)
			return next(ctx)
		}
	}
}

func getSession(ctx echo.Context) *tutor.Session {
	if sess, ok := ctx.Get(contextSessionKey).(*tutor.Session); ok {
		return sess
	}
	sess := tutor.NewSession()
	ctx.Set(contextSessionKey, sess)
	return sess
}

func getIdentity(ctx echo.Context) tutor.Identity {
	return getSession(ctx).Identity
}

// loginRequired sends anonymous visitors to the login page (pages) or answers 401 (api).
func loginRequired(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if getSession(ctx).Authenticated {
			return next(ctx)
		}
		if isAPIRequest(ctx) {
			return errUnauthorized
		}
		return ctx.Redirect(http.StatusSeeOther, "/login")
	}
}

func roleMiddleware(role tutor.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if getIdentity(ctx).Role != role {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

func isAPIRequest(ctx echo.Context) bool {
	return strings.HasPrefix(ctx.Request().URL.Path, "/api/")
}
