package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/auth"
)

const tokenContextKey = "identityToken"

// Claims represents the authorization claims transmitted via a JWT: the identity of the session.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt  int64  `json:"oriat,omitempty"`
	Name          string `json:"name,omitempty"`
	Role          string `json:"role,omitempty"`
	GradeID       string `json:"gradeId,omitempty"`
	SubdivisionID string `json:"subdivisionId,omitempty"`
}

func (c Claims) Identity() auth.Identity {
	return auth.Identity{ID: c.Subject, Name: c.Name, Role: c.Role, GradeID: c.GradeID, SubdivisionID: c.SubdivisionID}
}

type jwtIssuer struct {
	conf   *core.Config
	config middleware.JWTConfig
}

func newJWTIssuer(conf *core.Config) *jwtIssuer {
	return &jwtIssuer{
		conf: conf,
		config: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    tokenContextKey,
			Claims:        new(Claims),
		},
	}
}

// queryConfig reads the token from the `token` query parameter, for clients (browsers' WebSocket)
// that cannot set headers.
func (iss *jwtIssuer) queryConfig() middleware.JWTConfig {
	conf := iss.config
	conf.TokenLookup = "query:token"
	return conf
}

func (iss *jwtIssuer) Claims(id auth.Identity, origIat ...int64) *Claims {
	now := core.NowFunc()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    iss.conf.AppName,
			Subject:   id.ID,
			ExpiresAt: now.Add(iss.conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt:  oriat,
		Name:          id.Name,
		Role:          id.Role,
		GradeID:       id.GradeID,
		SubdivisionID: id.SubdivisionID,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func (iss *jwtIssuer) GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(iss.config.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(iss.config.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// contextIdentity returns the identity of the session; handlers behind the JWT middleware always have one.
func contextIdentity(ctx echo.Context) auth.Identity {
	claims, _ := getContextClaims(ctx)
	return claims.Identity()
}

// refreshToken issues a new token while the refresh window opened at login is not over.
func (iss *jwtIssuer) refreshToken(ctx echo.Context, authenticator *auth.Authenticator) (string, auth.Identity, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", auth.Identity{}, err
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(iss.conf.Server.JWTRefreshExpirationDelta)
	if core.NowFunc().After(expTime) {
		return "", auth.Identity{}, errRefreshExpired
	}

	// the account may have been suspended or its class changed since login
	id, err := authenticator.Identify(ctx.Request().Context(), claims.Role, claims.Subject)
	if err != nil {
		return "", auth.Identity{}, errors.Wrap(err, "identifying session")
	}
	if id == nil {
		return "", auth.Identity{}, errAccountDeactivated
	}

	token, err := iss.GenerateToken(iss.Claims(*id, claims.OrigIssuedAt))
	return token, *id, err
}
