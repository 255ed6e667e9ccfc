package server

import (
	"crypto/rand"
	"encoding/base64"
	"io"
	"net/http"
	"net/url"

	app "imaginify/src/app"
	cfg "imaginify/src/configuration"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	stateCookieName    = "im_oauth_state"
	callbackCookieName = "callback"
	tokenCookieMaxAge  = 3600
)

type AuthHandler struct {
	authConfig             *oauth2.Config
	verifier               app.IdentityVerifier
	users                  *app.UserService
	domain                 string
	publicURL              string
	accessTokenCookieName  string
	refreshTokenCookieName string
	idTokenCookieName      string
	secure                 bool
	logger                 *zap.Logger
}

func randString(nByte int) (string, error) {
	b := make([]byte, nByte)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func NewAuthHandler(config *cfg.Properties, authConfig *oauth2.Config, verifier app.IdentityVerifier, users *app.UserService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authConfig:             authConfig,
		verifier:               verifier,
		users:                  users,
		domain:                 config.Server.Name,
		publicURL:              config.Server.PublicURL,
		accessTokenCookieName:  config.Auth.AccessTokenCookieName,
		refreshTokenCookieName: config.Auth.RefreshTokenCookieName,
		idTokenCookieName:      config.Auth.IDTokenCookieName,
		secure:                 config.Server.Release,
		logger:                 logger,
	}
}

func (a *AuthHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// authCodeURL issues a fresh state, remembered in a short-lived cookie.
func (a *AuthHandler) authCodeURL(c *gin.Context) (string, bool) {
	state, err := randString(16)
	if err != nil {
		a.logger.Error("can not generate oauth state", zap.Error(err))
		respondMessage(c, http.StatusInternalServerError, "can not start login")
		return "", false
	}
	c.SetCookie(stateCookieName, state, 600, "/", a.domain, a.secure, true)
	return a.authConfig.AuthCodeURL(state), true
}

func (a *AuthHandler) Login(c *gin.Context) {
	ref, ok := a.authCodeURL(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ref": ref})
}

func (a *AuthHandler) Signin(c *gin.Context) {
	ref, ok := a.authCodeURL(c)
	if !ok {
		return
	}
	c.Redirect(http.StatusFound, ref)
}

func (a *AuthHandler) Logout(c *gin.Context) {
	for _, name := range []string{a.accessTokenCookieName, a.refreshTokenCookieName, a.idTokenCookieName} {
		c.SetCookie(name, "", -1, "/", a.domain, a.secure, true)
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (a *AuthHandler) Callback(c *gin.Context) {
	expected, err := c.Cookie(stateCookieName)
	if err != nil || expected == "" || c.Query("state") != expected {
		respondMessage(c, http.StatusBadRequest, "no current state found")
		return
	}
	c.SetCookie(stateCookieName, "", -1, "/", a.domain, a.secure, true)

	// Exchange the authorization code for access, refresh, and id tokens
	token, err := a.authConfig.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		a.logger.Warn("can not exchange code", zap.Error(err))
		respondMessage(c, http.StatusBadRequest, "error getting access token")
		return
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		respondMessage(c, http.StatusBadRequest, "no id token found in request to /callback")
		return
	}
	identity, err := a.verifier.Verify(c.Request.Context(), rawIDToken)
	if err != nil {
		a.logger.Warn("can not verify id token", zap.Error(err))
		respondMessage(c, http.StatusUnauthorized, "can not verify id token")
		return
	}
	if _, err := a.users.EnsureUser(c.Request.Context(), identity); err != nil {
		respondError(c, err)
		return
	}

	c.SetCookie(a.accessTokenCookieName, token.AccessToken, tokenCookieMaxAge, "/", a.domain, a.secure, true)
	c.SetCookie(a.refreshTokenCookieName, token.RefreshToken, tokenCookieMaxAge, "/", a.domain, a.secure, true)
	c.SetCookie(a.idTokenCookieName, rawIDToken, tokenCookieMaxAge, "/", a.domain, a.secure, true)

	redirect := a.publicURL
	if cookieCallback, err := c.Cookie(callbackCookieName); err == nil && sameOrigin(cookieCallback, a.publicURL) {
		redirect = cookieCallback
	}
	c.Redirect(http.StatusFound, redirect)
}

// sameOrigin reports whether target points into the frontend at base.
func sameOrigin(target, base string) bool {
	t, err := url.Parse(target)
	if err != nil {
		return false
	}
	b, err := url.Parse(base)
	if err != nil {
		return false
	}
	return t.Scheme == b.Scheme && t.Host == b.Host && t.User == nil
}
