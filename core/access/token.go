// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package access validates authorization tokens on incoming webhook
// callback requests.
package access

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/wolkenio/core/logger"
)

// CallbackAuthorizer validates bearer tokens on webhook callback requests.
// The cloud signs callback tokens with the shared secret configured at
// webhook registration time (HS256).
type CallbackAuthorizer struct {
	secret []byte
}

// NewCallbackAuthorizer returns an authorizer for the given shared secret
func NewCallbackAuthorizer(secret string) CallbackAuthorizer {
	return CallbackAuthorizer{secret: []byte(secret)}
}

// Validate parses and validates a callback token. Expiry is checked when an
// exp claim is present. Only HMAC signatures are acceptable; in particular
// the "none" algorithm is always rejected.
func (a CallbackAuthorizer) Validate(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("cannot verify token")
	}
	return nil
}

// Middleware returns a middleware handler which rejects requests that do
// not carry a valid "Authorization: Bearer" callback token.
//
// This is a final handler with regards to the bearer token. It returns
// http.StatusUnauthorized when the token is missing or insufficient.
func (a CallbackAuthorizer) Middleware() mux.MiddlewareFunc {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rlog := logger.FromContext(r.Context())
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			if err := a.Validate(strings.TrimPrefix(auth, "Bearer ")); err != nil {
				rlog.WithError(err).Warningln("callback token rejected")
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}
			h.ServeHTTP(w, r)
		})
	}
}
