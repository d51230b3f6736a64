// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package client provides easy and fast access to the device cloud REST api

The client either talks real HTTP to a cloud host, or it talks directly to a
mux router in-process. The router mode is the tool of choice for unit tests:
a handful of handlers on a router make a perfectly good fake cloud.
*/
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
)

// Client provides access to the device cloud REST API.
type Client struct {
	router     *mux.Router
	httpClient *http.Client
	url        string
	apiKey     string
	ctx        context.Context

	defaultHeaders map[string]string
}

// NewWithURL creates a client to make REST requests to the cloud.
//
// WithKey adds an api key to the request header.
func NewWithURL(url string) Client {
	return Client{
		url:            strings.TrimSuffix(url, "/"),
		httpClient:     &http.Client{Timeout: 20 * time.Second},
		defaultHeaders: map[string]string{},
	}
}

// NewWithRouter creates a client to make pseudo-REST requests through the
// mux router, without marshalling HTTP.
func NewWithRouter(router *mux.Router) Client {
	return Client{
		router:         router,
		defaultHeaders: map[string]string{},
	}
}

// WithKey returns a new client which authorizes requests with the given
// api key as bearer token
func (c Client) WithKey(apiKey string) Client {
	c.apiKey = apiKey
	return c
}

// WithHeader returns a new client with a default header added
func (c Client) WithHeader(key string, value string) Client {
	c.defaultHeaders[key] = value
	return c
}

// WithTimeout returns a new client with a different request timeout. A zero
// timeout disables the limit entirely, which is what long-polling requests
// need. Has no effect on router clients.
func (c Client) WithTimeout(timeout time.Duration) Client {
	if c.httpClient != nil {
		c.httpClient = &http.Client{Timeout: timeout}
	}
	return c
}

// WithContext returns a new client with specific request context
func (c Client) WithContext(ctx context.Context) Client {
	c.ctx = ctx
	return c
}

// Context returns the client's request context
func (c Client) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// exec sends the request either through the router or over the wire and
// returns status, response header and raw body.
func (c Client) exec(r *http.Request, extraHeaders map[string]string) (int, http.Header, []byte, error) {
	for key, value := range c.defaultHeaders {
		r.Header.Add(key, value)
	}
	for key, value := range extraHeaders {
		r.Header.Add(key, value)
	}

	if c.router != nil {
		rec := httptest.NewRecorder()
		c.router.ServeHTTP(rec, r)
		res := rec.Result()
		return res.StatusCode, res.Header, rec.Body.Bytes(), nil
	}

	if c.apiKey != "" {
		r.Header.Add("Authorization", "Bearer "+c.apiKey)
	}
	res, err := c.httpClient.Do(r)
	if err != nil {
		return http.StatusInternalServerError, nil, nil, err
	}
	defer res.Body.Close()
	resBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, res.Header, resBody, nil
}

func statusError(status int, body []byte) error {
	return fmt.Errorf("handler returned status code %v. Error: %s",
		status, strings.TrimSpace(string(body)))
}

func unmarshalResult(resBody []byte, result interface{}) error {
	if resBody == nil || result == nil {
		return nil
	}
	if raw, ok := result.(*[]byte); ok {
		*raw = resBody
		return nil
	}
	return json.Unmarshal(resBody, result)
}

// RawGet gets the resource from path. Expects http.StatusOK,
// http.StatusAccepted or http.StatusNoContent as response, otherwise it
// flags an error. Returns the actual http status code.
//
// The path can be extended with query strings.
//
// result can be map[string]interface{} or a raw *[]byte.
// result can be nil.
func (c Client) RawGet(path string, result interface{}) (int, error) {
	status, _, err := c.RawGetWithHeader(path, nil, result)
	return status, err
}

// RawGetWithHeader gets the resource from path like RawGet, and additionally
// returns the response header.
func (c Client) RawGetWithHeader(path string, header map[string]string, result interface{}) (int, http.Header, error) {
	r, _ := http.NewRequestWithContext(c.Context(), http.MethodGet, c.url+path, nil)
	status, resHeader, resBody, err := c.exec(r, header)
	if err != nil {
		return status, nil, err
	}
	if status == http.StatusNoContent {
		return status, resHeader, nil
	}
	if status != http.StatusOK && status != http.StatusAccepted {
		return status, resHeader, statusError(status, resBody)
	}
	return status, resHeader, unmarshalResult(resBody, result)
}

// RawPost posts a resource to path. Expects http.StatusOK,
// http.StatusCreated or http.StatusAccepted as response, otherwise it flags
// an error. Returns the actual http status code.
//
// body can also be a []byte, result can also be a raw *[]byte.
// result can be nil.
func (c Client) RawPost(path string, body interface{}, result interface{}) (int, error) {
	var err error
	j, ok := body.([]byte)
	if !ok && body != nil {
		j, err = json.Marshal(body)
		if err != nil {
			return http.StatusBadRequest, fmt.Errorf("POST to %s: %w", path, err)
		}
	}
	r, _ := http.NewRequestWithContext(c.Context(), http.MethodPost, c.url+path, bytes.NewBuffer(j))
	status, _, resBody, err := c.exec(r, nil)
	if err != nil {
		return status, err
	}
	if status != http.StatusOK && status != http.StatusCreated && status != http.StatusAccepted {
		return status, statusError(status, resBody)
	}
	return status, unmarshalResult(resBody, result)
}

// RawPut puts a resource to path. Expects http.StatusOK, http.StatusCreated,
// http.StatusAccepted or http.StatusNoContent as valid responses, otherwise
// it flags an error. Returns the actual http status code.
//
// body can also be a []byte, result can also be a raw *[]byte.
// result can be nil.
func (c Client) RawPut(path string, body interface{}, result interface{}) (int, error) {
	var err error
	j, ok := body.([]byte)
	if !ok && body != nil {
		j, err = json.Marshal(body)
		if err != nil {
			return http.StatusBadRequest, fmt.Errorf("PUT to %s: %w", path, err)
		}
	}
	r, _ := http.NewRequestWithContext(c.Context(), http.MethodPut, c.url+path, bytes.NewBuffer(j))
	status, _, resBody, err := c.exec(r, nil)
	if err != nil {
		return status, err
	}
	if status != http.StatusOK && status != http.StatusCreated &&
		status != http.StatusAccepted && status != http.StatusNoContent {
		return status, statusError(status, resBody)
	}
	return status, unmarshalResult(resBody, result)
}

// RawDelete deletes the resource at path. Expects http.StatusOK or
// http.StatusNoContent as response, otherwise it flags an error.
//
// Returns the actual http status code.
func (c Client) RawDelete(path string) (int, error) {
	r, _ := http.NewRequestWithContext(c.Context(), http.MethodDelete, c.url+path, nil)
	status, _, resBody, err := c.exec(r, nil)
	if err != nil {
		return status, err
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return status, statusError(status, resBody)
	}
	return status, nil
}

// RawDeleteWithResult deletes the resource at path like RawDelete, but also
// accepts http.StatusAccepted and unmarshals the response body into result.
// Some delete operations are acknowledged asynchronously and respond with a
// body carrying an async response id.
func (c Client) RawDeleteWithResult(path string, result interface{}) (int, error) {
	r, _ := http.NewRequestWithContext(c.Context(), http.MethodDelete, c.url+path, nil)
	status, _, resBody, err := c.exec(r, nil)
	if err != nil {
		return status, err
	}
	if status == http.StatusNoContent {
		return status, nil
	}
	if status != http.StatusOK && status != http.StatusAccepted {
		return status, statusError(status, resBody)
	}
	return status, unmarshalResult(resBody, result)
}
