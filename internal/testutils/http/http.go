package http

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/labstack/echo/v4"
)

type RequestOption func(req *http.Request) *http.Request

func WithContext(ctx context.Context) RequestOption {
	return func(req *http.Request) *http.Request {
		return req.WithContext(ctx)
	}
}

func WithHeader(key string, value string, values ...string) RequestOption {
	return func(req *http.Request) *http.Request {
		req.Header.Add(key, value)
		for _, v := range values {
			req.Header.Add(key, v)
		}
		return req
	}
}

// Get builds an echo.Context for "GET target" and the recorder receiving its response.
//
// Path parameters are not bound; set them with ctx.SetParamNames/SetParamValues.
func Get(e *echo.Echo, target string, reqopts ...RequestOption) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, opt := range reqopts {
		req = opt(req)
	}
	resp := httptest.NewRecorder()

	ctx := e.NewContext(req, resp)
	return ctx, resp
}

// Serve routes "GET target" through e, with its middlewares and path parameters.
func Serve(e *echo.Echo, target string, reqopts ...RequestOption) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, opt := range reqopts {
		req = opt(req)
	}
	resp := httptest.NewRecorder()
	e.ServeHTTP(resp, req)
	return resp
}
