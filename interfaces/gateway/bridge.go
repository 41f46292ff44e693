// Package gateway translates API Gateway Lambda events into in-process
// HTTP requests and back. Both gateway payload shapes are supported:
// the REST API ("v1") shape with multi-value headers, and the HTTP API
// ("v2") shape with top-level cookie arrays.
package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	pkgerrors "booklib-backend/pkg/errors"
)

// Bridge dispatches gateway events into an http.Handler. It is
// stateless: every invocation is translated independently and no
// request state survives between invocations.
type Bridge struct {
	handler http.Handler
	logger  *zap.Logger
}

// NewBridge creates a bridge in front of the given handler
func NewBridge(handler http.Handler, logger *zap.Logger) *Bridge {
	return &Bridge{
		handler: handler,
		logger:  logger,
	}
}

// eventProbe sniffs which payload shape arrived.
type eventProbe struct {
	Version        string `json:"version"`
	HTTPMethod     string `json:"httpMethod"`
	RequestContext struct {
		HTTP *struct {
			Method string `json:"method"`
		} `json:"http"`
	} `json:"requestContext"`
}

// Invoke handles one raw gateway payload and produces the reply shape
// the calling event style expects. Translation failures yield a
// generic client-error response, never a crash.
func (b *Bridge) Invoke(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var probe eventProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		b.logger.Error("Unparseable gateway event", zap.Error(err))
		return errorResponseV1(http.StatusBadRequest), nil
	}

	switch {
	case probe.Version == "2.0" || probe.RequestContext.HTTP != nil:
		var event events.APIGatewayV2HTTPRequest
		if err := json.Unmarshal(raw, &event); err != nil {
			b.logger.Error("Malformed v2 gateway event", zap.Error(err))
			return errorResponseV2(http.StatusBadRequest), nil
		}
		return b.handleV2(ctx, &event), nil

	case probe.HTTPMethod != "":
		var event events.APIGatewayProxyRequest
		if err := json.Unmarshal(raw, &event); err != nil {
			b.logger.Error("Malformed v1 gateway event", zap.Error(err))
			return errorResponseV1(http.StatusBadRequest), nil
		}
		return b.handleV1(ctx, &event), nil

	default:
		b.logger.Error("Unrecognized gateway event shape")
		return errorResponseV1(http.StatusBadRequest), nil
	}
}

// handleV1 translates a REST API (v1) event.
func (b *Bridge) handleV1(ctx context.Context, event *events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	query := url.Values{}
	for k, vs := range event.MultiValueQueryStringParameters {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	for k, v := range event.QueryStringParameters {
		if _, seen := query[k]; !seen {
			query.Set(k, v)
		}
	}

	header := http.Header{}
	for k, vs := range event.MultiValueHeaders {
		for _, v := range vs {
			header.Add(k, v)
		}
	}
	for k, v := range event.Headers {
		if header.Get(k) == "" {
			header.Set(k, v)
		}
	}

	req, err := b.buildRequest(ctx, event.HTTPMethod, event.Path, query.Encode(), header, event.Body, event.IsBase64Encoded)
	if err != nil {
		b.logger.Error("Failed to translate v1 event", zap.Error(err))
		return errorResponseV1(http.StatusBadRequest)
	}

	rw := b.serve(req)

	resp := events.APIGatewayProxyResponse{
		StatusCode:      rw.status,
		Headers:         map[string]string{},
		Body:            rw.body.String(),
		IsBase64Encoded: false,
	}
	// Set-Cookie instances must stay separate headers; everything else
	// collapses into the single-value map.
	for k, vs := range rw.header {
		if strings.EqualFold(k, "Set-Cookie") {
			if resp.MultiValueHeaders == nil {
				resp.MultiValueHeaders = map[string][]string{}
			}
			resp.MultiValueHeaders["Set-Cookie"] = vs
			continue
		}
		if len(vs) > 0 {
			resp.Headers[k] = vs[len(vs)-1]
		}
	}
	return resp
}

// handleV2 translates an HTTP API (v2) event.
func (b *Bridge) handleV2(ctx context.Context, event *events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	header := http.Header{}
	for k, v := range event.Headers {
		header.Set(k, v)
	}
	// The v2 shape lists cookies individually; the request dispatch
	// layer expects one Cookie header, so rejoin them.
	if len(event.Cookies) > 0 {
		header.Set("Cookie", strings.Join(event.Cookies, "; "))
	}

	path := event.RawPath
	if path == "" {
		path = event.RequestContext.HTTP.Path
	}

	req, err := b.buildRequest(ctx, event.RequestContext.HTTP.Method, path, event.RawQueryString, header, event.Body, event.IsBase64Encoded)
	if err != nil {
		b.logger.Error("Failed to translate v2 event", zap.Error(err))
		return errorResponseV2(http.StatusBadRequest)
	}

	rw := b.serve(req)

	resp := events.APIGatewayV2HTTPResponse{
		StatusCode:      rw.status,
		Headers:         map[string]string{},
		Body:            rw.body.String(),
		IsBase64Encoded: false,
	}
	// The gateway re-translates the reply, and it expects Set-Cookie
	// values as the top-level cookies list, not a merged header.
	for k, vs := range rw.header {
		if strings.EqualFold(k, "Set-Cookie") {
			resp.Cookies = append(resp.Cookies, vs...)
			continue
		}
		if len(vs) > 0 {
			resp.Headers[k] = vs[len(vs)-1]
		}
	}
	return resp
}

// buildRequest assembles the in-process request from normalized parts.
func (b *Bridge) buildRequest(ctx context.Context, method, path, rawQuery string, header http.Header, body string, isBase64 bool) (*http.Request, error) {
	if method == "" || path == "" {
		return nil, pkgerrors.NewBadEventError("event is missing method or path")
	}

	var payload []byte
	if body != "" {
		if isBase64 {
			decoded, err := base64.StdEncoding.DecodeString(body)
			if err != nil {
				return nil, pkgerrors.NewBadEventError("body is not valid base64").WithCause(err)
			}
			payload = decoded
		} else {
			payload = []byte(body)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, path, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.NewBadEventError("event does not describe a valid request").WithCause(err)
	}
	req.URL.RawQuery = rawQuery
	req.Header = header
	if host := header.Get("Host"); host != "" {
		req.Host = host
	}
	return req, nil
}

// serve dispatches the request, converting a handler panic into a
// generic 500 with the stack kept in the operational log.
func (b *Bridge) serve(req *http.Request) (rw *responseWriter) {
	rw = newResponseWriter()

	defer func() {
		if rec := recover(); rec != nil {
			b.logger.Error("Handler panicked",
				zap.Any("panic", rec),
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Stack("stack"),
			)
			*rw = *newResponseWriter()
			rw.header.Set("Content-Type", "application/json")
			rw.status = http.StatusInternalServerError
			rw.body.WriteString(`{"error":true,"type":"INTERNAL","message":"An internal error occurred"}`)
		}
	}()

	b.handler.ServeHTTP(rw, req)
	return rw
}

// responseWriter captures the handler's response in memory.
type responseWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
	wrote  bool
}

func newResponseWriter() *responseWriter {
	return &responseWriter{
		header: http.Header{},
		status: http.StatusOK,
	}
}

func (rw *responseWriter) Header() http.Header {
	return rw.header
}

func (rw *responseWriter) WriteHeader(status int) {
	if !rw.wrote {
		rw.status = status
		rw.wrote = true
	}
}

func (rw *responseWriter) Write(p []byte) (int, error) {
	rw.wrote = true
	return rw.body.Write(p)
}

func errorResponseV1(status int) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       `{"error":true,"type":"BAD_EVENT","message":"invalid request event"}`,
	}
}

func errorResponseV2(status int) events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       `{"error":true,"type":"BAD_EVENT","message":"invalid request event"}`,
	}
}
