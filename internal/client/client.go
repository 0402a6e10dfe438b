package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kode4food/tartan/pkg/api"
	"github.com/kode4food/tartan/pkg/log"
)

type (
	// Runner invokes the external execution unit identified by a code
	Runner interface {
		Invoke(
			context.Context, api.ExecutionCode, api.Args,
		) (*api.UnitResult, error)
	}

	// HTTPRunner invokes execution units by posting JSON to
	// {baseURL}/{code}
	HTTPRunner struct {
		httpClient  *http.Client
		baseURL     string
		maxResponse int64
	}
)

var (
	ErrUnitUnsuccessful = errors.New("execution unit returned success=false")
	ErrHTTPError        = errors.New("execution unit returned HTTP error")
	ErrResponseTooLarge = errors.New("execution unit response too large")
)

var requestHeaders = map[string]string{
	"Content-Type": "application/json",
	"Accept":       "application/json",
	"User-Agent":   "Tartan-Engine/1.0",
}

var _ Runner = (*HTTPRunner)(nil)

// NewHTTPRunner creates a Runner that calls execution units over HTTP.
// Response bodies longer than maxResponse bytes are rejected
func NewHTTPRunner(
	baseURL string, timeout time.Duration, maxResponse int64,
) *HTTPRunner {
	return &HTTPRunner{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     strings.TrimRight(baseURL, "/"),
		maxResponse: maxResponse,
	}
}

// Invoke posts the inputs to the execution unit and returns its result.
// An execution ID is generated when the unit does not report one
func (r *HTTPRunner) Invoke(
	ctx context.Context, code api.ExecutionCode, inputs api.Args,
) (*api.UnitResult, error) {
	req, err := r.newRequest(ctx, code, inputs)
	if err != nil {
		slog.Error("Unit request not built",
			log.Code(code),
			log.Error(err))
		return nil, err
	}

	start := time.Now()
	status, body, err := r.send(req)
	if err != nil {
		slog.Error("Unit call failed",
			log.Code(code),
			slog.Duration("duration", time.Since(start)),
			log.Error(err))
		return nil, err
	}

	if status != http.StatusOK {
		slog.Error("Unit replied with HTTP error",
			log.Code(code),
			slog.Int("status_code", status),
			slog.String("response_body", string(body)))
		return nil, fmt.Errorf("%w: HTTP %d", ErrHTTPError, status)
	}
	return decodeResult(code, body)
}

func (r *HTTPRunner) newRequest(
	ctx context.Context, code api.ExecutionCode, inputs api.Args,
) (*http.Request, error) {
	body, err := json.Marshal(api.UnitRequest{
		Inputs: inputs,
		Code:   string(code),
	})
	if err != nil {
		return nil, err
	}

	endpoint := r.baseURL + "/" + url.PathEscape(string(code))
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, endpoint, bytes.NewReader(body),
	)
	if err != nil {
		return nil, err
	}
	for k, v := range requestHeaders {
		req.Header.Set(k, v)
	}
	return req, nil
}

func (r *HTTPRunner) send(req *http.Request) (int, []byte, error) {
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxResponse+1))
	if err != nil {
		return 0, nil, err
	}
	if int64(len(body)) > r.maxResponse {
		return 0, nil, fmt.Errorf("%w: over %d bytes",
			ErrResponseTooLarge, r.maxResponse)
	}
	return resp.StatusCode, body, nil
}

func decodeResult(
	code api.ExecutionCode, body []byte,
) (*api.UnitResult, error) {
	var res api.UnitResponse
	if err := json.Unmarshal(body, &res); err != nil {
		slog.Error("Unit response not decoded",
			log.Code(code),
			log.Error(err))
		return nil, err
	}

	switch {
	case res.Success:
	case res.Error != "":
		return nil, fmt.Errorf("%w: %s: %s",
			ErrUnitUnsuccessful, code, res.Error)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnitUnsuccessful, code)
	}

	if res.ExecutionID == "" {
		res.ExecutionID = uuid.NewString()
	}
	return &api.UnitResult{
		Result:      res.Result,
		ExecutionID: res.ExecutionID,
	}, nil
}
