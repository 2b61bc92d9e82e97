package rest

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"mmbot/internal/exchange"
	"net/http"
	"net/url"
	"strconv"
)

const recvWindow = "5000"

func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values, body any, auth bool, out any) error {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json")

	var bodyStr string
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		bodyStr = string(payload)
		req.SetBody(payload)
	}

	query := ""
	if len(params) > 0 {
		query = params.Encode()
		req.SetQueryParamsFromValues(params)
	}

	if auth {
		timestamp := strconv.FormatInt(c.now().UnixMilli(), 10)
		signature := sign(c.secret, timestamp+c.apiKey+recvWindow+query+bodyStr)

		req.SetHeader("X-API-KEY", c.apiKey)
		req.SetHeader("X-API-SIGN", signature)
		req.SetHeader("X-API-TIMESTAMP", timestamp)
		req.SetHeader("X-API-RECV-WINDOW", recvWindow)
	}

	resp, err := req.Execute(method, c.baseURL+path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		if resp.StatusCode() >= http.StatusBadRequest {
			return statusError(resp.StatusCode(), resp.Status())
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if env.Code != 0 {
		return remoteError(env.Code, env.Message)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return statusError(resp.StatusCode(), resp.Status())
	}

	if out != nil && len(env.Result) > 0 && string(env.Result) != "null" {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("failed to decode result: %w", err)
		}
	}
	return nil
}

func remoteError(code int, message string) error {
	re := &exchange.RemoteError{Code: code, Message: message}
	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		return fmt.Errorf("%w: %w", exchange.ErrMissingKey, re)
	}
	return re
}

func statusError(code int, status string) error {
	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		return fmt.Errorf("%w: unexpected status %s", exchange.ErrMissingKey, status)
	}
	return &exchange.RemoteError{Code: code, Message: status}
}

func sign(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
