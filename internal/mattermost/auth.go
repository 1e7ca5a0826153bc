package mattermost

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httputil"
	"strings"
)

// SessionTokenHeader is the response header carrying the session token.
const SessionTokenHeader = "Token"

// loginRequest is the body for POST /users/login.
type loginRequest struct {
	LoginID  string `json:"login_id"`
	Password string `json:"password"`
}

// Login exchanges admin credentials for a session token and stores it on
// the client. The token location in the login response varies across server
// versions, so three extraction strategies are tried in fixed order:
//
//  1. the Token response header,
//  2. a token field in the JSON body,
//  3. re-issuing the login and scanning a raw dump of the response for the
//     header (covers middleboxes that strip headers from the parsed response).
//
// Each later strategy runs only if the previous one yielded an empty
// string. If all three come up empty the failure is terminal: it means bad
// credentials or an incompatible server, not a transient fault.
func (c *Client) Login(ctx context.Context, loginID, password string) (string, error) {
	resp, err := c.postLogin(ctx, loginID, password)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return "", err
	}

	// Strategy 1: dedicated session token header.
	token := resp.Header.Get(SessionTokenHeader)

	// Strategy 2: token field in the JSON body.
	if token == "" {
		var body struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
			token = body.Token
		}
	}

	// Strategy 3: re-issue the login and scan the raw response dump.
	if token == "" {
		token, err = c.loginFromDump(ctx, loginID, password)
		if err != nil {
			return "", err
		}
	}

	if token == "" {
		return "", fmt.Errorf("%w: login succeeded but no session token found in header, body, or raw response", ErrAuthFailed)
	}

	c.token = token
	return token, nil
}

// postLogin issues the login request without the JSON decode helpers, since
// the caller needs access to the raw response headers.
func (c *Client) postLogin(ctx context.Context, loginID, password string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	data, err := json.Marshal(loginRequest{LoginID: loginID, Password: password})
	if err != nil {
		return nil, fmt.Errorf("marshaling login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+APIPath+"/users/login", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	return resp, nil
}

// loginFromDump re-issues the login request and extracts the session token
// from a raw dump of the wire response.
func (c *Client) loginFromDump(ctx context.Context, loginID, password string) (string, error) {
	resp, err := c.postLogin(ctx, loginID, password)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return "", err
	}

	dump, err := httputil.DumpResponse(resp, false)
	if err != nil {
		return "", fmt.Errorf("dumping login response: %w", err)
	}
	return tokenFromDump(dump), nil
}

// tokenFromDump scans a raw HTTP response dump for the session token header.
func tokenFromDump(dump []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(dump))
	prefix := strings.ToLower(SessionTokenHeader) + ":"
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.ToLower(line), prefix) {
			return strings.TrimSpace(line[len(prefix):])
		}
	}
	return ""
}
