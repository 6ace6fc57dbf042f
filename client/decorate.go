package client

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// decorate points a relative request at the base url and attaches the authorization header.
// The token is read from the token source on every call.
func (c *Client) decorate(req *http.Request) error {
	if !req.URL.IsAbs() {
		u, err := url.Parse(c.baseURL + "/" + strings.TrimLeft(req.URL.String(), "/"))
		if err != nil {
			return fmt.Errorf("resolve %q: %w", req.URL.String(), err)
		}
		req.URL = u
		req.Host = ""
	}
	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	// The header carries the bare token. net/http trims header values on the wire.
	req.Header.Set("Authorization", token)
	return nil
}
