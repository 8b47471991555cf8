package authprovider

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/swiftagentkit/agentkit-go/pkg/agenterrors"
)

// RegistrationRequest carries the caller-supplied pieces of an RFC 7591
// dynamic client registration request; the rest (grant_types,
// response_types, application_type, token_endpoint_auth_method) are fixed
// per spec.md §4.5 step 2, since SwiftAgentKit only ever registers a PKCE
// public native client.
type RegistrationRequest struct {
	RedirectURIs []string
	Scope        string
	ClientName   string
}

// RegistrationResult is the subset of the RFC 7591 response SwiftAgentKit
// consumes, decoded from the server's snake_case JSON into camelCase
// fields.
type RegistrationResult struct {
	ClientID     string
	ClientSecret string
}

// RegisterClient POSTs an RFC 7591 registration request built with
// tidwall/sjson (so the wire body stays snake_case regardless of Go field
// naming) and decodes the response with tidwall/gjson, mapping back to
// camelCase per spec.md §4.5 step 2.
func RegisterClient(ctx context.Context, client *http.Client, endpoint string, req RegistrationRequest) (*RegistrationResult, error) {
	body := "{}"
	var err error
	body, err = sjson.Set(body, "redirect_uris", req.RedirectURIs)
	if err != nil {
		return nil, agenterrors.RegistrationFailed(0, err.Error())
	}
	body, err = sjson.Set(body, "grant_types", []string{"authorization_code", "refresh_token"})
	if err != nil {
		return nil, agenterrors.RegistrationFailed(0, err.Error())
	}
	body, err = sjson.Set(body, "response_types", []string{"code"})
	if err != nil {
		return nil, agenterrors.RegistrationFailed(0, err.Error())
	}
	body, err = sjson.Set(body, "application_type", "native")
	if err != nil {
		return nil, agenterrors.RegistrationFailed(0, err.Error())
	}
	body, err = sjson.Set(body, "token_endpoint_auth_method", "none")
	if err != nil {
		return nil, agenterrors.RegistrationFailed(0, err.Error())
	}
	body, err = sjson.Set(body, "scope", req.Scope)
	if err != nil {
		return nil, agenterrors.RegistrationFailed(0, err.Error())
	}
	if req.ClientName != "" {
		body, err = sjson.Set(body, "client_name", req.ClientName)
		if err != nil {
			return nil, agenterrors.RegistrationFailed(0, err.Error())
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader([]byte(body)))
	if err != nil {
		return nil, agenterrors.RegistrationFailed(0, err.Error())
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, agenterrors.RegistrationFailed(0, err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, agenterrors.RegistrationFailed(resp.StatusCode, err.Error())
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, agenterrors.RegistrationFailed(resp.StatusCode, string(respBody))
	}

	doc := gjson.ParseBytes(respBody)
	return &RegistrationResult{
		ClientID:     doc.Get("client_id").String(),
		ClientSecret: doc.Get("client_secret").String(),
	}, nil
}
