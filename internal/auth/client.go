package auth

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"firtrace/pkg/domain"
	dErrors "firtrace/pkg/domain-errors"
	"firtrace/pkg/requestcontext"
)

// Client is the authentication collaborator as seen from the session manager:
// exchange a signature over the fixed challenge for a credential.
type Client interface {
	Verify(ctx context.Context, addr domain.Address, signature []byte) (Credential, error)
}

// LocalClient calls the service in-process. Used in tests and single-binary
// deployments.
type LocalClient struct {
	service *Service
	tokens  *TokenService
}

func NewLocalClient(service *Service, tokens *TokenService) *LocalClient {
	return &LocalClient{service: service, tokens: tokens}
}

func (c *LocalClient) Verify(ctx context.Context, addr domain.Address, signature []byte) (Credential, error) {
	token, err := c.service.Authenticate(ctx, addr.String(), signature)
	if err != nil {
		return Credential{}, err
	}
	now := requestcontext.Now(ctx)
	return Credential{
		Token:     token,
		Address:   addr,
		IssuedAt:  now,
		ExpiresAt: now.Add(c.tokens.TTL()),
	}, nil
}

// HTTPClient calls a remote authentication service:
// POST /authentication?accountAddress=<addr> with body {"signature": "<hex>"}.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type verifyRequest struct {
	Signature string `json:"signature"`
}

type verifyResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

func (c *HTTPClient) Verify(ctx context.Context, addr domain.Address, signature []byte) (Credential, error) {
	body, err := json.Marshal(verifyRequest{Signature: hex.EncodeToString(signature)})
	if err != nil {
		return Credential{}, dErrors.Wrap(err, dErrors.CodeInternal, "encode verify request")
	}

	endpoint := fmt.Sprintf("%s/authentication?accountAddress=%s", c.baseURL, url.QueryEscape(addr.String()))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Credential{}, dErrors.Wrap(err, dErrors.CodeInternal, "build verify request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Credential{}, dErrors.Wrap(err, dErrors.CodeAuthenticationFailed, "authentication service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// 401 and 400 both mean the signature/address pair was refused.
		return Credential{}, dErrors.Newf(dErrors.CodeAuthenticationFailed, "authentication service returned %d", resp.StatusCode)
	}

	var decoded verifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&decoded); err != nil {
		return Credential{}, dErrors.Wrap(err, dErrors.CodeAuthenticationFailed, "decode verify response")
	}
	if decoded.Token == "" {
		return Credential{}, dErrors.New(dErrors.CodeAuthenticationFailed, "authentication service returned no token")
	}

	now := time.Now()
	return Credential{
		Token:     decoded.Token,
		Address:   addr,
		IssuedAt:  now,
		ExpiresAt: now.Add(DefaultTokenTTL),
	}, nil
}
