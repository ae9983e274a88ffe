// Package evidence uploads case evidence to the content-addressed store and
// derives the on-ledger digests. A failed upload returns no identifier; the
// caller must not file a case referencing it.
package evidence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"firtrace/pkg/domain"
	"firtrace/pkg/platform/sentinel"
)

// Store is the evidence-store port. Upload returns the content identifier
// assigned by the store.
type Store interface {
	Upload(ctx context.Context, filename string, content io.Reader) (string, error)
}

// DigestFor computes the ledger digest for a stored content identifier. The
// ledger never sees the identifier itself, only its keccak digest.
func DigestFor(cid string) domain.ContentDigest {
	return domain.DigestOf([]byte(cid))
}

// PinataStore pins files to a Pinata-compatible endpoint.
type PinataStore struct {
	baseURL   string
	apiKey    string
	apiSecret string
	http      *http.Client
}

func NewPinataStore(baseURL, apiKey, apiSecret string) *PinataStore {
	return &PinataStore{
		baseURL:   baseURL,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		http:      &http.Client{Timeout: 60 * time.Second},
	}
}

type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

func (s *PinataStore) Upload(ctx context.Context, filename string, content io.Reader) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("read evidence content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/pinning/pinFileToIPFS", &body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("pinata_api_key", s.apiKey)
	req.Header.Set("pinata_secret_api_key", s.apiSecret)

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("evidence store unreachable: %w", sentinel.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("evidence store returned %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}

	var decoded pinResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode pin response: %w", err)
	}
	if decoded.IpfsHash == "" {
		return "", fmt.Errorf("evidence store returned no identifier: %w", sentinel.ErrInvalidState)
	}
	return decoded.IpfsHash, nil
}

// MemoryStore keeps uploads in memory for tests. Identifiers are the content
// digest, which keeps them deterministic.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
	fail  bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// FailUploads makes subsequent uploads fail. Test control.
func (s *MemoryStore) FailUploads(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

func (s *MemoryStore) Upload(_ context.Context, _ string, content io.Reader) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", fmt.Errorf("read evidence content: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return "", fmt.Errorf("evidence store unavailable: %w", sentinel.ErrUnavailable)
	}
	cid := domain.DigestOf(data).String()
	s.blobs[cid] = data
	return cid, nil
}
