// Package relay submits case filings fee-lessly through a sponsoring relay
// service, falling back to direct ledger submission when the relay is
// unhealthy.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"firtrace/internal/ledger"
	"firtrace/pkg/domain"
	"firtrace/pkg/platform/circuit"
	"firtrace/pkg/platform/sentinel"
)

// SponsoredCallRequest mirrors the relay's sponsored-call API: the encoded
// call, its target chain, and the user the sponsor acts for.
type SponsoredCallRequest struct {
	ChainID  domain.ChainID  `json:"chainId"`
	Target   string          `json:"target"`
	Data     json.RawMessage `json:"data"`
	User     string          `json:"user"`
	SyncWait bool            `json:"syncWait"`
}

// SponsoredCallResponse is the relay's receipt. With SyncWait the relay only
// responds after inclusion and populates the confirmation fields.
type SponsoredCallResponse struct {
	TaskID  string `json:"taskId"`
	Version uint64 `json:"version"`
	CaseID  uint64 `json:"caseId"`
}

// Caller is the sponsored-call port.
type Caller interface {
	SponsoredCall(ctx context.Context, req SponsoredCallRequest) (SponsoredCallResponse, error)
}

// HTTPCaller talks to a Gelato-style relay endpoint.
type HTTPCaller struct {
	baseURL    string
	sponsorKey string
	http       *http.Client
}

func NewHTTPCaller(baseURL, sponsorKey string) *HTTPCaller {
	return &HTTPCaller{
		baseURL:    baseURL,
		sponsorKey: sponsorKey,
		http:       &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPCaller) SponsoredCall(ctx context.Context, call SponsoredCallRequest) (SponsoredCallResponse, error) {
	body, err := json.Marshal(call)
	if err != nil {
		return SponsoredCallResponse{}, fmt.Errorf("encode sponsored call: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/relays/v2/sponsored-call", bytes.NewReader(body))
	if err != nil {
		return SponsoredCallResponse{}, fmt.Errorf("build sponsored call: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.sponsorKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return SponsoredCallResponse{}, fmt.Errorf("relay unreachable: %w", sentinel.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return SponsoredCallResponse{}, fmt.Errorf("relay returned %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}

	var decoded SponsoredCallResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&decoded); err != nil {
		return SponsoredCallResponse{}, fmt.Errorf("decode relay response: %w", err)
	}
	return decoded, nil
}

// submitPayload is the calldata shape for a sponsored case filing.
type submitPayload struct {
	Op              string   `json:"op"`
	CaseType        uint8    `json:"caseType"`
	AccusedEntries  []string `json:"accusedEntries"`
	EvidenceDigests []string `json:"evidenceDigests"`
	Descriptions    []string `json:"descriptions"`
	IncidentAt      int64    `json:"incidentAt"`
}

// SponsoredWriter decorates a ledger writer: case submissions go through the
// relay while it is healthy, everything else (and submissions while the
// breaker is open) goes straight to the ledger. Citizens pay no fee on the
// sponsored path; the fallback keeps filing possible when the sponsor is
// down.
type SponsoredWriter struct {
	ledger.Writer
	relay   Caller
	target  string
	chainID domain.ChainID
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewSponsoredWriter(direct ledger.Writer, relay Caller, target string, chainID domain.ChainID, logger *slog.Logger) *SponsoredWriter {
	return &SponsoredWriter{
		Writer:  direct,
		relay:   relay,
		target:  target,
		chainID: chainID,
		breaker: circuit.New("relay", circuit.WithFailureThreshold(3), circuit.WithSuccessThreshold(2)),
		logger:  logger,
	}
}

func (w *SponsoredWriter) SubmitCase(ctx context.Context, complainant domain.Address, payload domain.CasePayload) (ledger.Confirmation, error) {
	if w.breaker.IsOpen() {
		// An open breaker routes filings straight to the ledger; the sponsored
		// path only comes back through Breaker.Reset once an operator confirms
		// the relay is healthy. Until then submissions pay their own way.
		return w.Writer.SubmitCase(ctx, complainant, payload)
	}

	digests := make([]string, len(payload.EvidenceDigests))
	for i, d := range payload.EvidenceDigests {
		digests[i] = d.String()
	}
	data, err := json.Marshal(submitPayload{
		Op:              "registerCase",
		CaseType:        uint8(payload.CaseType),
		AccusedEntries:  payload.AccusedEntries,
		EvidenceDigests: digests,
		Descriptions:    payload.Descriptions,
		IncidentAt:      payload.IncidentAt.Unix(),
	})
	if err != nil {
		return ledger.Confirmation{}, fmt.Errorf("encode case calldata: %w", err)
	}

	resp, err := w.relay.SponsoredCall(ctx, SponsoredCallRequest{
		ChainID:  w.chainID,
		Target:   w.target,
		Data:     data,
		User:     complainant.String(),
		SyncWait: true,
	})
	if err != nil {
		if opened, change := w.breaker.RecordFailure(); opened && change.Opened {
			w.logger.Warn("relay breaker opened, falling back to direct submission", "error", err)
		}
		return w.Writer.SubmitCase(ctx, complainant, payload)
	}

	if _, change := w.breaker.RecordSuccess(); change.Closed {
		w.logger.Info("relay breaker closed, sponsored submissions resumed")
	}
	return ledger.Confirmation{
		TxID:    resp.TaskID,
		Version: resp.Version,
		CaseID:  domain.CaseID(resp.CaseID),
	}, nil
}
