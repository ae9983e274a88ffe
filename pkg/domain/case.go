package domain

import (
	"strings"
	"time"

	dErrors "firtrace/pkg/domain-errors"
	pstrings "firtrace/pkg/platform/strings"
)

// CaseID is the ledger-assigned, non-reusable case number.
type CaseID uint64

// CaseType classifies the reported crime. Values mirror the ledger enum.
type CaseType uint8

const (
	CaseTypeNotSpecified CaseType = iota
	CaseTypeFraudCall
	CaseTypeOTPScam
	CaseTypeOnlineHarassment
	CaseTypeFinancialTheft
)

var caseTypeNames = map[CaseType]string{
	CaseTypeNotSpecified:     "not_specified",
	CaseTypeFraudCall:        "fraud_call",
	CaseTypeOTPScam:          "otp_scam",
	CaseTypeOnlineHarassment: "online_harassment",
	CaseTypeFinancialTheft:   "financial_theft",
}

func (t CaseType) IsValid() bool {
	_, ok := caseTypeNames[t]
	return ok
}

func (t CaseType) String() string {
	if s, ok := caseTypeNames[t]; ok {
		return s
	}
	return "unknown"
}

// CaseStatus is the workflow state of a case. Values mirror the ledger enum.
type CaseStatus uint8

const (
	StatusSubmitted CaseStatus = iota
	StatusVerified
	StatusRejected
	StatusUnderProcess
	StatusClosed
)

var caseStatusNames = map[CaseStatus]string{
	StatusSubmitted:    "submitted",
	StatusVerified:     "verified",
	StatusRejected:     "rejected",
	StatusUnderProcess: "under_process",
	StatusClosed:       "closed",
}

func (s CaseStatus) String() string {
	if n, ok := caseStatusNames[s]; ok {
		return n
	}
	return "unknown"
}

// IsTerminal reports whether the case can no longer progress. Rejected is
// terminal-equivalent to Closed for display purposes.
func (s CaseStatus) IsTerminal() bool {
	return s == StatusClosed || s == StatusRejected
}

// Accused describes one accused party on a filing. Only the populated contact
// channels appear in the serialized entry.
type Accused struct {
	Name   string
	Mobile string
	Email  string
	Social string
}

// Entry renders the accused as the ledger's pipe-delimited string form.
func (a Accused) Entry() string {
	parts := make([]string, 0, 4)
	if a.Name != "" {
		parts = append(parts, "Name: "+a.Name)
	}
	if a.Mobile != "" {
		parts = append(parts, "Mobile: "+a.Mobile)
	}
	if a.Email != "" {
		parts = append(parts, "Email: "+a.Email)
	}
	if a.Social != "" {
		parts = append(parts, "Social: "+a.Social)
	}
	return strings.Join(parts, " | ")
}

// CasePayload is a citizen's submission request. List fields keep their order
// end to end; the ledger stores them verbatim.
type CasePayload struct {
	CaseType        CaseType
	AccusedEntries  []string
	EvidenceDigests []ContentDigest
	Descriptions    []string
	IncidentAt      time.Time
}

// Normalized returns a copy with list fields trimmed and blank entries
// dropped. Non-blank entries keep their order.
func (p CasePayload) Normalized() CasePayload {
	out := p
	out.AccusedEntries = pstrings.CompactTrim(p.AccusedEntries)
	out.Descriptions = pstrings.CompactTrim(p.Descriptions)
	return out
}

// Validate checks the payload against submission rules and reports the first
// failing field.
func (p CasePayload) Validate(now time.Time) error {
	if !p.CaseType.IsValid() {
		return dErrors.NewField(dErrors.CodeInvalidCasePayload, "caseType", "unknown case type")
	}
	hasDescription := false
	for _, d := range p.Descriptions {
		if strings.TrimSpace(d) != "" {
			hasDescription = true
			break
		}
	}
	if !hasDescription {
		return dErrors.NewField(dErrors.CodeInvalidCasePayload, "descriptions", "at least one non-empty description is required")
	}
	if p.IncidentAt.IsZero() {
		return dErrors.NewField(dErrors.CodeInvalidCasePayload, "incidentAt", "incident time is required")
	}
	if p.IncidentAt.After(now) {
		return dErrors.NewField(dErrors.CodeInvalidCasePayload, "incidentAt", "incident time cannot be in the future")
	}
	for _, d := range p.EvidenceDigests {
		if d == (ContentDigest{}) {
			return dErrors.NewField(dErrors.CodeInvalidCasePayload, "evidenceDigests", "evidence digest is empty")
		}
	}
	return nil
}

// CaseRecord is the ledger's view of a filed case. The ledger is the sole
// writer; clients only read snapshots and request transitions.
type CaseRecord struct {
	ID              CaseID
	CaseType        CaseType
	Status          CaseStatus
	Complainant     Address
	AssignedPolice  Address
	AccusedEntries  []string
	EvidenceDigests []ContentDigest
	Descriptions    []string
	FiledAt         time.Time
	IncidentAt      time.Time
	Remarks         []string
}

// Clone returns a deep copy so read-model snapshots never alias ledger state.
func (c CaseRecord) Clone() CaseRecord {
	out := c
	out.AccusedEntries = append([]string(nil), c.AccusedEntries...)
	out.EvidenceDigests = append([]ContentDigest(nil), c.EvidenceDigests...)
	out.Descriptions = append([]string(nil), c.Descriptions...)
	out.Remarks = append([]string(nil), c.Remarks...)
	return out
}
