package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "firtrace/pkg/domain-errors"
)

func validPayload(now time.Time) CasePayload {
	return CasePayload{
		CaseType:        CaseTypeFraudCall,
		AccusedEntries:  []string{Accused{Name: "J. Doe", Mobile: "5551234"}.Entry()},
		EvidenceDigests: []ContentDigest{DigestOf([]byte("evidence-cid"))},
		Descriptions:    []string{"received a call asking for bank OTP"},
		IncidentAt:      now.Add(-24 * time.Hour),
	}
}

func TestCasePayloadValidate(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("accepts a complete payload", func(t *testing.T) {
		assert.NoError(t, validPayload(now).Validate(now))
	})

	t.Run("rejects unknown case type", func(t *testing.T) {
		p := validPayload(now)
		p.CaseType = CaseType(99)
		assertFieldError(t, p.Validate(now), "caseType")
	})

	t.Run("rejects blank-only descriptions", func(t *testing.T) {
		p := validPayload(now)
		p.Descriptions = []string{"", "   "}
		assertFieldError(t, p.Validate(now), "descriptions")
	})

	t.Run("rejects missing incident time", func(t *testing.T) {
		p := validPayload(now)
		p.IncidentAt = time.Time{}
		assertFieldError(t, p.Validate(now), "incidentAt")
	})

	t.Run("rejects future incident time", func(t *testing.T) {
		p := validPayload(now)
		p.IncidentAt = now.Add(time.Minute)
		assertFieldError(t, p.Validate(now), "incidentAt")
	})

	t.Run("rejects zero evidence digest", func(t *testing.T) {
		p := validPayload(now)
		p.EvidenceDigests = append(p.EvidenceDigests, ContentDigest{})
		assertFieldError(t, p.Validate(now), "evidenceDigests")
	})
}

func assertFieldError(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	var de *dErrors.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, dErrors.CodeInvalidCasePayload, de.Code)
	assert.Equal(t, field, de.Field)
}

func TestCasePayloadNormalized(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	p := validPayload(now)
	p.Descriptions = []string{"  first ", "", "second", "  "}
	p.AccusedEntries = []string{" Name: X ", ""}

	got := p.Normalized()
	assert.Equal(t, []string{"first", "second"}, got.Descriptions)
	assert.Equal(t, []string{"Name: X"}, got.AccusedEntries)
	// Source payload is untouched.
	assert.Len(t, p.Descriptions, 4)
}

func TestAccusedEntry(t *testing.T) {
	t.Run("joins populated channels with pipes", func(t *testing.T) {
		a := Accused{Name: "J. Doe", Mobile: "5551234", Email: "j@example.com"}
		assert.Equal(t, "Name: J. Doe | Mobile: 5551234 | Email: j@example.com", a.Entry())
	})

	t.Run("omits empty channels", func(t *testing.T) {
		a := Accused{Mobile: "5551234"}
		assert.Equal(t, "Mobile: 5551234", a.Entry())
	})
}

func TestCaseStatus(t *testing.T) {
	assert.True(t, StatusClosed.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.False(t, StatusUnderProcess.IsTerminal())
	assert.Equal(t, "under_process", StatusUnderProcess.String())
	assert.Equal(t, "unknown", CaseStatus(42).String())
}

func TestCaseRecordClone(t *testing.T) {
	rec := CaseRecord{
		ID:           1,
		Descriptions: []string{"original"},
		Remarks:      []string{"note"},
	}
	clone := rec.Clone()
	clone.Descriptions[0] = "mutated"
	clone.Remarks = append(clone.Remarks, "extra")

	assert.Equal(t, "original", rec.Descriptions[0])
	assert.Len(t, rec.Remarks, 1)
}
