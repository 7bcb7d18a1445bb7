package registration

import (
	"context"
	"crypto/rand"
	"math/big"
	"strings"

	"handa/internal/models"
)

const (
	codeLength   = 6
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewVerificationCode returns a short human-transcribable one-time code drawn
// from a uniform random source.
func NewVerificationCode() (string, error) {
	buf := make([]byte, codeLength)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[idx.Int64()]
	}
	return string(buf), nil
}

// VerifyMember checks a supplied code against the member's stored one. The
// code is single-use: a match sets the verified flag and clears it. A wrong
// guess leaves the stored code intact, so the member may retry.
func (o *Orchestrator) VerifyMember(ctx context.Context, memberID uint, supplied string) (*models.HouseholdMember, error) {
	member, err := o.stores.Members.FindByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, failf(KindReferenceNotFound, "household member %d does not exist", memberID)
	}
	if member.IsVerified {
		return nil, failf(KindAlreadyVerified, "member is already verified")
	}
	if strings.ToUpper(strings.TrimSpace(supplied)) != member.VerificationCode {
		return nil, failf(KindInvalidCode, "verification code does not match")
	}
	if err := o.stores.Members.MarkVerified(ctx, member.ID); err != nil {
		return nil, err
	}
	member.IsVerified = true
	member.VerificationCode = ""
	return member, nil
}
