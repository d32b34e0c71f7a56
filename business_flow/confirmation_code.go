package businessflow

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/amirphl/event-funnel/repository"
	"github.com/amirphl/event-funnel/utils"
)

// ConfirmationCodeGenerator produces campaign-unique human-facing codes.
// Uniqueness is checked with one existence query per attempt.
type ConfirmationCodeGenerator interface {
	Generate(ctx context.Context, campaignID uint) (string, error)
}

type ConfirmationCodeGeneratorImpl struct {
	entryRepo repository.SurveyEntryRepository
	attempts  int
	random    func() (string, error)
}

func NewConfirmationCodeGenerator(entryRepo repository.SurveyEntryRepository, attempts int) ConfirmationCodeGenerator {
	if attempts <= 0 {
		attempts = utils.DefaultCodeAttempts
	}
	return &ConfirmationCodeGeneratorImpl{
		entryRepo: entryRepo,
		attempts:  attempts,
		random: func() (string, error) {
			return randomToken(utils.ConfirmationCodeLength)
		},
	}
}

func (g *ConfirmationCodeGeneratorImpl) Generate(ctx context.Context, campaignID uint) (string, error) {
	for i := 0; i < g.attempts; i++ {
		code, err := g.random()
		if err != nil {
			return "", fmt.Errorf("failed to generate confirmation code: %w", err)
		}
		exists, err := g.entryRepo.CodeExists(ctx, campaignID, code)
		if err != nil {
			return "", fmt.Errorf("failed to check confirmation code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrConfirmationCodeExhausted
}

// PaddedSequenceCode is the registration code: the sequence number zero-padded to six digits
func PaddedSequenceCode(n int64) string {
	return fmt.Sprintf("%06d", n)
}

// randomToken draws length characters uniformly from the code alphabet
func randomToken(length int) (string, error) {
	alphabet := utils.ConfirmationCodeAlphabet
	max := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, length)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = alphabet[idx.Int64()]
	}
	return string(buf), nil
}
