package businessflow

import (
	"context"
	"errors"
	"testing"

	"github.com/amirphl/event-funnel/models"
	"github.com/amirphl/event-funnel/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scriptedCodes(codes ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		code := codes[i%len(codes)]
		i++
		return code, nil
	}
}

func TestConfirmationCodeGenerator(t *testing.T) {
	ctx := context.Background()

	t.Run("DefaultCodesUseAlphabet", func(t *testing.T) {
		gen := NewConfirmationCodeGenerator(&fakeEntryRepo{}, 0)
		for i := 0; i < 50; i++ {
			code, err := gen.Generate(ctx, 1)
			require.NoError(t, err)
			assert.Regexp(t, code6Pattern, code)
		}
	})

	t.Run("RetriesOnCollision", func(t *testing.T) {
		entries := &fakeEntryRepo{}
		require.NoError(t, entries.insert(&models.SurveyEntry{CampaignID: 1, PhoneNorm: "01000000001", SequenceNumber: 1, ConfirmationCode: "AAAAAA"}))

		gen := &ConfirmationCodeGeneratorImpl{entryRepo: entries, attempts: 3, random: scriptedCodes("AAAAAA", "BBBBBB")}
		code, err := gen.Generate(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "BBBBBB", code)
	})

	t.Run("CollisionIsPerCampaign", func(t *testing.T) {
		entries := &fakeEntryRepo{}
		require.NoError(t, entries.insert(&models.SurveyEntry{CampaignID: 1, PhoneNorm: "01000000001", SequenceNumber: 1, ConfirmationCode: "AAAAAA"}))

		gen := &ConfirmationCodeGeneratorImpl{entryRepo: entries, attempts: 1, random: scriptedCodes("AAAAAA")}
		code, err := gen.Generate(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, "AAAAAA", code)
	})

	t.Run("Exhausted", func(t *testing.T) {
		entries := &fakeEntryRepo{}
		require.NoError(t, entries.insert(&models.SurveyEntry{CampaignID: 1, PhoneNorm: "01000000001", SequenceNumber: 1, ConfirmationCode: "AAAAAA"}))

		gen := &ConfirmationCodeGeneratorImpl{entryRepo: entries, attempts: 4, random: scriptedCodes("AAAAAA")}
		_, err := gen.Generate(ctx, 1)
		assert.ErrorIs(t, err, ErrConfirmationCodeExhausted)
	})

	t.Run("RandomSourceFailure", func(t *testing.T) {
		gen := &ConfirmationCodeGeneratorImpl{
			entryRepo: &fakeEntryRepo{},
			attempts:  1,
			random:    func() (string, error) { return "", errors.New("entropy unavailable") },
		}
		_, err := gen.Generate(ctx, 1)
		require.Error(t, err)
		assert.False(t, IsConfirmationCodeExhausted(err))
	})
}

func TestPaddedSequenceCode(t *testing.T) {
	assert.Equal(t, "000001", PaddedSequenceCode(1))
	assert.Equal(t, "012345", PaddedSequenceCode(12345))
	assert.Equal(t, "1234567", PaddedSequenceCode(1234567))
}

func TestRandomToken(t *testing.T) {
	token, err := randomToken(utils.ConfirmationCodeLength)
	require.NoError(t, err)
	assert.Len(t, token, utils.ConfirmationCodeLength)
	for _, c := range token {
		assert.Contains(t, utils.ConfirmationCodeAlphabet, string(c))
	}
}
