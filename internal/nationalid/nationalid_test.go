package nationalid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValid(t *testing.T) {
	t.Run("accepts known-valid ids", func(t *testing.T) {
		for _, id := range []string{
			"12345678909",
			"54090137004",
			"46754083034",
			"52998224725",
		} {
			assert.True(t, Valid(id), "expected %s to be valid", id)
		}
	})

	t.Run("accepts formatted input", func(t *testing.T) {
		assert.True(t, Valid("529.982.247-25"))
		assert.True(t, Valid("123.456.789-09"))
	})

	t.Run("rejects wrong check digits", func(t *testing.T) {
		assert.False(t, Valid("12345678901"))
		assert.False(t, Valid("52998224724"))
	})

	t.Run("rejects repeated digits", func(t *testing.T) {
		// 00000000000 and friends pass the checksum but are not real ids.
		for _, id := range []string{"00000000000", "11111111111", "99999999999"} {
			assert.False(t, Valid(id), "expected %s to be rejected", id)
		}
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		assert.False(t, Valid(""))
		assert.False(t, Valid("1234567890"))
		assert.False(t, Valid("123456789091"))
	})
}

func TestNormalize(t *testing.T) {
	t.Run("strips punctuation", func(t *testing.T) {
		got, err := Normalize("529.982.247-25")
		require.NoError(t, err)
		assert.Equal(t, "52998224725", got)
	})

	t.Run("fails on short input", func(t *testing.T) {
		_, err := Normalize("529.982")
		assert.ErrorIs(t, err, ErrMalformed)
	})
}

func TestGenerate(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := Generate()
		require.Len(t, id, Length)
		assert.True(t, Valid(id), "generated id %s failed validation", id)
	}
}
