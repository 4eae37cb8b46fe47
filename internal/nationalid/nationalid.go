// Package nationalid validates the 11-digit national patient identifier
// used as the registry key. The last two digits are check digits computed
// with the weighted-sum-mod-11 scheme.
package nationalid

import (
	"errors"
	"math/rand"
	"strings"
)

const Length = 11

var ErrMalformed = errors.New("national id must contain exactly 11 digits")

// Normalize strips formatting characters (dots, dashes, spaces) and
// returns the bare 11-digit form used as the storage key.
func Normalize(id string) (string, error) {
	var b strings.Builder
	for _, r := range id {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() != Length {
		return "", ErrMalformed
	}
	return b.String(), nil
}

// Valid reports whether id is a well-formed national id with correct
// check digits. Formatting characters are ignored; ids with all eleven
// digits identical are rejected even though their checksum matches.
func Valid(id string) bool {
	digits, err := Normalize(id)
	if err != nil {
		return false
	}

	allSame := true
	for i := 1; i < Length; i++ {
		if digits[i] != digits[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return false
	}

	d := make([]int, Length)
	for i := 0; i < Length; i++ {
		d[i] = int(digits[i] - '0')
	}

	if checkDigit(d[:9], 10) != d[9] {
		return false
	}
	return checkDigit(d[:10], 11) == d[10]
}

// checkDigit computes one verification digit over the given prefix,
// weighting digits from firstWeight down to 2. A remainder of 10 or 11
// maps to check digit 0.
func checkDigit(digits []int, firstWeight int) int {
	sum := 0
	for i, d := range digits {
		sum += d * (firstWeight - i)
	}
	check := 11 - sum%11
	if check >= 10 {
		return 0
	}
	return check
}

// Generate returns a random valid national id. Used by the seeder and
// the load simulator; retries the rare all-identical draw.
func Generate() string {
	for {
		d := make([]int, Length)
		for i := 0; i < 9; i++ {
			d[i] = rand.Intn(10)
		}
		d[9] = checkDigit(d[:9], 10)
		d[10] = checkDigit(d[:10], 11)

		var b strings.Builder
		for _, v := range d {
			b.WriteByte(byte('0' + v))
		}
		id := b.String()
		if Valid(id) {
			return id
		}
	}
}
