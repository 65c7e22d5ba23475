package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	refPrefix   = "D3D"
	refTokenLen = 6
	refAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// MakeRef produces a tracking reference of the form D3D-YYYY-MMDD-XXXXXX,
// where the date is the current UTC calendar date and the token is random
// uppercase base-36. Uniqueness is enforced by the caller against the
// repository, with the tickets unique index as backstop.
func MakeRef(now time.Time) string {
	token := make([]byte, refTokenLen)
	max := big.NewInt(int64(len(refAlphabet)))
	for i := range token {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken
			panic(fmt.Sprintf("reference token: %v", err))
		}
		token[i] = refAlphabet[n.Int64()]
	}
	return fmt.Sprintf("%s-%s-%s", refPrefix, now.UTC().Format("2006-0102"), token)
}
