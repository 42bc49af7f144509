// Package invitecode generates the human-relayable codes handed to
// attendees as payment reference and check-in token.
package invitecode

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"
)

const (
	Prefix       = "CE"
	SuffixLength = 5
	alphabet     = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Generate returns Prefix, the unix time in milliseconds and SuffixLength
// random upper-case base36 characters. Codes are unlikely to collide but
// callers that need uniqueness must check against stored codes.
func Generate(now time.Time) (string, error) {
	buf := make([]byte, 0, len(Prefix)+13+SuffixLength)
	buf = append(buf, Prefix...)
	buf = strconv.AppendInt(buf, now.UnixMilli(), 10)

	n := big.NewInt(int64(len(alphabet)))
	for range SuffixLength {
		i, err := rand.Int(rand.Reader, n)
		if err != nil {
			return "", err
		}
		buf = append(buf, alphabet[i.Int64()])
	}
	return string(buf), nil
}
