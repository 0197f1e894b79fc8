package order

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const orderNumberMaxLen = 12

var base36 = big.NewInt(36)

// NewOrderNumber is a display code: base36 milliseconds plus three random base36 chars.
// It is not unique-constrained.
func NewOrderNumber(now time.Time) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 36))
	for i := 0; i < 3; i++ {
		n, err := rand.Int(rand.Reader, base36)
		if err != nil {
			n = big.NewInt(now.UnixNano() % 36)
		}
		b.WriteString(strconv.FormatInt(n.Int64(), 36))
	}

	s := strings.ToUpper(b.String())
	if len(s) > orderNumberMaxLen {
		s = s[:orderNumberMaxLen]
	}
	return s
}
