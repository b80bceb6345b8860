package checkout

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

var numberSuffixMax = big.NewInt(10000)

// generateOrderNumber builds a public order number of the form
// PREFIX + yymmdd + four random digits, e.g. MK2506014821. Collisions
// within a day are possible and handled by retrying the insert.
func generateOrderNumber(prefix string, at time.Time) string {
	n, err := rand.Int(rand.Reader, numberSuffixMax)
	suffix := int64(0)
	if err == nil {
		suffix = n.Int64()
	}
	return fmt.Sprintf("%s%s%04d", prefix, at.Format("060102"), suffix)
}
