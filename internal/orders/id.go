package orders

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const orderIDSuffixLen = 5

// NewOrderID returns ORD followed by the unix millisecond timestamp and five
// random uppercase characters.
func NewOrderID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "ORD" + strconv.FormatInt(now.UnixMilli(), 10) + suffix[:orderIDSuffixLen]
}
