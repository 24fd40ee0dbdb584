package util

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ID prefixes per collection.
const (
	PrefixUser       = "user"
	PrefixCase       = "case"
	PrefixQuery      = "query"
	PrefixResponse   = "response"
	PrefixAttachment = "attachment"
	PrefixPayment    = "payment"
	PrefixNotify     = "notification"
)

// GenerateID returns "{prefix}-{epochMillis}-{base36 random}".
func GenerateID(prefix string) string {
	id := uuid.New()
	suffix := strconv.FormatUint(binary.BigEndian.Uint64(id[:8]), 36)
	if len(suffix) > 9 {
		suffix = suffix[:9]
	}
	return prefix + "-" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + suffix
}

// Now returns the current UTC instant truncated to the precision the stores keep.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// NowISO returns the current instant as an ISO-8601 string.
func NowISO() string {
	return Now().Format(time.RFC3339Nano)
}
