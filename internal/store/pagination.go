package store

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// cursor is the opaque continuation token's decoded shape: a keyset
// position on the (created_at DESC, id DESC) index every paginated query in
// this package is ordered by.
type cursor struct {
	CreatedAt time.Time `json:"t"`
	ID        string    `json:"i"`
}

// encodeCursor produces the opaque nextToken returned to callers.
func encodeCursor(createdAt time.Time, id string) string {
	data, _ := json.Marshal(cursor{CreatedAt: createdAt, ID: id})
	return base64.RawURLEncoding.EncodeToString(data)
}

// decodeCursor parses a previously issued nextToken. An empty token decodes
// to the zero cursor, meaning "start from the beginning".
func decodeCursor(token string) (cursor, error) {
	if token == "" {
		return cursor{}, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return cursor{}, newError(ErrBadRequest, "invalid continuation token")
	}
	var c cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return cursor{}, newError(ErrBadRequest, "invalid continuation token")
	}
	return c, nil
}

// ClampLimit applies spec §4.3's pagination rule: limit clamped to [1,100]
// with a default of 100.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	if limit > 100 {
		return 100
	}
	return limit
}
