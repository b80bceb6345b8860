package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLimit applies when a listing request omits the limit.
	DefaultLimit = 25
	// MaxLimit caps the page size of any listing.
	MaxLimit = 100
)

// Params carries the paging inputs of a list request.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor marks the last row of a page in the (created_at, id) ordering
// the order listings use. Encoded cursors are opaque URL-safe tokens.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// Encode renders the cursor as the token handed back as next_cursor.
func (c Cursor) Encode() string {
	raw := c.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + c.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// NormalizeLimit clamps a requested page size to MaxLimit, falling back
// to DefaultLimit when unset.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// ParseCursor decodes a token produced by Encode. An empty token means
// the first page and yields a nil cursor.
func ParseCursor(token string) (*Cursor, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("malformed cursor token: %w", err)
	}
	stamp, rest, ok := strings.Cut(string(raw), "|")
	if !ok {
		return nil, fmt.Errorf("cursor token is missing its id part")
	}

	createdAt, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return nil, fmt.Errorf("cursor timestamp: %w", err)
	}
	id, err := uuid.Parse(rest)
	if err != nil {
		return nil, fmt.Errorf("cursor id: %w", err)
	}
	return &Cursor{CreatedAt: createdAt, ID: id}, nil
}
