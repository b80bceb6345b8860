package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{in: 0, want: DefaultLimit},
		{in: -5, want: DefaultLimit},
		{in: 10, want: 10},
		{in: MaxLimit, want: MaxLimit},
		{in: MaxLimit + 1, want: MaxLimit},
	}
	for _, tc := range cases {
		if got := NormalizeLimit(tc.in); got != tc.want {
			t.Errorf("NormalizeLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestCursorRoundTrip(t *testing.T) {
	cursor := Cursor{
		CreatedAt: time.Date(2025, 6, 1, 12, 30, 45, 123456789, time.UTC),
		ID:        uuid.New(),
	}

	parsed, err := ParseCursor(cursor.Encode())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.CreatedAt.Equal(cursor.CreatedAt) || parsed.ID != cursor.ID {
		t.Fatalf("round trip mismatch: got %+v, want %+v", parsed, cursor)
	}
}

func TestParseCursor_EmptyMeansFirstPage(t *testing.T) {
	for _, token := range []string{"", "   "} {
		cursor, err := ParseCursor(token)
		if err != nil {
			t.Fatalf("parse %q: %v", token, err)
		}
		if cursor != nil {
			t.Fatalf("expected nil cursor for %q", token)
		}
	}
}

func TestParseCursor_RejectsMalformedTokens(t *testing.T) {
	bad := []string{
		"%%%not-base64%%%",
		base64.RawURLEncoding.EncodeToString([]byte("no separator")),
		base64.RawURLEncoding.EncodeToString([]byte("not-a-time|" + uuid.NewString())),
		base64.RawURLEncoding.EncodeToString([]byte(time.Now().UTC().Format(time.RFC3339Nano) + "|not-a-uuid")),
	}
	for _, token := range bad {
		if _, err := ParseCursor(token); err == nil {
			t.Errorf("expected error for token %q", token)
		}
	}
}
