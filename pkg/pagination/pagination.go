package pagination

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLimit applies when a cursor is sent without a limit.
	DefaultLimit = 25
	// MaxLimit caps how many rows any cursor query can request.
	MaxLimit = 100
)

// Params holds optional paging inputs from a request. The zero value asks
// for the whole result set.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor marks the last row of the previous page in (timestamp desc, id desc) order.
type Cursor struct {
	At time.Time
	ID uuid.UUID
}

// Window is a decoded page request. A zero Limit means unbounded.
type Window struct {
	Limit int
	After *Cursor
}

// Bounded reports whether the window limits the result.
func (w Window) Bounded() bool {
	return w.Limit > 0
}

// Window validates the params and decodes the cursor.
func (p Params) Window() (Window, error) {
	if p.Limit < 0 {
		return Window{}, fmt.Errorf("limit must not be negative")
	}
	after, err := ParseCursor(p.Cursor)
	if err != nil {
		return Window{}, err
	}
	if p.Limit == 0 && after == nil {
		return Window{}, nil
	}
	return Window{Limit: NormalizeLimit(p.Limit), After: after}, nil
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// LimitWithBuffer asks for one row past the page so Trim can tell whether
// another page follows.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// cursorLen is 8 bytes of unix nanoseconds followed by the 16 uuid bytes.
const cursorLen = 8 + 16

// EncodeCursor packs the cursor into an opaque url-safe token.
func EncodeCursor(cursor Cursor) string {
	buf := make([]byte, cursorLen)
	binary.BigEndian.PutUint64(buf[:8], uint64(cursor.At.UnixNano()))
	copy(buf[8:], cursor.ID[:])
	return base64.RawURLEncoding.EncodeToString(buf)
}

// ParseCursor reverses EncodeCursor. A blank token means no cursor.
func ParseCursor(token string) (*Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("cursor is not base64url: %w", err)
	}
	if len(raw) != cursorLen {
		return nil, fmt.Errorf("cursor has %d bytes, want %d", len(raw), cursorLen)
	}
	id, err := uuid.FromBytes(raw[8:])
	if err != nil {
		return nil, fmt.Errorf("cursor id: %w", err)
	}
	at := time.Unix(0, int64(binary.BigEndian.Uint64(raw[:8]))).UTC()
	return &Cursor{At: at, ID: id}, nil
}

// Trim cuts a buffered result to the window and reports whether more rows exist.
func Trim[T any](rows []T, w Window) ([]T, bool) {
	if !w.Bounded() || len(rows) <= w.Limit {
		return rows, false
	}
	return rows[:w.Limit], true
}
