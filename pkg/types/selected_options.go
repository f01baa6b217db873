package types

import (
	"crypto/sha256"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// SelectedOptions maps an option group name to the variation names the
// customer picked from it, persisted as JSONB.
type SelectedOptions map[string][]string

// Value serializes the selection to JSON.
func (s SelectedOptions) Value() (driver.Value, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s)
}

// Scan decodes JSONB into the selection map.
func (s *SelectedOptions) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	decoded := make(SelectedOptions)
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*s = decoded
	return nil
}

// Normalize returns a copy with empty groups dropped and variation names
// sorted, so equivalent selections compare and hash identically.
func (s SelectedOptions) Normalize() SelectedOptions {
	if len(s) == 0 {
		return SelectedOptions{}
	}
	out := make(SelectedOptions, len(s))
	for group, variations := range s {
		if len(variations) == 0 {
			continue
		}
		sorted := make([]string, len(variations))
		copy(sorted, variations)
		sort.Strings(sorted)
		out[group] = sorted
	}
	return out
}

// Fingerprint derives a stable line identity from the product and the
// normalized selection. Two lines with the same fingerprint are the same
// cart line.
func (s SelectedOptions) Fingerprint(productID uuid.UUID) string {
	normalized := s.Normalize()

	groups := make([]string, 0, len(normalized))
	for group := range normalized {
		groups = append(groups, group)
	}
	sort.Strings(groups)

	var builder strings.Builder
	builder.WriteString(productID.String())
	for _, group := range groups {
		builder.WriteString("\x1f")
		builder.WriteString(group)
		builder.WriteString("=")
		builder.WriteString(strings.Join(normalized[group], "\x1e"))
	}

	sum := sha256.Sum256([]byte(builder.String()))
	return hex.EncodeToString(sum[:])
}

// Clone returns a deep copy of the selection.
func (s SelectedOptions) Clone() SelectedOptions {
	if s == nil {
		return nil
	}
	out := make(SelectedOptions, len(s))
	for group, variations := range s {
		copied := make([]string, len(variations))
		copy(copied, variations)
		out[group] = copied
	}
	return out
}

func asJSON(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported scan type %T", value)
	}
}
