package directory

import (
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/go-objectsid"
	"github.com/google/uuid"
)

// Entry is the canonical attribute mapping of a directory record:
// attribute name to a scalar string, a []string for attributes in the
// multi-valued set, or nil for an attribute that is absent or empty.
type Entry map[string]any

// multiValuedAttributes is the declared set of attributes rendered as the
// full ordered value sequence instead of just the first value. Lookup is
// case-insensitive; keys here are lower-cased.
var multiValuedAttributes = map[string]bool{
	"objectclass":    true,
	"memberof":       true,
	"member":         true,
	"postofficebox":  true,
	"othermailbox":   true,
	"proxyaddresses": true,
}

// NormalizeEntry converts a raw directory record into its canonical form.
//
// Attributes in the multi-valued set keep all values in order; all others
// collapse to their first value. Binary values are best-effort decoded to
// text, discarding undecodable byte sequences rather than failing, except
// objectSid and objectGUID which get their structured renderings. The
// distinguished name is always present as the string "dn". When attrs is
// non-empty, every requested attribute appears in the result, as nil when
// the record does not carry it.
func NormalizeEntry(rec RawRecord, attrs []string) Entry {
	entry := make(Entry, len(rec.Attributes)+1)

	for _, name := range attrs {
		if !strings.EqualFold(name, "dn") {
			entry[name] = nil
		}
	}

	for name, values := range rec.Attributes {
		entry[name] = normalizeValues(name, values)
	}

	entry["dn"] = rec.DN
	if _, ok := entry["distinguishedName"]; ok {
		entry["distinguishedName"] = rec.DN
	}

	return entry
}

// normalizeValues renders one attribute's raw values per the
// classification table.
func normalizeValues(name string, values [][]byte) any {
	if len(values) == 0 {
		return nil
	}

	if multiValuedAttributes[strings.ToLower(name)] {
		out := make([]string, 0, len(values))
		for _, v := range values {
			out = append(out, decodeText(v))
		}
		return out
	}

	switch strings.ToLower(name) {
	case "objectsid":
		return decodeSID(values[0])
	case "objectguid":
		return decodeGUID(values[0])
	default:
		return decodeText(values[0])
	}
}

// decodeText decodes a possibly-binary value as text, dropping invalid
// UTF-8 sequences. Never fails.
func decodeText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "")
}

// decodeSID renders a binary security identifier as its S-1-… string
// form, falling back to plain text decoding when the value is not a
// parseable SID.
func decodeSID(b []byte) (s string) {
	if len(b) < 8 {
		return decodeText(b)
	}
	// objectsid.Decode panics on truncated input; malformed SIDs must not
	// fail normalization.
	defer func() {
		if recover() != nil {
			s = decodeText(b)
		}
	}()
	return objectsid.Decode(b).String()
}

// decodeGUID renders a binary objectGUID in canonical UUID form. Active
// Directory stores the first three fields little-endian, so the bytes are
// reordered before formatting.
func decodeGUID(b []byte) string {
	if len(b) != 16 {
		return hex.EncodeToString(b)
	}

	reordered := []byte{
		b[3], b[2], b[1], b[0],
		b[5], b[4],
		b[7], b[6],
		b[8], b[9], b[10], b[11], b[12], b[13], b[14], b[15],
	}
	id, err := uuid.FromBytes(reordered)
	if err != nil {
		return hex.EncodeToString(b)
	}
	return id.String()
}
