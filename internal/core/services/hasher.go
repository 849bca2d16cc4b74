package services

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/custodia-labs/notewatch/internal/core/domain"
)

// Domain prefixes for hashed identities. The version suffix allows a future
// change of canonical form without colliding with stored hashes.
const (
	domainValue = "notewatch/value/v1"
	domainInput = "notewatch/input/v1"
)

// EmptyHash is the hash of an absent, null or empty-string value.
var EmptyHash = HashValue(nil)

// HashValue returns a stable hash of a field value for equality testing.
// Equal logical values hash equal across runs and restarts: nil and ""
// collapse to the same sentinel, lists are compared without regard to
// order, maps by sorted keys, strings after NFC normalisation.
func HashValue(v any) string {
	return hashWithDomain(domainValue, []byte(Canonical(v)))
}

// InputHash computes the idempotency key of a dispatch. Hashing the value
// hashes instead of the raw values keeps the key computable for
// cold-start changes whose old value is only known by hash.
func InputHash(workflowName, path, field, oldHash, newHash string) string {
	c := Canonical(map[string]any{
		"workflow": workflowName,
		"path":     path,
		"field":    field,
		"old_hash": oldHash,
		"new_hash": newHash,
	})
	return hashWithDomain(domainInput, []byte(c))
}

// Canonical returns the canonical JSON text of a value.
// The output is valid JSON for every finite value and is what the event
// log stores as the raw value of a change.
func Canonical(v any) string {
	var buf bytes.Buffer
	writeCanonical(&buf, v)
	return buf.String()
}

// IsEmpty reports whether a value normalises to the empty sentinel.
func IsEmpty(v any) bool {
	return HashValue(v) == EmptyHash
}

// hashWithDomain computes SHA-256 over domain, a 0x00 separator and data.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

func writeCanonical(buf *bytes.Buffer, v any) {
	switch val := v.(type) {
	case nil:
		writeCanonicalString(buf, "")
	case string:
		writeCanonicalString(buf, val)
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int8:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int16:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int32:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case uint:
		buf.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint8:
		buf.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint16:
		buf.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint32:
		buf.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(val, 10))
	case float32:
		buf.WriteString(strconv.FormatFloat(float64(val), 'g', -1, 32))
	case float64:
		buf.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
	case time.Time:
		writeCanonicalString(buf, val.UTC().Format(time.RFC3339Nano))
	case []string:
		items := make([]any, len(val))
		for i, s := range val {
			items[i] = s
		}
		writeCanonicalList(buf, items)
	case []any:
		writeCanonicalList(buf, val)
	case domain.FieldMap:
		writeCanonicalMap(buf, val)
	case map[string]any:
		writeCanonicalMap(buf, val)
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, e := range val {
			m[fmt.Sprint(k)] = e
		}
		writeCanonicalMap(buf, m)
	default:
		writeCanonicalString(buf, fmt.Sprint(val))
	}
}

// writeCanonicalString writes an NFC-normalised JSON string without HTML escaping.
func writeCanonicalString(buf *bytes.Buffer, s string) {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(norm.NFC.String(s))
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
}

// writeCanonicalList writes list elements sorted by their own canonical form.
func writeCanonicalList(buf *bytes.Buffer, items []any) {
	encoded := make([]string, len(items))
	for i, item := range items {
		encoded[i] = Canonical(item)
	}
	sort.Strings(encoded)

	buf.WriteByte('[')
	buf.WriteString(strings.Join(encoded, ","))
	buf.WriteByte(']')
}

func writeCanonicalMap(buf *bytes.Buffer, m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeCanonicalString(buf, k)
		buf.WriteByte(':')
		writeCanonical(buf, m[k])
	}
	buf.WriteByte('}')
}
