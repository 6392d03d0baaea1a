// Package geometry decodes the hex-encoded well-known-binary payloads the
// station metadata carries. Payloads may use the extended WKB variant that
// embeds a spatial-reference-system identifier in the high bit of the type
// flag; both plain and extended encodings are accepted.
package geometry

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"
)

// ewkbSRIDFlag marks the type word of an extended WKB payload that carries
// an SRID.
const ewkbSRIDFlag = 0x20000000

// Decode parses a hex-encoded (E)WKB payload into a geometry and its
// embedded SRID (0 when the payload is plain WKB). An empty or
// whitespace-only payload is an explicit null: it returns a nil geometry and
// no error.
func Decode(payload string) (orb.Geometry, int, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, 0, nil
	}

	raw, err := hex.DecodeString(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("decode geometry hex: %w", err)
	}

	geom, srid, err := ewkb.Unmarshal(raw)
	if err != nil {
		return nil, 0, fmt.Errorf("unmarshal wkb geometry: %w", err)
	}
	return geom, srid, nil
}

// DecodeLenient is the batch-mapping form of Decode: malformed payloads
// degrade to a nil geometry with the cause logged, never an error. Callers
// count degradations via their own metrics.
func DecodeLenient(payload string, logger *slog.Logger) (orb.Geometry, bool) {
	geom, _, err := Decode(payload)
	if err != nil {
		logger.Warn("geometry decode failed, using null", "error", err)
		return nil, false
	}
	return geom, true
}

// SRID inspects a hex payload and reports the embedded spatial-reference
// identifier, when present. It reads only the header bytes and is meant for
// diagnostics; correctness of decoding does not depend on it.
func SRID(payload string) (int, bool) {
	raw, err := hex.DecodeString(strings.TrimSpace(payload))
	if err != nil || len(raw) < 9 {
		return 0, false
	}

	var order binary.ByteOrder = binary.LittleEndian
	if raw[0] == 0 {
		order = binary.BigEndian
	}
	if order.Uint32(raw[1:5])&ewkbSRIDFlag == 0 {
		return 0, false
	}
	// The SRID follows the type word.
	return int(order.Uint32(raw[5:9])), true
}
