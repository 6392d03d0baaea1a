package geometry

import (
	"encoding/hex"
	"log/slog"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wkbPointHex is a little-endian plain WKB POINT(1 2.5).
const wkbPointHex = "0101000000000000000000f03f0000000000000440"

func TestDecode(t *testing.T) {
	t.Run("empty payload is null", func(t *testing.T) {
		geom, srid, err := Decode("")
		require.NoError(t, err)
		assert.Nil(t, geom)
		assert.Zero(t, srid)
	})

	t.Run("whitespace payload is null", func(t *testing.T) {
		geom, _, err := Decode("   ")
		require.NoError(t, err)
		assert.Nil(t, geom)
	})

	t.Run("plain wkb point", func(t *testing.T) {
		geom, srid, err := Decode(wkbPointHex)
		require.NoError(t, err)
		require.IsType(t, orb.Point{}, geom)
		pt := geom.(orb.Point)
		assert.Equal(t, 1.0, pt.X())
		assert.Equal(t, 2.5, pt.Y())
		assert.Zero(t, srid)
	})

	t.Run("extended wkb carries srid", func(t *testing.T) {
		line := orb.LineString{{-122.6, 45.5}, {-122.5, 45.6}}
		raw, err := ewkb.Marshal(line, 4326)
		require.NoError(t, err)

		geom, srid, err := Decode(hex.EncodeToString(raw))
		require.NoError(t, err)
		assert.Equal(t, 4326, srid)
		require.IsType(t, orb.LineString{}, geom)
		assert.Len(t, geom.(orb.LineString), 2)
	})

	t.Run("invalid hex errors", func(t *testing.T) {
		_, _, err := Decode("zz not hex")
		assert.Error(t, err)
	})

	t.Run("truncated wkb errors", func(t *testing.T) {
		_, _, err := Decode(wkbPointHex[:12])
		assert.Error(t, err)
	})
}

func TestDecodeLenient(t *testing.T) {
	logger := slog.Default()

	geom, ok := DecodeLenient(wkbPointHex, logger)
	assert.True(t, ok)
	assert.NotNil(t, geom)

	geom, ok = DecodeLenient("corrupted", logger)
	assert.False(t, ok)
	assert.Nil(t, geom)

	// Null input is not a degradation.
	geom, ok = DecodeLenient("", logger)
	assert.True(t, ok)
	assert.Nil(t, geom)
}

func TestSRID(t *testing.T) {
	t.Run("plain wkb has none", func(t *testing.T) {
		_, ok := SRID(wkbPointHex)
		assert.False(t, ok)
	})

	t.Run("extended wkb reports embedded srid", func(t *testing.T) {
		raw, err := ewkb.Marshal(orb.Point{-122.6, 45.5}, 3857)
		require.NoError(t, err)

		srid, ok := SRID(hex.EncodeToString(raw))
		assert.True(t, ok)
		assert.Equal(t, 3857, srid)
	})

	t.Run("garbage input reports none", func(t *testing.T) {
		_, ok := SRID("nope")
		assert.False(t, ok)
		_, ok = SRID("01")
		assert.False(t, ok)
	})
}
