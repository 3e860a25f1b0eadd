package metadata

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractWithoutExif(t *testing.T) {
	assert.Nil(t, Extract(nil))

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	assert.Nil(t, Extract(buf.Bytes()))
}

func TestCamera(t *testing.T) {
	tests := []struct {
		meta *Metadata
		want string
	}{
		{nil, ""},
		{&Metadata{Make: "Canon", Model: "Canon EOS R5"}, "Canon EOS R5"},
		{&Metadata{Make: "Apple", Model: "iPhone 15"}, "Apple iPhone 15"},
		{&Metadata{Make: "FUJIFILM"}, "FUJIFILM"},
		{&Metadata{Model: "X100V"}, "X100V"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.meta.Camera())
	}
}

func TestRotated(t *testing.T) {
	assert.False(t, (*Metadata)(nil).Rotated())
	assert.False(t, (&Metadata{Orientation: 1}).Rotated())
	assert.True(t, (&Metadata{Orientation: 6}).Rotated())
}

func TestTagConversions(t *testing.T) {
	v, ok := tagInt(uint16(6))
	assert.True(t, ok)
	assert.Equal(t, 6, v)
	_, ok = tagInt("6")
	assert.False(t, ok)

	assert.Equal(t, "Canon", tagString("Canon\x00"))
	assert.Equal(t, "a", tagString([]string{"a", "b"}))
	assert.Equal(t, "", tagString(42))
}
