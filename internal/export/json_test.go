package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/piwi3910/AtlasPack/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON_HashFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, buildTestAtlas()))

	var doc jsonAtlas
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "hero.png", doc.Meta.Image)
	assert.Equal(t, jsonSize{W: 20, H: 18}, doc.Meta.Size)
	require.Len(t, doc.Frames, 3)

	idle := doc.Frames["idle0000"]
	assert.Equal(t, jsonRect{X: 0, Y: 8, W: 10, H: 10}, idle.Frame)
	assert.True(t, idle.Trimmed)
	assert.False(t, idle.Rotated)
	assert.Equal(t, jsonRect{X: 3, Y: 1, W: 10, H: 10}, idle.SpriteSourceSize)
	assert.Equal(t, jsonSize{W: 16, H: 12}, idle.SourceSize)
}

func TestWriteJSON_Untracked(t *testing.T) {
	atlas := model.TextureAtlas{
		ImagePath:   "a.png",
		Width:       3,
		Height:      4,
		SubTextures: []model.SubTexture{{Name: "a0000", Width: 3, Height: 4}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, atlas))

	var doc jsonAtlas
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	f := doc.Frames["a0000"]
	assert.False(t, f.Trimmed)
	assert.Equal(t, jsonSize{W: 3, H: 4}, f.SourceSize)
}
