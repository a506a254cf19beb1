package preview

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skinrepair/internal/diff"
	"skinrepair/internal/mathutil"
	"skinrepair/internal/scene"
)

type fixedTexture struct{ img *image.NRGBA }

func (f fixedTexture) Resolve(string) *image.NRGBA { return f.img }

func skeletonTree() *scene.Node {
	root := scene.NewNode("Ref")
	hips := root.CreateChild("Armature").CreateChild("Hips")
	hips.SetLocalPosition(mathutil.Vec3{0, 1, 0})
	spine := hips.CreateChild("Spine")
	spine.SetLocalPosition(mathutil.Vec3{0, 0.5, 0})
	head := spine.CreateChild("Head")
	head.SetLocalPosition(mathutil.Vec3{0, 0.5, 0})
	leg := hips.CreateChild("LegL")
	leg.SetLocalPosition(mathutil.Vec3{0.2, -0.9, 0})

	body := root.CreateChild("Body")
	body.SetLocalPosition(mathutil.Vec3{0.4, 1, 0})
	skin := body.AddSkinnedRenderer()
	skin.Materials = []*scene.Material{nil, {Name: "Skin", Texture: "skin"}}
	return root
}

func countPixels(img *image.NRGBA, match func(c color.NRGBA) bool) int {
	n := 0
	for i := 0; i < len(img.Pix); i += 4 {
		if match(color.NRGBA{img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]}) {
			n++
		}
	}
	return n
}

func isRed(c color.NRGBA) bool   { return c.R > 150 && c.G < 110 && c.B < 110 }
func isGreen(c color.NRGBA) bool { return c.G > 150 && c.R < 80 && c.B < 80 }

func TestRenderHighlightsMissingBones(t *testing.T) {
	root := skeletonTree()
	opts := DefaultOptions()
	opts.Size = 128
	opts.Labels = false

	plain := Render(root, nil, nil, opts)
	assert.Equal(t, image.Rect(0, 0, 128, 128), plain.Bounds())
	assert.Zero(t, countPixels(plain, isRed))

	missing := []*diff.BoneNode{{Name: "Spine", FullPath: "Armature/Hips/Spine",
		Children: []*diff.BoneNode{{Name: "Head", FullPath: "Armature/Hips/Spine/Head"}}}}
	marked := Render(root, Highlight(missing), nil, opts)
	assert.Positive(t, countPixels(marked, isRed))
}

func TestRenderTintsMeshAnchors(t *testing.T) {
	green := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < len(green.Pix); i += 4 {
		copy(green.Pix[i:], []uint8{0, 220, 0, 255})
	}
	opts := DefaultOptions()
	opts.Size = 128

	img := Render(skeletonTree(), nil, fixedTexture{green}, opts)
	assert.Positive(t, countPixels(img, isGreen))
}

func TestRenderDegenerateTree(t *testing.T) {
	img := Render(scene.NewNode("lonely"), nil, nil, Options{Size: 16})
	assert.Equal(t, 16, img.Bounds().Dx())
}

func TestHighlightCollectsNestedPaths(t *testing.T) {
	forest := []*diff.BoneNode{{FullPath: "a", Children: []*diff.BoneNode{{FullPath: "a/b"}}}, {FullPath: "c"}}
	assert.Equal(t, map[string]bool{"a": true, "a/b": true, "c": true}, Highlight(forest, nil))
}

func TestDownsampleKeepsSmallImages(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	assert.Same(t, img, Downsample(img, 16))
	assert.Equal(t, 4, Downsample(img, 4).Bounds().Dx())
}

func TestEncodeFormats(t *testing.T) {
	img := Render(skeletonTree(), nil, nil, Options{Size: 32, Supersample: 1})
	for _, f := range []Format{FormatWebP, FormatTGA, FormatPNG} {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, img, f), f)
		assert.NotZero(t, buf.Len(), f)
	}
	assert.Error(t, Encode(&bytes.Buffer{}, img, "gif"))

	path := filepath.Join(t.TempDir(), "out", "preview.png")
	require.NoError(t, WriteFile(path, img, ""))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(".WEBP")
	require.NoError(t, err)
	assert.Equal(t, FormatWebP, f)
	_, err = ParseFormat("jpg")
	assert.Error(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 2, 2)), FormatPNG))
	_, err = png.Decode(&buf)
	assert.NoError(t, err)
}
