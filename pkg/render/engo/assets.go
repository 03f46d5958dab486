// pkg/render/engo/assets.go
package engo

import (
	"image"
	"image/color"

	"github.com/EngoEngine/engo/common"
)

// MinSpriteSize keeps zero-radius bodies visible
const MinSpriteSize = 2

// AssetManager builds disc textures on demand, one per radius. Textures
// are white and tinted per body through the render component colour.
type AssetManager struct {
	discs      map[int]common.Drawable
	newTexture func(img *image.NRGBA) common.Drawable
}

// NewAssetManager creates an asset manager uploading textures to the GPU.
// It must only be used once the engo window exists.
func NewAssetManager() *AssetManager {
	return newAssetManager(textureFromImage)
}

func newAssetManager(newTexture func(img *image.NRGBA) common.Drawable) *AssetManager {
	return &AssetManager{
		discs:      make(map[int]common.Drawable),
		newTexture: newTexture,
	}
}

// Disc returns the texture for a body of the given radius
func (am *AssetManager) Disc(radius int) common.Drawable {
	if d, ok := am.discs[radius]; ok {
		return d
	}
	d := am.newTexture(DiscImage(radius))
	am.discs[radius] = d
	return d
}

// Len returns the number of cached textures
func (am *AssetManager) Len() int {
	return len(am.discs)
}

// SpriteSize returns the side of the square a body of the given radius
// is drawn in.
func SpriteSize(radius int) int {
	return max(2*radius, MinSpriteSize)
}

// DiscImage draws an opaque white disc on a transparent square of side
// SpriteSize(radius). A pixel is set when its centre lies inside the disc.
func DiscImage(radius int) *image.NRGBA {
	size := SpriteSize(radius)
	img := image.NewNRGBA(image.Rect(0, 0, size, size))

	r := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) + 0.5 - r
			dy := float64(y) + 0.5 - r
			if dx*dx+dy*dy <= r*r {
				img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
			}
		}
	}
	return img
}

func textureFromImage(img *image.NRGBA) common.Drawable {
	return common.NewTextureSingle(common.NewImageObject(img))
}
