// Package preview draws a reference skeleton as a flat image with the bones a
// damaged model is missing highlighted.
package preview

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"skinrepair/internal/diff"
	"skinrepair/internal/hierarchy"
	"skinrepair/internal/mathutil"
	"skinrepair/internal/scene"
	"skinrepair/internal/skeleton"
	"skinrepair/internal/texture"
)

// Options control the output image.
type Options struct {
	Size        int
	Supersample int
	// Labels draws the names of highlighted nodes.
	Labels     bool
	Background color.NRGBA
}

// DefaultOptions returns a 512px, 2x supersampled preview.
func DefaultOptions() Options {
	return Options{Size: 512, Supersample: 2, Labels: true, Background: color.NRGBA{24, 26, 32, 255}}
}

var (
	boneColor    = color.NRGBA{150, 170, 200, 255}
	missingColor = color.NRGBA{230, 60, 50, 255}
	labelColor   = color.NRGBA{250, 235, 200, 255}
)

// Highlight collects the paths of every entry in the given forests.
func Highlight(forests ...[]*diff.BoneNode) map[string]bool {
	set := make(map[string]bool)
	for _, f := range forests {
		diff.Walk(f, func(n *diff.BoneNode, _ int) {
			set[n.FullPath] = true
		})
	}
	return set
}

type projected struct {
	node *scene.Node
	path string
	x, y float64
}

// Render draws root's hierarchy: bone links as lines, mesh objects as
// diamonds tinted with their first material's average texture colour.
// Nodes whose path is in highlight are drawn in red. tex may be nil.
func Render(root *scene.Node, highlight map[string]bool, tex texture.Resolver, opts Options) *image.NRGBA {
	if opts.Size <= 0 {
		opts.Size = DefaultOptions().Size
	}
	if opts.Supersample < 1 {
		opts.Supersample = 1
	}
	size := opts.Size * opts.Supersample

	worlds := skeleton.BuildWorldMatrices(root)
	points := project(root, worlds, size)

	canvas := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)

	width := float32(math.Max(1.5, float64(size)/256))
	normal := vector.NewRasterizer(size, size)
	missing := vector.NewRasterizer(size, size)
	for _, seg := range skeleton.Segments(root, worlds) {
		if seg.Child.HasRenderer() {
			continue
		}
		from, to := points[seg.Parent], points[seg.Child]
		z := normal
		if highlight[to.path] {
			z = missing
		}
		strokeLine(z, from.x, from.y, to.x, to.y, width)
	}
	normal.Draw(canvas, canvas.Bounds(), image.NewUniform(boneColor), image.Point{})
	missing.Draw(canvas, canvas.Bounds(), image.NewUniform(missingColor), image.Point{})

	anchor := float64(width) * 3
	for _, p := range points {
		if !p.node.HasRenderer() {
			continue
		}
		z := vector.NewRasterizer(size, size)
		diamond(z, p.x, p.y, anchor)
		z.Draw(canvas, canvas.Bounds(), image.NewUniform(meshColor(p.node, tex)), image.Point{})
		if highlight[p.path] {
			outline := vector.NewRasterizer(size, size)
			diamondOutline(outline, p.x, p.y, anchor, width)
			outline.Draw(canvas, canvas.Bounds(), image.NewUniform(missingColor), image.Point{})
		}
	}

	out := Downsample(canvas, opts.Size)
	if opts.Labels {
		scale := float64(opts.Size) / float64(size)
		for _, p := range points {
			if highlight[p.path] {
				label(out, p.node.Name(), p.x*scale+4, p.y*scale-4)
			}
		}
	}
	return out
}

// project maps every node to canvas pixels through the fixed preview view,
// fitting the hierarchy's extent with a margin.
func project(root *scene.Node, worlds map[*scene.Node]mathutil.Mat4, size int) map[*scene.Node]projected {
	points := make(map[*scene.Node]projected, len(worlds))
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	root.Walk(func(n *scene.Node) bool {
		v := mathutil.PreviewView.MulVec3(worlds[n].Translation())
		path, _ := hierarchy.RelativePath(n, root)
		p := projected{node: n, path: path, x: v[0], y: -v[1]}
		points[n] = p
		minX, maxX = math.Min(minX, p.x), math.Max(maxX, p.x)
		minY, maxY = math.Min(minY, p.y), math.Max(maxY, p.y)
		return true
	})

	extent := math.Max(maxX-minX, maxY-minY)
	if extent < 1e-9 {
		extent = 1
	}
	margin := 0.1 * float64(size)
	scale := (float64(size) - 2*margin) / extent
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	half := float64(size) / 2
	for n, p := range points {
		p.x = half + (p.x-cx)*scale
		p.y = half + (p.y-cy)*scale
		points[n] = p
	}
	return points
}

func meshColor(n *scene.Node, tex texture.Resolver) color.NRGBA {
	var mats []*scene.Material
	if s := n.SkinnedRenderer(); s != nil {
		mats = s.Materials
	} else if r := n.Renderer(); r != nil {
		mats = r.Materials
	}
	for _, m := range mats {
		if m != nil {
			return texture.MaterialColor(tex, m)
		}
	}
	return texture.Fallback
}

// strokeLine adds a w-wide quad from (x0,y0) to (x1,y1).
func strokeLine(z *vector.Rasterizer, x0, y0, x1, y1 float64, w float32) {
	dx, dy := x1-x0, y1-y0
	l := math.Hypot(dx, dy)
	if l < 1e-6 {
		return
	}
	nx, ny := -dy/l*float64(w)/2, dx/l*float64(w)/2
	z.MoveTo(float32(x0+nx), float32(y0+ny))
	z.LineTo(float32(x1+nx), float32(y1+ny))
	z.LineTo(float32(x1-nx), float32(y1-ny))
	z.LineTo(float32(x0-nx), float32(y0-ny))
	z.ClosePath()
}

func diamond(z *vector.Rasterizer, x, y, r float64) {
	z.MoveTo(float32(x), float32(y-r))
	z.LineTo(float32(x+r), float32(y))
	z.LineTo(float32(x), float32(y+r))
	z.LineTo(float32(x-r), float32(y))
	z.ClosePath()
}

func diamondOutline(z *vector.Rasterizer, x, y, r float64, w float32) {
	pts := [][2]float64{{x, y - r}, {x + r, y}, {x, y + r}, {x - r, y}}
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		strokeLine(z, a[0], a[1], b[0], b[1], w)
	}
}

func label(img *image.NRGBA, text string, x, y float64) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(labelColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(int(x), int(y)),
	}
	d.DrawString(text)
}
