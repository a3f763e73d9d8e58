package exports

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	"peoplenet/pkg/domain"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ContentType returns the MIME type stored with an artifact.
func ContentType(f Format) string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv"
	case FormatDOT:
		return "text/vnd.graphviz"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// Render encodes a projection in the requested format.
func Render(f Format, n domain.Network) ([]byte, error) {
	switch f {
	case FormatJSON:
		return json.Marshal(n)
	case FormatCSV:
		return renderCSV(n)
	case FormatDOT:
		return renderDOT(n), nil
	case FormatPNG:
		return renderPNG(n)
	case FormatPDF:
		img, err := renderPNG(n)
		if err != nil {
			return nil, err
		}
		return renderPDF(img)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

func labels(n domain.Network) map[int64]string {
	out := make(map[int64]string, len(n.Nodes))
	for _, node := range n.Nodes {
		out[node.ID] = node.Label
	}
	return out
}

// renderCSV writes the edge list, one row per relationship.
func renderCSV(n domain.Network) ([]byte, error) {
	names := labels(n)
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write([]string{"from_id", "from_name", "to_id", "to_name", "relationship_type"}); err != nil {
		return nil, err
	}
	for _, e := range n.Edges {
		row := []string{
			strconv.FormatInt(e.From, 10), names[e.From],
			strconv.FormatInt(e.To, 10), names[e.To],
			e.Label,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func dotQuote(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}

func renderDOT(n domain.Network) []byte {
	var b strings.Builder
	b.WriteString("digraph network {\n")
	b.WriteString("  node [shape=ellipse, style=filled];\n")
	for _, node := range n.Nodes {
		shape := "ellipse"
		if node.Shape == domain.CenterShape {
			shape = "doublecircle"
		}
		c := groupColor(node.Group)
		fmt.Fprintf(&b, "  %d [label=%s, group=%s, shape=%s, fillcolor=\"#%02x%02x%02x\"];\n",
			node.ID, dotQuote(node.Label), dotQuote(node.Group), shape, c.R, c.G, c.B)
	}
	for _, e := range n.Edges {
		fmt.Fprintf(&b, "  %d -> %d [label=%s];\n", e.From, e.To, dotQuote(e.Label))
	}
	b.WriteString("}\n")
	return []byte(b.String())
}

const (
	canvasSize  = 800
	layoutRing  = 280
	nodeRadius  = 26
	labelOffset = nodeRadius + 14
)

var groupPalette = map[string]color.RGBA{
	"family":    {R: 231, G: 76, B: 60, A: 255},
	"friend":    {R: 46, G: 204, B: 113, A: 255},
	"colleague": {R: 52, G: 152, B: 219, A: 255},
	"other":     {R: 149, G: 165, B: 166, A: 255},
}

// groupColor picks a palette entry for known groups and derives a stable
// color from the name otherwise.
func groupColor(group string) color.RGBA {
	if c, ok := groupPalette[group]; ok {
		return c
	}
	var h uint32 = 2166136261
	for i := 0; i < len(group); i++ {
		h ^= uint32(group[i])
		h *= 16777619
	}
	return color.RGBA{R: uint8(64 + h%160), G: uint8(64 + (h>>8)%160), B: uint8(64 + (h>>16)%160), A: 255}
}

// layout places the center in the middle and neighbours evenly on a ring.
func layout(n domain.Network) map[int64]image.Point {
	pos := make(map[int64]image.Point, len(n.Nodes))
	mid := canvasSize / 2
	if len(n.Nodes) == 0 {
		return pos
	}
	pos[n.Nodes[0].ID] = image.Pt(mid, mid)
	ring := n.Nodes[1:]
	for i, node := range ring {
		angle := 2*math.Pi*float64(i)/float64(len(ring)) - math.Pi/2
		x := mid + int(math.Round(layoutRing*math.Cos(angle)))
		y := mid + int(math.Round(layoutRing*math.Sin(angle)))
		pos[node.ID] = image.Pt(x, y)
	}
	return pos
}

func renderPNG(n domain.Network) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, canvasSize, canvasSize))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)

	pos := layout(n)
	edgeColor := color.RGBA{R: 90, G: 90, B: 90, A: 255}
	for _, e := range n.Edges {
		from, okFrom := pos[e.From]
		to, okTo := pos[e.To]
		if !okFrom || !okTo {
			continue
		}
		drawLine(img, from, to, edgeColor)
		// arrow tip sits on the rim of the target node
		tip := towards(to, from, nodeRadius+4)
		fillCircle(img, tip, 5, edgeColor)
		mid := image.Pt((from.X+to.X)/2, (from.Y+to.Y)/2)
		drawLabel(img, mid, e.Label, edgeColor)
	}
	for _, node := range n.Nodes {
		p := pos[node.ID]
		r := nodeRadius
		if node.Shape == domain.CenterShape {
			r += 8
			fillCircle(img, p, r+3, color.RGBA{A: 255})
		}
		fillCircle(img, p, r, groupColor(node.Group))
		drawLabel(img, image.Pt(p.X, p.Y+labelOffset+(r-nodeRadius)), node.Label, color.RGBA{A: 255})
	}

	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func towards(from, to image.Point, dist int) image.Point {
	dx := float64(to.X - from.X)
	dy := float64(to.Y - from.Y)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return from
	}
	f := float64(dist) / length
	return image.Pt(from.X+int(math.Round(dx*f)), from.Y+int(math.Round(dy*f)))
}

func drawLine(img *image.RGBA, a, b image.Point, c color.RGBA) {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	steps := int(math.Max(math.Abs(dx), math.Abs(dy)))
	if steps == 0 {
		img.SetRGBA(a.X, a.Y, c)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := a.X + int(math.Round(dx*t))
		y := a.Y + int(math.Round(dy*t))
		img.SetRGBA(x, y, c)
		img.SetRGBA(x+1, y, c)
	}
}

func fillCircle(img *image.RGBA, center image.Point, r int, c color.RGBA) {
	for y := -r; y <= r; y++ {
		for x := -r; x <= r; x++ {
			if x*x+y*y <= r*r {
				img.SetRGBA(center.X+x, center.Y+y, c)
			}
		}
	}
}

// drawLabel centers text horizontally on at.
func drawLabel(img *image.RGBA, at image.Point, text string, c color.RGBA) {
	if text == "" {
		return
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
	}
	width := d.MeasureString(text)
	d.Dot = fixed.Point26_6{
		X: fixed.I(at.X) - width/2,
		Y: fixed.I(at.Y),
	}
	d.DrawString(text)
}

var pdfConfigOnce sync.Once

// renderPDF wraps a PNG into a single page document.
func renderPDF(pngData []byte) ([]byte, error) {
	pdfConfigOnce.Do(func() {
		// keep pdfcpu from writing a config directory under $HOME
		model.ConfigPath = "disable"
	})
	conf := model.NewDefaultConfiguration()
	imp := pdfcpu.DefaultImportConfig()
	out := &bytes.Buffer{}
	if err := api.ImportImages(nil, out, []io.Reader{bytes.NewReader(pngData)}, imp, conf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return out.Bytes(), nil
}
