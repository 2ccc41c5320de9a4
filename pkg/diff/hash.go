package diff

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/tessera-ui/tessera/pkg/element"
)

// hasher accumulates property bytes in a fixed order before hashing.
type hasher struct {
	d xxhash.Digest
}

func newHasher() *hasher {
	h := &hasher{}
	h.d.Reset()
	return h
}

func (h *hasher) u8(v uint8) {
	h.d.Write([]byte{v})
}

func (h *hasher) u64(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	h.d.Write(buf[:])
}

func (h *hasher) f32(v float32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
	h.d.Write(buf[:])
}

func (h *hasher) bool(v bool) {
	if v {
		h.u8(1)
	} else {
		h.u8(0)
	}
}

func (h *hasher) str(s string) {
	h.u64(uint64(len(s)))
	h.d.WriteString(s)
}

func (h *hasher) dimension(d element.Dimension) {
	h.f32(d.Value)
	h.bool(d.Percent)
	h.bool(d.Auto)
}

func (h *hasher) insets(e element.EdgeInsets) {
	h.f32(e.Top)
	h.f32(e.Right)
	h.f32(e.Bottom)
	h.f32(e.Left)
}

func (h *hasher) color(c element.Color) {
	h.f32(c.R)
	h.f32(c.G)
	h.f32(c.B)
	h.f32(c.A)
}

func (h *hasher) layout(p element.LayoutProps) {
	h.dimension(p.Width)
	h.dimension(p.Height)
	h.dimension(p.MinWidth)
	h.dimension(p.MinHeight)
	h.dimension(p.MaxWidth)
	h.dimension(p.MaxHeight)
	h.insets(p.Padding)
	h.insets(p.Margin)
	h.u8(uint8(p.Direction))
	h.f32(p.Grow)
	h.f32(p.Shrink)
	h.dimension(p.Basis)
	h.f32(p.Gap)
	h.u8(uint8(p.AlignMain))
	h.u8(uint8(p.AlignCross))
	h.u8(uint8(p.Position))
	h.insets(p.Inset)
}

func (h *hasher) visual(p element.VisualProps) {
	h.color(p.Background)
	h.color(p.BorderColor)
	h.f32(p.BorderWidth)
	h.f32(p.CornerRadius)
	h.f32(p.Opacity)
	if p.Shadow != nil {
		h.u8(1)
		h.color(p.Shadow.Color)
		h.f32(p.Shadow.OffsetX)
		h.f32(p.Shadow.OffsetY)
		h.f32(p.Shadow.Blur)
		h.f32(p.Shadow.Spread)
	} else {
		h.u8(0)
	}
	if p.Transform != nil {
		h.u8(1)
		h.f32(p.Transform.TranslateX)
		h.f32(p.Transform.TranslateY)
		h.f32(p.Transform.ScaleX)
		h.f32(p.Transform.ScaleY)
		h.f32(p.Transform.Rotate)
	} else {
		h.u8(0)
	}
	h.bool(p.Clip)
}

func (h *hasher) handlers(handlers []element.Handler) {
	h.u64(uint64(len(handlers)))
	for _, hd := range handlers {
		h.str(hd.Kind)
		h.u64(hd.ID)
	}
}

func (h *hasher) sum() uint64 {
	return h.d.Sum64()
}

// OwnHash hashes an element's layout, visual and handler properties in
// a fixed order. Children and Key are excluded, so an element keeps its
// own hash while its subtree changes underneath it.
func OwnHash(def *element.Def) uint64 {
	h := newHasher()
	h.layout(def.Layout)
	h.visual(def.Visual)
	h.handlers(def.Handlers)
	h.bool(def.LayoutBoundary)
	return h.sum()
}

// SubtreeHash folds an element's own hash with the ordered subtree
// hashes of its children. Equal subtree hashes mean two definitions
// need no diffing at all, collisions aside.
func SubtreeHash(def *element.Def) uint64 {
	h := newHasher()
	h.u64(OwnHash(def))
	h.u64(uint64(len(def.Children)))
	for i := range def.Children {
		h.u64(SubtreeHash(&def.Children[i]))
	}
	return h.sum()
}
