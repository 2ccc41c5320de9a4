package element

// Direction selects the main axis for child layout.
type Direction uint8

const (
	Row Direction = iota
	Column
)

// Align positions children on an axis.
type Align uint8

const (
	AlignStart Align = iota
	AlignCenter
	AlignEnd
	AlignStretch
	AlignSpaceBetween
	AlignSpaceAround
)

// Position selects normal-flow or absolute placement.
type Position uint8

const (
	PositionRelative Position = iota
	PositionAbsolute
)

// Dimension is one sizing constraint. Auto dimensions leave sizing to
// the layout engine.
type Dimension struct {
	Value   float32
	Percent bool
	Auto    bool
}

// Px is a fixed pixel dimension.
func Px(v float32) Dimension { return Dimension{Value: v} }

// Pct is a percentage-of-parent dimension.
func Pct(v float32) Dimension { return Dimension{Value: v, Percent: true} }

// Auto is an unconstrained dimension.
func Auto() Dimension { return Dimension{Auto: true} }

// EdgeInsets holds per-side spacing for padding, margin and inset.
type EdgeInsets struct {
	Top    float32
	Right  float32
	Bottom float32
	Left   float32
}

// Uniform builds equal insets on all sides.
func Uniform(v float32) EdgeInsets {
	return EdgeInsets{Top: v, Right: v, Bottom: v, Left: v}
}

// LayoutProps are the properties that feed the layout pass. Changing
// any of them invalidates layout for the element and its ancestors up
// to the nearest layout boundary.
type LayoutProps struct {
	Width      Dimension
	Height     Dimension
	MinWidth   Dimension
	MinHeight  Dimension
	MaxWidth   Dimension
	MaxHeight  Dimension
	Padding    EdgeInsets
	Margin     EdgeInsets
	Direction  Direction
	Grow       float32
	Shrink     float32
	Basis      Dimension
	Gap        float32
	AlignMain  Align
	AlignCross Align
	Position   Position
	Inset      EdgeInsets
}

// Color is a straight-alpha RGBA value.
type Color struct {
	R, G, B, A float32
}

// RGBA builds a color from channel values in [0,1].
func RGBA(r, g, b, a float32) Color { return Color{R: r, G: g, B: b, A: a} }

// RGB builds an opaque color.
func RGB(r, g, b float32) Color { return Color{R: r, G: g, B: b, A: 1} }

// Shadow describes one drop shadow.
type Shadow struct {
	Color   Color
	OffsetX float32
	OffsetY float32
	Blur    float32
	Spread  float32
}

// Transform is a 2D affine transform applied at paint time. It never
// affects layout.
type Transform struct {
	TranslateX float32
	TranslateY float32
	ScaleX     float32
	ScaleY     float32
	Rotate     float32 // radians
}

// Identity is the no-op transform.
func Identity() Transform { return Transform{ScaleX: 1, ScaleY: 1} }

// VisualProps are paint-only properties. Changing them repaints the
// element without a layout pass.
type VisualProps struct {
	Background   Color
	BorderColor  Color
	BorderWidth  float32
	CornerRadius float32
	Opacity      float32
	Shadow       *Shadow
	Transform    *Transform
	Clip         bool
}

// HandlerFunc is an event callback attached to an element. Functions
// are not comparable, so diffing relies on Handler.ID when present.
type HandlerFunc func(data any)

// Handler attaches a callback for one event kind. ID is an optional
// stable identity: diffing compares handlers by (Kind, ID), so equal
// IDs under the same kind read as unchanged even when the callbacks
// differ. That includes the zero ID; assign distinct IDs to make a
// callback swap detectable.
type Handler struct {
	Kind string
	ID   uint64
	Fn   HandlerFunc
}

// Def is one element's content description.
type Def struct {
	Key      string // optional stable identity, excluded from hashing
	Layout   LayoutProps
	Visual   VisualProps
	Handlers []Handler
	Children []Def

	// LayoutBoundary caps layout invalidation: dirtiness below this
	// element does not propagate past it.
	LayoutBoundary bool
}

// New returns a Def with sane visual defaults (full opacity).
func New() Def {
	return Def{Visual: VisualProps{Opacity: 1}}
}

// WithKey sets the stable identity.
func (d Def) WithKey(key string) Def {
	d.Key = key
	return d
}

// WithChildren replaces the child list.
func (d Def) WithChildren(children ...Def) Def {
	d.Children = children
	return d
}

// WithHandler appends a handler.
func (d Def) WithHandler(h Handler) Def {
	d.Handlers = append(d.Handlers, h)
	return d
}

// HandlerKinds returns the sorted-insertion-order list of handler kinds.
func (d Def) HandlerKinds() []string {
	kinds := make([]string, len(d.Handlers))
	for i, h := range d.Handlers {
		kinds[i] = h.Kind
	}
	return kinds
}
