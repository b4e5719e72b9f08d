package icons

// Fallback is returned for names without a glyph
const Fallback = "HelpCircle"

// Glyph is a renderable icon
type Glyph struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

var glyphs = map[string]string{
	"HelpCircle":        "?",
	"Moon":              "☾",
	"Sun":               "☀",
	"ShoppingCart":      "🛒",
	"ShoppingBag":       "🛍",
	"Search":            "⌕",
	"SlidersHorizontal": "☰",
	"Star":              "★",
	"StarHalf":          "⯪",
	"Truck":             "🚚",
	"Heart":             "♥",
	"Check":             "✓",
	"ArrowLeft":         "←",
	"ArrowRight":        "→",
	"ZoomIn":            "⊕",
	"LogOut":            "⎋",
	"X":                 "✕",
	"Plus":              "+",
	"Minus":             "−",
	"Trash":             "🗑",
}

// Resolve returns the glyph registered for name or the fallback glyph.
func Resolve(name string) Glyph {
	if symbol, ok := glyphs[name]; ok {
		return Glyph{Name: name, Symbol: symbol}
	}
	return Glyph{Name: Fallback, Symbol: glyphs[Fallback]}
}
