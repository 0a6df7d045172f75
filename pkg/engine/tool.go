package engine

import (
	"fmt"

	"niimask/internal/models"
)

// Kind enumerates the drawing tools.
type Kind int

const (
	KindPen Kind = iota
	KindEraser
	KindFill
)

func (k Kind) String() string {
	switch k {
	case KindPen:
		return "pen"
	case KindEraser:
		return "eraser"
	case KindFill:
		return "fill"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a tool name to its Kind.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "pen":
		return KindPen, nil
	case "eraser", "erase":
		return KindEraser, nil
	case "fill", "fillregion":
		return KindFill, nil
	}
	return 0, fmt.Errorf("unknown tool %q (must be pen, eraser or fill)", name)
}

// Tool is the active tool selection together with its own settings. Width is
// ignored by the fill tool.
type Tool struct {
	Kind  Kind
	Color models.Value
	Width int
}

// Pen draws color with a square brush of the given width.
func Pen(color models.Value, width int) Tool {
	return Tool{Kind: KindPen, Color: color, Width: width}
}

// Eraser paints the empty value. It is a pen with a different color.
func Eraser(empty models.Value, width int) Tool {
	return Tool{Kind: KindEraser, Color: empty, Width: width}
}

// FillRegion fills a polygon collected from pointer positions.
func FillRegion(color models.Value) Tool {
	return Tool{Kind: KindFill, Color: color}
}

// Strokes reports whether the tool draws line segments while dragging.
func (t Tool) Strokes() bool {
	return t.Kind == KindPen || t.Kind == KindEraser
}

func (t Tool) String() string {
	if t.Kind == KindFill {
		return fmt.Sprintf("fill(%v)", t.Color)
	}
	return fmt.Sprintf("%s(%v, %d)", t.Kind, t.Color, t.Width)
}
