package systray

import "fmt"

// Pixmap is a raw ARGB32 image as sent over D-Bus by tray items. Bytes are in
// network byte order, Width*Height*4 bytes long for well-formed items.
type Pixmap struct {
	Width  int32
	Height int32
	Bytes  []byte
}

// Empty reports whether pixmap carries no image data.
func (p *Pixmap) Empty() bool {
	return p == nil || p.Width <= 0 || p.Height <= 0 || len(p.Bytes) == 0
}

// pixmapFromDBus decodes a single pixmap.
//
// Format of pixmap is as follows
//
//	[<width>, <height>, <bytes>]
//
// Where:
//   - <width>: width of the icon (int32)
//   - <height>: height of the icon (int32)
//   - <bytes>: content of the icon ([]byte)
func pixmapFromDBus(data any) (*Pixmap, error) {
	arr, ok := data.([]any)
	if !ok || len(arr) != 3 {
		return nil, fmt.Errorf("invalid pixmap format: expected a slice of 3 elements")
	}

	width, ok := arr[0].(int32)
	if !ok {
		return nil, fmt.Errorf("invalid width type: expected int32")
	}

	height, ok := arr[1].(int32)
	if !ok {
		return nil, fmt.Errorf("invalid height type: expected int32")
	}

	bytes, ok := arr[2].([]byte)
	if !ok {
		return nil, fmt.Errorf("invalid bytes format: expected []byte")
	}

	return &Pixmap{
		Width:  width,
		Height: height,
		Bytes:  bytes,
	}, nil
}

// pixmapsFromDBus decodes an a(iiay) value. Malformed entries are skipped.
func pixmapsFromDBus(data any) ([]*Pixmap, error) {
	var entries []any

	switch value := data.(type) {
	case [][]any:
		entries = make([]any, len(value))
		for i, entry := range value {
			entries[i] = entry
		}
	case []any:
		entries = value
	default:
		return nil, fmt.Errorf("invalid pixmap list format: %T", data)
	}

	pixmaps := make([]*Pixmap, 0, len(entries))

	for _, entry := range entries {
		pixmap, err := pixmapFromDBus(entry)
		if err != nil {
			continue
		}

		pixmaps = append(pixmaps, pixmap)
	}

	return pixmaps, nil
}

// firstPixmap returns the first non-empty pixmap, or nil.
func firstPixmap(pixmaps []*Pixmap) *Pixmap {
	for _, pixmap := range pixmaps {
		if !pixmap.Empty() {
			return pixmap
		}
	}

	return nil
}

// ToolTip is the tooltip of a tray item.
type ToolTip struct {
	IconName    string
	Pixmaps     []*Pixmap
	Title       string
	Description string
}

// toolTipFromDBus decodes the (sa(iiay)ss) tooltip structure.
func toolTipFromDBus(data any) (ToolTip, error) {
	arr, ok := data.([]any)
	if !ok || len(arr) != 4 {
		return ToolTip{}, fmt.Errorf("invalid tooltip format: expected a struct of 4 elements")
	}

	var tooltip ToolTip

	if tooltip.IconName, ok = arr[0].(string); !ok {
		return ToolTip{}, fmt.Errorf("invalid tooltip icon name type")
	}

	pixmaps, err := pixmapsFromDBus(arr[1])
	if err != nil {
		return ToolTip{}, fmt.Errorf("tooltip: %w", err)
	}
	tooltip.Pixmaps = pixmaps

	if tooltip.Title, ok = arr[2].(string); !ok {
		return ToolTip{}, fmt.Errorf("invalid tooltip title type")
	}

	if tooltip.Description, ok = arr[3].(string); !ok {
		return ToolTip{}, fmt.Errorf("invalid tooltip description type")
	}

	return tooltip, nil
}
