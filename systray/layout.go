package systray

import (
	"fmt"
	"sort"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"
)

// MaxMenuDepth bounds the nesting of menus accepted from a peer. Nodes nested
// deeper are dropped.
const MaxMenuDepth = 32

// PropKind is the type of value held by a [PropValue].
type PropKind int

const (
	KindString PropKind = iota
	KindBool
	KindInt
	KindBytes
	KindMap
)

func (k PropKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindBytes:
		return "bytes"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("PropKind(%d)", int(k))
	}
}

// PropValue is a typed dbusmenu property value.
type PropValue struct {
	Kind  PropKind
	Str   string
	Bool  bool
	Int   int64
	Bytes []byte
	Map   map[string]PropValue
}

func StringValue(s string) PropValue { return PropValue{Kind: KindString, Str: s} }
func BoolValue(b bool) PropValue     { return PropValue{Kind: KindBool, Bool: b} }
func IntValue(i int64) PropValue     { return PropValue{Kind: KindInt, Int: i} }

// AsString returns the value if it holds a string.
func (v PropValue) AsString() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}

// AsBool returns the value if it holds a bool.
func (v PropValue) AsBool() (bool, bool) {
	if v.Kind != KindBool {
		return false, false
	}
	return v.Bool, true
}

// AsInt returns the value if it holds an integer.
func (v PropValue) AsInt() (int64, bool) {
	if v.Kind != KindInt {
		return 0, false
	}
	return v.Int, true
}

// propValueFromDBus converts a decoded D-Bus value. Types that have no
// [PropKind] are rejected.
func propValueFromDBus(value any) (PropValue, error) {
	switch v := value.(type) {
	case dbus.Variant:
		return propValueFromDBus(v.Value())
	case string:
		return StringValue(v), nil
	case dbus.ObjectPath:
		return StringValue(string(v)), nil
	case bool:
		return BoolValue(v), nil
	case byte:
		return IntValue(int64(v)), nil
	case int16:
		return IntValue(int64(v)), nil
	case uint16:
		return IntValue(int64(v)), nil
	case int32:
		return IntValue(int64(v)), nil
	case uint32:
		return IntValue(int64(v)), nil
	case int64:
		return IntValue(v), nil
	case []byte:
		return PropValue{Kind: KindBytes, Bytes: v}, nil
	case map[string]dbus.Variant:
		m := make(map[string]PropValue, len(v))
		for key, item := range v {
			converted, err := propValueFromDBus(item)
			if err != nil {
				continue
			}
			m[key] = converted
		}
		return PropValue{Kind: KindMap, Map: m}, nil
	default:
		return PropValue{}, fmt.Errorf("unsupported property type %T", value)
	}
}

// MenuNode is an entry of a dbusmenu layout.
type MenuNode struct {
	ID       int32
	Props    map[string]PropValue
	Children []*MenuNode
}

// String returns the property as a string, or "".
func (n *MenuNode) String(name string) string {
	s, _ := n.Props[name].AsString()
	return s
}

// Label returns the "label" property.
func (n *MenuNode) Label() string {
	return n.String("label")
}

// Type returns the "type" property; "standard" when absent.
func (n *MenuNode) Type() string {
	if t := n.String("type"); t != "" {
		return t
	}
	return "standard"
}

// IsSeparator reports whether the node is a separator.
func (n *MenuNode) IsSeparator() bool {
	return n.Type() == "separator"
}

// Enabled reports the "enabled" property, true when absent.
func (n *MenuNode) Enabled() bool {
	if b, ok := n.Props["enabled"].AsBool(); ok {
		return b
	}
	return true
}

// Visible reports the "visible" property, true when absent.
func (n *MenuNode) Visible() bool {
	if b, ok := n.Props["visible"].AsBool(); ok {
		return b
	}
	return true
}

// Find returns the node with the given id in the subtree rooted at n.
func (n *MenuNode) Find(id int32) *MenuNode {
	if n.ID == id {
		return n
	}

	for _, child := range n.Children {
		if found := child.Find(id); found != nil {
			return found
		}
	}

	return nil
}

// PropNames returns property names in sorted order.
func (n *MenuNode) PropNames() []string {
	names := make([]string, 0, len(n.Props))
	for name := range n.Props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewMenuNode parses a layout node of the form (ia{sv}av).
//
// Children that fail to convert are logged and dropped; their siblings are
// still parsed. Nodes nested deeper than [MaxMenuDepth] are dropped.
func NewMenuNode(data any) (*MenuNode, error) {
	return newMenuNode(data, 0)
}

func newMenuNode(data any, depth int) (*MenuNode, error) {
	arr, ok := data.([]any)
	if !ok || len(arr) != 3 {
		return nil, fmt.Errorf("menu node: invalid format")
	}

	id, ok := arr[0].(int32)
	if !ok {
		return nil, fmt.Errorf("menu node: invalid id")
	}

	props, ok := arr[1].(map[string]dbus.Variant)
	if !ok {
		return nil, fmt.Errorf("menu node %d: invalid props", id)
	}

	children, ok := arr[2].([]dbus.Variant)
	if !ok {
		return nil, fmt.Errorf("menu node %d: invalid children", id)
	}

	node := &MenuNode{
		ID:       id,
		Props:    make(map[string]PropValue, len(props)),
		Children: make([]*MenuNode, 0, len(children)),
	}

	for key, variant := range props {
		value, err := propValueFromDBus(variant)
		if err != nil {
			log.Debug().Err(err).Int32("node", id).Str("property", key).Msg("skipping menu property")
			continue
		}

		node.Props[key] = value
	}

	if len(children) > 0 && depth+1 >= MaxMenuDepth {
		log.Warn().Int32("node", id).Int("depth", depth).Msg("menu nested too deeply, dropping children")
		return node, nil
	}

	for _, child := range children {
		childNode, err := newMenuNode(child.Value(), depth+1)
		if err != nil {
			log.Error().Err(err).Int32("parent", id).Msg("dropping malformed menu node")
			continue
		}

		node.Children = append(node.Children, childNode)
	}

	return node, nil
}
