package dom

import "fmt"

// OpKind is the type of a recorded document mutation.
type OpKind uint8

const (
	OpSetText     OpKind = 0x01 // Overwrite a text or comment node's value
	OpSetAttr     OpKind = 0x02 // Set/update attribute
	OpRemoveAttr  OpKind = 0x03 // Remove attribute
	OpAppend      OpKind = 0x04 // Append markup as the last child
	OpRemove      OpKind = 0x05 // Remove node
	OpReplace     OpKind = 0x06 // Replace node with markup
	OpSetProperty OpKind = 0x07 // Set boolean live property
)

// String returns the string representation of the OpKind.
func (k OpKind) String() string {
	switch k {
	case OpSetText:
		return "text"
	case OpSetAttr:
		return "attr"
	case OpRemoveAttr:
		return "rmattr"
	case OpAppend:
		return "append"
	case OpRemove:
		return "remove"
	case OpReplace:
		return "replace"
	case OpSetProperty:
		return "prop"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name so op logs read well on the wire.
func (k OpKind) MarshalText() ([]byte, error) {
	s := k.String()
	if s == "unknown" {
		return nil, fmt.Errorf("dom: unknown op kind %d", uint8(k))
	}
	return []byte(s), nil
}

// UnmarshalText decodes a kind name.
func (k *OpKind) UnmarshalText(b []byte) error {
	for c := OpSetText; c <= OpSetProperty; c++ {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("dom: unknown op kind %q", b)
}

// Op is a single recorded document mutation.
type Op struct {
	Kind  OpKind `json:"k"`
	Path  []int  `json:"p"`              // Child-index path from the body element
	Key   string `json:"key,omitempty"`  // Attribute or property name
	Value string `json:"v,omitempty"`    // New text, attribute or property value
	HTML  string `json:"html,omitempty"` // Markup for OpAppend/OpReplace
}

// String renders the op for debugging.
func (o Op) String() string {
	switch o.Kind {
	case OpSetAttr, OpSetProperty:
		return fmt.Sprintf("%s %v %s=%q", o.Kind, o.Path, o.Key, o.Value)
	case OpRemoveAttr:
		return fmt.Sprintf("%s %v %s", o.Kind, o.Path, o.Key)
	case OpAppend, OpReplace:
		return fmt.Sprintf("%s %v %s", o.Kind, o.Path, o.HTML)
	case OpSetText:
		return fmt.Sprintf("%s %v %q", o.Kind, o.Path, o.Value)
	default:
		return fmt.Sprintf("%s %v", o.Kind, o.Path)
	}
}
