package interactions

import (
	"encoding/json"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

// ComponentTypeLabel wraps a single input of a modal with a label.
const ComponentTypeLabel discordgo.ComponentType = 18

// Component types of the rich layout system. A message that uses any of
// them must carry MessageFlagsRichLayout.
var richLayoutTypes = map[discordgo.ComponentType]bool{
	discordgo.SectionComponent:      true,
	discordgo.TextDisplayComponent:  true,
	discordgo.ThumbnailComponent:    true,
	discordgo.MediaGalleryComponent: true,
	discordgo.FileComponentType:     true,
	discordgo.SeparatorComponent:    true,
	discordgo.ContainerComponent:    true,
}

func IsRichLayoutType(t discordgo.ComponentType) bool {
	return richLayoutTypes[t]
}

// Builder is implemented by declarative payload builders (buttons, embeds,
// containers, modals...). ToJSON returns the wire shape of the built object,
// which is then JSON-encoded.
type Builder interface {
	ToJSON() interface{}
}

// serialize encodes a builder, a discordgo component, or any plain
// JSON-encodable value.
func serialize(v interface{}) (json.RawMessage, error) {
	if b, ok := v.(Builder); ok {
		v = b.ToJSON()
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to serialize %T", v)
	}
	return data, nil
}

// componentNode is the subset of a component needed to find its type and
// children.
type componentNode struct {
	Type       discordgo.ComponentType `json:"type"`
	Components []componentNode         `json:"components,omitempty"`
	Component  *componentNode          `json:"component,omitempty"`
	Accessory  *componentNode          `json:"accessory,omitempty"`
}

func (n componentNode) richLayout() bool {
	if IsRichLayoutType(n.Type) {
		return true
	}
	for _, c := range n.Components {
		if c.richLayout() {
			return true
		}
	}
	if n.Component != nil && n.Component.richLayout() {
		return true
	}
	return n.Accessory != nil && n.Accessory.richLayout()
}

// HasRichLayout reports whether any of the serialized components, at any
// depth, belongs to the rich layout family.
func HasRichLayout(components []json.RawMessage) bool {
	for _, raw := range components {
		n := componentNode{}
		if err := json.Unmarshal(raw, &n); err != nil {
			continue
		}
		if n.richLayout() {
			return true
		}
	}
	return false
}
