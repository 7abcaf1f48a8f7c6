// Copyright (c) 2019-present Mattermost, Inc. All Rights Reserved.
// See License for license information.

package interactions

import (
	"encoding/json"

	"github.com/bwmarrin/discordgo"
)

// MessageFlagsRichLayout marks a message body that uses the rich layout
// component system.
const MessageFlagsRichLayout = discordgo.MessageFlagsIsComponentsV2

// Message is a response payload as authored by a handler. Components and
// Embeds may contain Builders, discordgo values, or plain wire objects
// (maps, json.RawMessage). Flags are OR-combined.
type Message struct {
	Content         string
	Components      []interface{}
	Embeds          []interface{}
	Flags           []discordgo.MessageFlags
	AllowedMentions *discordgo.MessageAllowedMentions
	TTS             bool
}

// MessageData is the wire-ready callback data of a message response.
type MessageData struct {
	TTS             bool                              `json:"tts,omitempty"`
	Content         string                            `json:"content,omitempty"`
	Embeds          []json.RawMessage                 `json:"embeds,omitempty"`
	AllowedMentions *discordgo.MessageAllowedMentions `json:"allowed_mentions,omitempty"`
	Flags           *discordgo.MessageFlags           `json:"flags,omitempty"`
	Components      []json.RawMessage                 `json:"components,omitempty"`
}

// IsEmpty is true if the data has nothing that would render a message.
func (d *MessageData) IsEmpty() bool {
	return d == nil || (d.Content == "" && len(d.Embeds) == 0 && len(d.Components) == 0)
}

// NormaliseMessageFlags OR-combines flags. No flags yield nil, which is
// distinct from flags explicitly set to zero.
func NormaliseMessageFlags(flags ...discordgo.MessageFlags) *discordgo.MessageFlags {
	if len(flags) == 0 {
		return nil
	}
	var combined discordgo.MessageFlags
	for _, f := range flags {
		combined |= f
	}
	return &combined
}

// NormaliseMessageData converts an authored message to its wire shape.
// Builders are serialized, plain objects pass through, and the rich layout
// flag is added when any component requires it. A nil message yields nil.
// Values that cannot be serialized are dropped.
func NormaliseMessageData(m *Message) *MessageData {
	if m == nil {
		return nil
	}

	data := &MessageData{
		TTS:             m.TTS,
		Content:         m.Content,
		AllowedMentions: m.AllowedMentions,
		Flags:           NormaliseMessageFlags(m.Flags...),
	}
	data.Components = serializeAll(m.Components)
	data.Embeds = serializeAll(m.Embeds)

	if HasRichLayout(data.Components) {
		flags := MessageFlagsRichLayout
		if data.Flags != nil {
			flags |= *data.Flags
		}
		data.Flags = &flags
	}
	return data
}

// serializeAll serializes values, flattening nested slices of components.
func serializeAll(in []interface{}) []json.RawMessage {
	var out []json.RawMessage
	for _, v := range in {
		switch typed := v.(type) {
		case nil:
			continue
		case []interface{}:
			out = append(out, serializeAll(typed)...)
			continue
		case []discordgo.MessageComponent:
			for _, c := range typed {
				out = append(out, serializeAll([]interface{}{c})...)
			}
			continue
		case []Builder:
			for _, b := range typed {
				out = append(out, serializeAll([]interface{}{b})...)
			}
			continue
		}
		raw, err := serialize(v)
		if err != nil {
			continue
		}
		out = append(out, raw)
	}
	return out
}

// Modal is an authored modal definition.
type Modal struct {
	CustomID   string
	Title      string
	Components []interface{}
}

// ModalData is the wire shape of a modal response.
type ModalData struct {
	CustomID   string            `json:"custom_id"`
	Title      string            `json:"title"`
	Components []json.RawMessage `json:"components"`
}
