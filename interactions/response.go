// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See License for license information.

package interactions

import (
	"encoding/json"

	"github.com/bwmarrin/discordgo"

	"github.com/mattermost/mattermost-interactions/utils"
)

// Response is the envelope returned to the platform in answer to an
// interaction. It is one of:
//
//   - Pong, answering a Ping;
//   - ChannelMessage, posting a new message (requires data);
//   - DeferredChannelMessage, acknowledging now and posting later;
//   - UpdateMessage, editing the message a component is attached to;
//   - DeferredUpdate, acknowledging a component without a visible change;
//   - Modal, opening a modal (requires a custom id and title);
//   - AutocompleteResult, offering option choices.
//
// Responses can only be created with the NewXxxResponse constructors, so an
// envelope of the wrong shape cannot be constructed.
type Response struct {
	typ          discordgo.InteractionResponseType
	message      *MessageData
	modal        *ModalData
	choices      []*discordgo.ApplicationCommandOptionChoice
	hasChoiceSet bool
}

func NewPongResponse() *Response {
	return &Response{typ: discordgo.InteractionResponsePong}
}

// NewMessageResponse builds a ChannelMessage envelope. The message must not
// be empty.
func NewMessageResponse(m *Message) (*Response, error) {
	data := NormaliseMessageData(m)
	if data.IsEmpty() {
		return nil, utils.NewInvalidError("a message response requires content, embeds, or components")
	}
	return &Response{
		typ:     discordgo.InteractionResponseChannelMessageWithSource,
		message: data,
	}, nil
}

// NewDeferredMessageResponse builds a DeferredChannelMessage envelope. Only
// the flags (e.g. ephemeral) of the eventual message may be set here.
func NewDeferredMessageResponse(flags ...discordgo.MessageFlags) *Response {
	r := &Response{typ: discordgo.InteractionResponseDeferredChannelMessageWithSource}
	if f := NormaliseMessageFlags(flags...); f != nil {
		r.message = &MessageData{Flags: f}
	}
	return r
}

// NewUpdateResponse builds an UpdateMessage envelope. m may be nil.
func NewUpdateResponse(m *Message) *Response {
	return &Response{
		typ:     discordgo.InteractionResponseUpdateMessage,
		message: NormaliseMessageData(m),
	}
}

func NewDeferredUpdateResponse() *Response {
	return &Response{typ: discordgo.InteractionResponseDeferredMessageUpdate}
}

// NewModalResponse builds a Modal envelope from a Modal, a Builder, or a
// plain wire object (map or json.RawMessage).
func NewModalResponse(v interface{}) (*Response, error) {
	data, err := NormaliseModal(v)
	if err != nil {
		return nil, err
	}
	return &Response{
		typ:   discordgo.InteractionResponseModal,
		modal: data,
	}, nil
}

func NewAutocompleteResponse(choices []*discordgo.ApplicationCommandOptionChoice) *Response {
	if choices == nil {
		choices = []*discordgo.ApplicationCommandOptionChoice{}
	}
	return &Response{
		typ:          discordgo.InteractionApplicationCommandAutocompleteResult,
		choices:      choices,
		hasChoiceSet: true,
	}
}

// NormaliseModal converts an authored modal to its wire shape.
func NormaliseModal(v interface{}) (*ModalData, error) {
	var data ModalData
	switch m := v.(type) {
	case nil:
		return nil, utils.NewInvalidError("a modal response requires a modal")
	case Modal:
		data = ModalData{CustomID: m.CustomID, Title: m.Title, Components: serializeAll(m.Components)}
	case *Modal:
		if m == nil {
			return nil, utils.NewInvalidError("a modal response requires a modal")
		}
		data = ModalData{CustomID: m.CustomID, Title: m.Title, Components: serializeAll(m.Components)}
	default:
		raw, err := serialize(v)
		if err != nil {
			return nil, utils.NewInvalidError(err)
		}
		if err = json.Unmarshal(raw, &data); err != nil {
			return nil, utils.NewInvalidError("failed to decode modal: %v", err)
		}
	}

	if data.CustomID == "" || data.Title == "" {
		return nil, utils.NewInvalidError("a modal requires a custom_id and a title")
	}
	if data.Components == nil {
		data.Components = []json.RawMessage{}
	}
	return &data, nil
}

func (r *Response) Type() discordgo.InteractionResponseType {
	return r.typ
}

// Message returns the message data of ChannelMessage, UpdateMessage, and
// DeferredChannelMessage responses; nil otherwise.
func (r *Response) Message() *MessageData {
	return r.message
}

func (r *Response) Modal() *ModalData {
	return r.modal
}

func (r *Response) Choices() []*discordgo.ApplicationCommandOptionChoice {
	return r.choices
}

type wireResponse struct {
	Type discordgo.InteractionResponseType `json:"type"`
	Data interface{}                       `json:"data,omitempty"`
}

func (r *Response) MarshalJSON() ([]byte, error) {
	w := wireResponse{Type: r.typ}
	switch {
	case r.modal != nil:
		w.Data = r.modal
	case r.hasChoiceSet:
		w.Data = struct {
			Choices []*discordgo.ApplicationCommandOptionChoice `json:"choices"`
		}{r.choices}
	case r.message != nil:
		w.Data = r.message
	}
	return json.Marshal(w)
}

func (r *Response) Loggable() []interface{} {
	return []interface{}{"response_type", int(r.typ)}
}
