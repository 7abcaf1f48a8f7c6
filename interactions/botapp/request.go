package botapp

import (
	"context"
	"encoding/json"

	"github.com/bwmarrin/discordgo"

	"github.com/mattermost/mattermost-interactions/interactions"
	"github.com/mattermost/mattermost-interactions/utils"
)

// BaseRequest is what all interaction requests have in common: the parsed
// interaction, and the methods that produce its response.
type BaseRequest struct {
	*interactions.Interaction

	GoContext context.Context
	App       *App
	Log       utils.Logger

	session *session
}

// Response returns the captured initial response, or nil.
func (req *BaseRequest) Response() *interactions.Response {
	return req.session.Response()
}

// Reply posts a message in answer to the interaction. After DeferReply, the
// first Reply fills in the deferred response and later ones are sent as
// follow-ups. After DeferUpdate every Reply is a follow-up. A second Reply to
// an interaction that was not deferred fails with ErrAlreadyResponded.
func (req *BaseRequest) Reply(m *interactions.Message) error {
	_, err := req.session.reply(m)
	return err
}

// DeferReply acknowledges the interaction, showing a loading state until the
// reply is sent. Flags (e.g. ephemeral) apply to the eventual reply.
func (req *BaseRequest) DeferReply(flags ...discordgo.MessageFlags) error {
	return req.session.deferReply(flags...)
}

// EditReply edits the original response. Before any response it acts as
// Reply, and returns a nil message. It fails after ShowModal, since a modal
// leaves no message to edit.
func (req *BaseRequest) EditReply(m *interactions.Message) (*discordgo.Message, error) {
	return req.session.editReply(m)
}

// FollowUp sends an additional message. The interaction must have been
// acknowledged. The returned message is nil while the initial response is
// still being written; the follow-up is sent right after it.
func (req *BaseRequest) FollowUp(m *interactions.Message) (*discordgo.Message, error) {
	return req.session.followUp(m)
}

// DeleteReply deletes the original response.
func (req *BaseRequest) DeleteReply() error {
	return req.session.deleteReply()
}

// ShowModal responds with a modal. v is an interactions.Modal, a Builder, or
// a raw wire object.
func (req *BaseRequest) ShowModal(v interface{}) error {
	return req.session.showModal(v)
}

type CommandRequest struct {
	BaseRequest

	Command *interactions.CommandData
	Options *interactions.OptionResolver
}

type UserCommandRequest struct {
	BaseRequest

	Command      *interactions.CommandData
	TargetUser   *discordgo.User
	TargetMember *discordgo.Member
}

type MessageCommandRequest struct {
	BaseRequest

	Command       *interactions.CommandData
	TargetMessage *discordgo.Message
}

// ComponentRequest is a button click or a select menu submission. State is
// the part of the custom id following the registered one, if routed by
// prefix.
type ComponentRequest struct {
	BaseRequest

	Component *interactions.ComponentData
	State     string
}

// Update edits the message the component is attached to, instead of posting
// a new one. m may be nil to only acknowledge.
func (req *ComponentRequest) Update(m *interactions.Message) error {
	_, err := req.session.update(m)
	return err
}

// DeferUpdate acknowledges the interaction without changing the message.
func (req *ComponentRequest) DeferUpdate() error {
	return req.session.deferUpdate()
}

type ModalRequest struct {
	BaseRequest

	Submission *interactions.ModalSubmitData
	State      string
}

// Value returns the submitted value of an input, or "".
func (req *ModalRequest) Value(customID string) string {
	f := req.Submission.Field(customID)
	if f == nil {
		return ""
	}
	if f.Value == "" && len(f.Values) > 0 {
		return f.Values[0]
	}
	return f.Value
}

// Values returns all submitted input values keyed by custom id.
func (req *ModalRequest) Values() map[string]string {
	return req.Submission.Values()
}

// Update edits the message carrying the component that opened the modal.
func (req *ModalRequest) Update(m *interactions.Message) error {
	_, err := req.session.update(m)
	return err
}

func (req *ModalRequest) DeferUpdate() error {
	return req.session.deferUpdate()
}

// AutocompleteRequest asks for the choices of the Focused option, while the
// user is typing.
type AutocompleteRequest struct {
	*interactions.Interaction

	GoContext context.Context
	App       *App
	Log       utils.Logger

	Command *interactions.CommandData
	Options *interactions.OptionResolver
	Focused *interactions.Option
}

// FocusedValue returns the partial input of the focused option.
func (req *AutocompleteRequest) FocusedValue() string {
	if req.Focused == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(req.Focused.Value, &s); err == nil {
		return s
	}
	return string(req.Focused.Value)
}
