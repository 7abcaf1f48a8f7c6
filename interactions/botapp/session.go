// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See License for license information.

package botapp

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/mattermost/mattermost-interactions/interactions"
	"github.com/mattermost/mattermost-interactions/interactions/appclient"
	"github.com/mattermost/mattermost-interactions/utils"
)

type responseState int

const (
	unacknowledged responseState = iota
	deferred
	responded
)

func (s responseState) String() string {
	switch s {
	case deferred:
		return "deferred"
	case responded:
		return "responded"
	default:
		return "unacknowledged"
	}
}

type followupOp func(ctx context.Context) (*discordgo.Message, error)

// session tracks the response state of a single interaction.
//
// The initial response is captured, and written by the transport. Follow-up
// operations (edits of the original response, follow-up messages, deletes)
// need the initial response to have been received first, so they are queued
// until deliver is called, and run immediately afterwards.
type session struct {
	mu    sync.Mutex
	api   appclient.API
	id    string
	token string
	kind  discordgo.InteractionType

	state    responseState
	response *interactions.Response

	// filled is set once the placeholder of a deferred response has been
	// replaced by Reply.
	filled bool

	delivered bool
	ctx       context.Context
	queue     []followupOp
}

func newSession(api appclient.API, i *interactions.Interaction) *session {
	return &session{
		api:   api,
		id:    i.ID,
		token: i.Token,
		kind:  i.Type,
		ctx:   context.Background(),
	}
}

func (s *session) Response() *interactions.Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.response
}

func (s *session) State() responseState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// do runs decide under the session lock. A follow-up operation it returns is
// queued until the initial response is delivered, and run right away after.
func (s *session) do(decide func() (followupOp, error)) (*discordgo.Message, error) {
	s.mu.Lock()
	op, err := decide()
	if err != nil || op == nil {
		s.mu.Unlock()
		return nil, err
	}
	if !s.delivered {
		s.queue = append(s.queue, op)
		s.mu.Unlock()
		return nil, nil
	}
	ctx := s.ctx
	s.mu.Unlock()
	return op(ctx)
}

// captureLocked records r as the initial response.
func (s *session) captureLocked(r *interactions.Response, action string) error {
	if s.state != unacknowledged {
		return errors.Wrapf(ErrAlreadyResponded, "failed to %s", action)
	}
	s.response = r
	switch r.Type() {
	case discordgo.InteractionResponseDeferredChannelMessageWithSource,
		discordgo.InteractionResponseDeferredMessageUpdate:
		s.state = deferred
	default:
		s.state = responded
	}
	return nil
}

// respondedWithLocked is true if the initial response is of type t.
func (s *session) respondedWithLocked(t discordgo.InteractionResponseType) bool {
	return s.response != nil && s.response.Type() == t
}

// checkOriginalLocked fails when the initial response created no message
// that follow-up operations could refer to.
func (s *session) checkOriginalLocked(action string) error {
	if s.respondedWithLocked(discordgo.InteractionResponseModal) {
		return utils.NewInvalidError("failed to %s: the interaction was answered with a modal", action)
	}
	return nil
}

func (s *session) capture(r *interactions.Response, action string) error {
	_, err := s.do(func() (followupOp, error) {
		return nil, s.captureLocked(r, action)
	})
	return err
}

func (s *session) editOriginal(data *interactions.MessageData) followupOp {
	return func(ctx context.Context) (*discordgo.Message, error) {
		return s.api.EditOriginal(ctx, s.token, data)
	}
}

func (s *session) createFollowup(data *interactions.MessageData) followupOp {
	return func(ctx context.Context) (*discordgo.Message, error) {
		return s.api.CreateFollowup(ctx, s.token, data)
	}
}

func (s *session) deleteOriginal() followupOp {
	return func(ctx context.Context) (*discordgo.Message, error) {
		return nil, s.api.DeleteOriginal(ctx, s.token)
	}
}

// reply posts a message. It is the initial response if the interaction is
// unacknowledged. After DeferReply the first reply replaces the placeholder,
// and subsequent ones are follow-up messages. After DeferUpdate the original
// is the message the component is on, so replies are always follow-ups.
func (s *session) reply(m *interactions.Message) (*discordgo.Message, error) {
	data := interactions.NormaliseMessageData(m)
	if data.IsEmpty() {
		return nil, utils.NewInvalidError("a reply requires content, embeds, or components")
	}
	return s.do(func() (followupOp, error) {
		switch s.state {
		case unacknowledged:
			r, err := interactions.NewMessageResponse(m)
			if err != nil {
				return nil, err
			}
			return nil, s.captureLocked(r, "reply")
		case deferred:
			if s.respondedWithLocked(discordgo.InteractionResponseDeferredMessageUpdate) {
				return s.createFollowup(data), nil
			}
			if !s.filled {
				s.filled = true
				return s.editOriginal(data), nil
			}
			return s.createFollowup(data), nil
		default:
			return nil, errors.Wrap(ErrAlreadyResponded, "failed to reply")
		}
	})
}

func (s *session) deferReply(flags ...discordgo.MessageFlags) error {
	return s.capture(interactions.NewDeferredMessageResponse(flags...), "defer the reply")
}

// update edits the message the interaction originated from. Once deferred,
// the edit targets the original response.
func (s *session) update(m *interactions.Message) (*discordgo.Message, error) {
	if s.kind != discordgo.InteractionMessageComponent && s.kind != discordgo.InteractionModalSubmit {
		return nil, utils.NewInvalidError("only component and modal interactions can update a message")
	}
	return s.do(func() (followupOp, error) {
		switch s.state {
		case unacknowledged:
			return nil, s.captureLocked(interactions.NewUpdateResponse(m), "update the message")
		case deferred:
			data := interactions.NormaliseMessageData(m)
			if data == nil {
				return nil, utils.NewInvalidError("updating a deferred message requires a message")
			}
			s.filled = true
			return s.editOriginal(data), nil
		default:
			return nil, errors.Wrap(ErrAlreadyResponded, "failed to update the message")
		}
	})
}

func (s *session) deferUpdate() error {
	if s.kind != discordgo.InteractionMessageComponent && s.kind != discordgo.InteractionModalSubmit {
		return utils.NewInvalidError("only component and modal interactions can defer an update")
	}
	return s.capture(interactions.NewDeferredUpdateResponse(), "defer the update")
}

// editReply edits the original response once there is one. Before that it
// acts as the first reply and returns a nil message.
func (s *session) editReply(m *interactions.Message) (*discordgo.Message, error) {
	data := interactions.NormaliseMessageData(m)
	if data == nil {
		return nil, utils.NewInvalidError("an edit requires a message")
	}
	return s.do(func() (followupOp, error) {
		if s.state == unacknowledged {
			r, err := interactions.NewMessageResponse(m)
			if err != nil {
				return nil, err
			}
			return nil, s.captureLocked(r, "edit the reply")
		}
		if err := s.checkOriginalLocked("edit the reply"); err != nil {
			return nil, err
		}
		s.filled = true
		return s.editOriginal(data), nil
	})
}

func (s *session) followUp(m *interactions.Message) (*discordgo.Message, error) {
	data := interactions.NormaliseMessageData(m)
	if data.IsEmpty() {
		return nil, utils.NewInvalidError("a follow-up requires content, embeds, or components")
	}
	return s.do(func() (followupOp, error) {
		if s.state == unacknowledged {
			return nil, errors.Wrap(ErrNotAcknowledged, "failed to send a follow-up")
		}
		if err := s.checkOriginalLocked("send a follow-up"); err != nil {
			return nil, err
		}
		return s.createFollowup(data), nil
	})
}

func (s *session) deleteReply() error {
	_, err := s.do(func() (followupOp, error) {
		if s.state == unacknowledged {
			return nil, errors.Wrap(ErrNotAcknowledged, "failed to delete the reply")
		}
		if err := s.checkOriginalLocked("delete the reply"); err != nil {
			return nil, err
		}
		return s.deleteOriginal(), nil
	})
	return err
}

func (s *session) showModal(v interface{}) error {
	if s.kind == discordgo.InteractionModalSubmit {
		return utils.NewInvalidError("a modal can not be shown in response to a modal submission")
	}
	r, err := interactions.NewModalResponse(v)
	if err != nil {
		return err
	}
	return s.capture(r, "show a modal")
}

// deliver marks the initial response as delivered and runs the queued
// operations in order, including any queued while it runs.
func (s *session) deliver(ctx context.Context) error {
	var result *multierror.Error
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.delivered = true
			s.ctx = ctx
			s.mu.Unlock()
			return result.ErrorOrNil()
		}
		op := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		if _, err := op(ctx); err != nil {
			result = multierror.Append(result, err)
		}
	}
}

func (s *session) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}
