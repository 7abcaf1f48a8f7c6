package botapp

import (
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/mattermost/mattermost-interactions/interactions"
)

// Handlers either return the response envelope, or produce it by calling
// the request's response methods (Reply, DeferReply, ...) and return nil.
type CommandHandler func(*CommandRequest) (*interactions.Response, error)
type UserCommandHandler func(*UserCommandRequest) (*interactions.Response, error)
type MessageCommandHandler func(*MessageCommandRequest) (*interactions.Response, error)
type ComponentHandler func(*ComponentRequest) (*interactions.Response, error)
type ModalHandler func(*ModalRequest) (*interactions.Response, error)

// AutocompleteHandler returns the choices offered for the focused option.
type AutocompleteHandler func(*AutocompleteRequest) ([]*discordgo.ApplicationCommandOptionChoice, error)

var (
	// ErrAlreadyResponded is returned by response methods that would produce a
	// second initial response.
	ErrAlreadyResponded = errors.New("interaction has already been responded to")

	// ErrNotAcknowledged is returned by follow-up methods invoked before the
	// interaction has been replied to or deferred.
	ErrNotAcknowledged = errors.New("interaction has not been acknowledged")
)

// Command is a command registration. Name defaults to Data.Name, and Data
// (the wire schema used for registration) defaults to a command with just
// the name. At least one of the handlers is required; which one is invoked
// depends on the type of the incoming command.
type Command struct {
	Name           string
	Data           *discordgo.ApplicationCommand
	Handler        CommandHandler
	UserHandler    UserCommandHandler
	MessageHandler MessageCommandHandler
	Autocomplete   AutocompleteHandler

	// Components and Modals are registered together with the command.
	Components []*Component
	Modals     []*Modal
}

// Component is a component registration. A custom id of the form
// "<CustomID>:<state>" is also routed to the handler.
type Component struct {
	CustomID string
	Handler  ComponentHandler
}

// Modal is a modal submission registration, with the same custom id routing
// as Component.
type Modal struct {
	CustomID string
	Handler  ModalHandler
}
