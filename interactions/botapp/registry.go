// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See License for license information.

package botapp

import (
	"sort"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/hashicorp/go-multierror"

	"github.com/mattermost/mattermost-interactions/utils"
)

// CustomIDSeparator separates the routing key of a custom id from the state
// carried along with it.
const CustomIDSeparator = ":"

type registry struct {
	mu         sync.RWMutex
	commands   map[string]*Command
	components map[string]*Component
	modals     map[string]*Modal
}

func newRegistry() *registry {
	return &registry{
		commands:   map[string]*Command{},
		components: map[string]*Component{},
		modals:     map[string]*Modal{},
	}
}

func (r *registry) command(name string) *Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commands[name]
}

// component looks up an exact custom id match first, then the routing key
// before the first separator. It returns the state following the separator.
func (r *registry) component(customID string) (*Component, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c := r.components[customID]; c != nil {
		return c, ""
	}
	key, state := splitCustomID(customID)
	return r.components[key], state
}

func (r *registry) modal(customID string) (*Modal, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if m := r.modals[customID]; m != nil {
		return m, ""
	}
	key, state := splitCustomID(customID)
	return r.modals[key], state
}

func splitCustomID(customID string) (string, string) {
	i := strings.Index(customID, CustomIDSeparator)
	if i < 0 {
		return customID, ""
	}
	return customID[:i], customID[i+len(CustomIDSeparator):]
}

// UseCommand registers a command, and the components and modals it carries.
// A command with the same name is replaced.
func (app *App) UseCommand(cmd *Command) error {
	if cmd == nil {
		return utils.NewInvalidError("command must not be nil")
	}
	c := *cmd
	if c.Name == "" && c.Data != nil {
		c.Name = c.Data.Name
	}
	if c.Name == "" {
		return utils.NewInvalidError("a command requires a name")
	}
	if c.Handler == nil && c.UserHandler == nil && c.MessageHandler == nil {
		return utils.NewInvalidError("command %q requires a handler", c.Name)
	}

	data := discordgo.ApplicationCommand{}
	if c.Data != nil {
		data = *c.Data
	}
	if data.Name == "" {
		data.Name = c.Name
	}
	if data.Type == 0 {
		switch {
		case c.Handler != nil:
			data.Type = discordgo.ChatApplicationCommand
		case c.UserHandler != nil:
			data.Type = discordgo.UserApplicationCommand
		default:
			data.Type = discordgo.MessageApplicationCommand
		}
	}
	c.Data = &data

	app.registry.mu.Lock()
	if _, exists := app.registry.commands[c.Name]; exists {
		app.Log.Warnf("Command %q is already registered, overwriting", c.Name)
	}
	app.registry.commands[c.Name] = &c
	app.registry.mu.Unlock()

	var result *multierror.Error
	for _, comp := range c.Components {
		result = multierror.Append(result, app.UseComponent(comp))
	}
	for _, m := range c.Modals {
		result = multierror.Append(result, app.UseModal(m))
	}
	return result.ErrorOrNil()
}

// UseComponent registers a component handler. A component with the same
// custom id is replaced.
func (app *App) UseComponent(comp *Component) error {
	if comp == nil {
		return utils.NewInvalidError("component must not be nil")
	}
	if comp.CustomID == "" {
		return utils.NewInvalidError("a component requires a custom_id")
	}
	if comp.Handler == nil {
		return utils.NewInvalidError("component %q requires a handler", comp.CustomID)
	}

	app.registry.mu.Lock()
	defer app.registry.mu.Unlock()
	if _, exists := app.registry.components[comp.CustomID]; exists {
		app.Log.Warnf("Component %q is already registered, overwriting", comp.CustomID)
	}
	c := *comp
	app.registry.components[c.CustomID] = &c
	return nil
}

// UseModal registers a modal submission handler. A modal with the same
// custom id is replaced.
func (app *App) UseModal(m *Modal) error {
	if m == nil {
		return utils.NewInvalidError("modal must not be nil")
	}
	if m.CustomID == "" {
		return utils.NewInvalidError("a modal requires a custom_id")
	}
	if m.Handler == nil {
		return utils.NewInvalidError("modal %q requires a handler", m.CustomID)
	}

	app.registry.mu.Lock()
	defer app.registry.mu.Unlock()
	if _, exists := app.registry.modals[m.CustomID]; exists {
		app.Log.Warnf("Modal %q is already registered, overwriting", m.CustomID)
	}
	modal := *m
	app.registry.modals[modal.CustomID] = &modal
	return nil
}

// Commands returns the registered commands, sorted by name.
func (app *App) Commands() []*Command {
	app.registry.mu.RLock()
	defer app.registry.mu.RUnlock()
	out := make([]*Command, 0, len(app.registry.commands))
	for _, c := range app.registry.commands {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ComponentIDs returns the registered component custom ids, sorted.
func (app *App) ComponentIDs() []string {
	app.registry.mu.RLock()
	defer app.registry.mu.RUnlock()
	return sortedKeys(app.registry.components)
}

// ModalIDs returns the registered modal custom ids, sorted.
func (app *App) ModalIDs() []string {
	app.registry.mu.RLock()
	defer app.registry.mu.RUnlock()
	return sortedKeys(app.registry.modals)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
