// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See License for license information.

package botapp

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mattermost/mattermost-interactions/interactions"
	"github.com/mattermost/mattermost-interactions/utils"
)

// Module is the decoded content of a definition file found by directory
// discovery. Handlers are referred to by name, and resolved against the
// app's HandlerSet.
type Module map[string]interface{}

// HandlerSet maps handler names used in definition files to handler
// functions. A value may be any of the handler types, or the equivalent
// unnamed func type.
type HandlerSet map[string]interface{}

type entryKind int

const (
	commandEntry entryKind = iota
	componentEntry
	modalEntry
)

func (k entryKind) String() string {
	switch k {
	case componentEntry:
		return "component"
	case modalEntry:
		return "modal"
	default:
		return "command"
	}
}

// ModuleExtensions are the file extensions recognized as definition files.
var ModuleExtensions = []string{".json", ".yaml", ".yml"}

// Keys ending in these suffixes are definitions of the given kind.
var exportSuffixes = []struct {
	suffix string
	kind   entryKind
}{
	{"_command", commandEntry},
	{"_button", componentEntry},
	{"_select", componentEntry},
	{"_modal", modalEntry},
	{"_component", componentEntry},
}

var handlerKeys = []string{"handler", "user_handler", "message_handler"}

// candidate is a definition extracted from a module.
type candidate struct {
	kind entryKind
	def  Module
}

// extractStrategy is one of the recognized module shapes. It returns the
// definitions of that shape, or none.
type extractStrategy struct {
	name    string
	extract func(kind entryKind, m Module) []candidate
}

// extractStrategies are tried in order, the first one returning definitions
// wins.
var extractStrategies = []extractStrategy{
	{"default", extractDefault},
	{"conventional name", extractConventional},
	{"suffixed names", extractSuffixed},
	{"paired data and handler", extractPaired},
	{"whole module", extractWhole},
}

func asModule(v interface{}) (Module, bool) {
	switch typed := v.(type) {
	case Module:
		return typed, true
	case map[string]interface{}:
		return Module(typed), true
	}
	return nil, false
}

func (m Module) hasHandler() bool {
	for _, key := range handlerKeys {
		if m[key] != nil {
			return true
		}
	}
	return false
}

func (m Module) str(keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func extractDefault(kind entryKind, m Module) []candidate {
	if def, ok := asModule(m["default"]); ok && def.hasHandler() {
		return []candidate{{kind, def}}
	}
	return nil
}

func extractConventional(kind entryKind, m Module) []candidate {
	if def, ok := asModule(m[kind.String()]); ok && def.hasHandler() {
		return []candidate{{kind, def}}
	}
	return nil
}

func extractSuffixed(_ entryKind, m Module) []candidate {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var out []candidate
	for _, key := range keys {
		for _, s := range exportSuffixes {
			if !strings.HasSuffix(key, s.suffix) {
				continue
			}
			if def, ok := asModule(m[key]); ok && def.hasHandler() {
				out = append(out, candidate{s.kind, def})
			}
			break
		}
	}
	return out
}

func extractPaired(kind entryKind, m Module) []candidate {
	if m["handler"] == nil {
		return nil
	}
	if _, ok := asModule(m["data"]); ok {
		return []candidate{{kind, m}}
	}
	if kind != commandEntry && m.str("custom_id", "customId") != "" {
		return []candidate{{kind, m}}
	}
	return nil
}

func extractWhole(kind entryKind, m Module) []candidate {
	if kind != commandEntry || !m.hasHandler() || m.str("name") == "" {
		return nil
	}
	return []candidate{{kind, m}}
}

// extractCandidates returns the definitions of the first matching shape, and
// the shape's name.
func extractCandidates(kind entryKind, m Module) ([]candidate, string) {
	for _, s := range extractStrategies {
		if found := s.extract(kind, m); len(found) > 0 {
			return found, s.name
		}
	}
	return nil, ""
}

// LoadCommands registers the command definitions found in dir and its
// subdirectories. A directory is loaded at most once; concurrent calls wait
// for the same load. Problems with individual files are logged and
// returned, but do not stop the load.
func (app *App) LoadCommands(dir string) error {
	return app.loadDir(commandEntry, dir)
}

// LoadComponents registers the component definitions found in dir. Files
// under a "modals" directory are registered as modals.
func (app *App) LoadComponents(dir string) error {
	return app.loadDir(componentEntry, dir)
}

func (app *App) isLoaded(key string) bool {
	app.loadMu.Lock()
	defer app.loadMu.Unlock()
	return app.loaded[key]
}

func (app *App) loadDir(kind entryKind, dir string) error {
	if dir == "" {
		return nil
	}
	key := kind.String() + ":" + filepath.Clean(dir)
	if app.isLoaded(key) {
		return nil
	}

	_, err, _ := app.loadGroup.Do(key, func() (interface{}, error) {
		if app.isLoaded(key) {
			return nil, nil
		}
		err := app.discover(kind, dir)

		app.loadMu.Lock()
		app.loaded[key] = true
		app.loadMu.Unlock()
		return nil, err
	})
	return err
}

func (app *App) discover(kind entryKind, dir string) error {
	var result *multierror.Error
	count := 0
	err := app.walkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			app.Log.WithError(err).Warnf("Failed to read %s", path)
			result = multierror.Append(result, errors.Wrapf(err, "failed to read %s", path))
			if d != nil && d.IsDir() && path != dir {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isModuleFile(path) {
			return nil
		}

		n, err := app.loadModuleFile(kind, dir, path)
		if err != nil {
			app.Log.WithError(err).Warnf("Skipping %s", path)
			result = multierror.Append(result, errors.Wrap(err, path))
		}
		count += n
		return nil
	})
	if err != nil {
		result = multierror.Append(result, err)
	}

	app.Log.Debugf("Loaded %d %s definitions from %s", count, kind, dir)
	return result.ErrorOrNil()
}

func isModuleFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range ModuleExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// loadModuleFile decodes and registers one definition file, and returns the
// number of definitions registered.
func (app *App) loadModuleFile(kind entryKind, root, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	m := Module{}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &m)
	} else {
		err = yaml.Unmarshal(data, &m)
	}
	if err != nil {
		return 0, utils.NewInvalidError(errors.Wrap(err, "failed to decode"))
	}

	inModals := false
	if rel, relErr := filepath.Rel(root, path); relErr == nil {
		inModals = utils.PathHasSegment(filepath.Dir(rel), "modals")
	}
	if inModals {
		kind = modalEntry
	}

	candidates, shape := extractCandidates(kind, m)
	if len(candidates) == 0 {
		return 0, utils.NewInvalidError("no handler definition found")
	}
	app.Log.Debugf("Found %d definitions in %s (%s)", len(candidates), path, shape)

	var result *multierror.Error
	count := 0
	for _, c := range candidates {
		k := c.kind
		if inModals && k != commandEntry {
			k = modalEntry
		}
		if err = app.register(k, c.def); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		count++
	}
	return count, result.ErrorOrNil()
}

func (app *App) register(kind entryKind, def Module) error {
	switch kind {
	case commandEntry:
		cmd, err := app.commandFromModule(def)
		if err != nil {
			return err
		}
		return app.UseCommand(cmd)
	case modalEntry:
		m, err := app.modalFromModule(def)
		if err != nil {
			return err
		}
		return app.UseModal(m)
	default:
		c, err := app.componentFromModule(def)
		if err != nil {
			return err
		}
		return app.UseComponent(c)
	}
}

// resolveHandler looks up a handler by name. Values that are not names are
// returned as is.
func (app *App) resolveHandler(v interface{}) (interface{}, error) {
	name, ok := v.(string)
	if !ok {
		return v, nil
	}
	h, ok := app.handlers[name]
	if !ok || h == nil {
		return nil, utils.NewNotFoundError("handler %q is not defined", name)
	}
	return h, nil
}

func (app *App) commandFromModule(def Module) (*Command, error) {
	dataDef, ok := asModule(def["data"])
	if !ok {
		dataDef = Module{}
		for k, v := range def {
			switch k {
			case "handler", "user_handler", "message_handler", "autocomplete", "components", "modals":
			default:
				dataDef[k] = v
			}
		}
	}
	data := &discordgo.ApplicationCommand{}
	if err := utils.Remarshal(data, dataDef); err != nil {
		return nil, utils.NewInvalidError(errors.Wrap(err, "invalid command data"))
	}
	cmd := &Command{
		Name: data.Name,
		Data: data,
	}

	for _, key := range handlerKeys {
		if def[key] == nil {
			continue
		}
		h, err := app.resolveHandler(def[key])
		if err != nil {
			return nil, err
		}
		switch f := h.(type) {
		case CommandHandler:
			cmd.Handler = f
		case func(*CommandRequest) (*interactions.Response, error):
			cmd.Handler = f
		case UserCommandHandler:
			cmd.UserHandler = f
		case func(*UserCommandRequest) (*interactions.Response, error):
			cmd.UserHandler = f
		case MessageCommandHandler:
			cmd.MessageHandler = f
		case func(*MessageCommandRequest) (*interactions.Response, error):
			cmd.MessageHandler = f
		default:
			return nil, utils.NewInvalidError("%s of command %q is a %T, not a command handler", key, data.Name, h)
		}
	}

	if def["autocomplete"] != nil {
		h, err := app.resolveHandler(def["autocomplete"])
		if err != nil {
			return nil, err
		}
		switch f := h.(type) {
		case AutocompleteHandler:
			cmd.Autocomplete = f
		case func(*AutocompleteRequest) ([]*discordgo.ApplicationCommandOptionChoice, error):
			cmd.Autocomplete = f
		default:
			return nil, utils.NewInvalidError("autocomplete of command %q is a %T, not an autocomplete handler", data.Name, h)
		}
	}

	for _, v := range asList(def["components"]) {
		cdef, _ := asModule(v)
		c, err := app.componentFromModule(cdef)
		if err != nil {
			return nil, errors.Wrapf(err, "component of command %q", data.Name)
		}
		cmd.Components = append(cmd.Components, c)
	}
	for _, v := range asList(def["modals"]) {
		mdef, _ := asModule(v)
		m, err := app.modalFromModule(mdef)
		if err != nil {
			return nil, errors.Wrapf(err, "modal of command %q", data.Name)
		}
		cmd.Modals = append(cmd.Modals, m)
	}
	return cmd, nil
}

func asList(v interface{}) []interface{} {
	list, _ := v.([]interface{})
	return list
}

func customIDOf(def Module) string {
	if id := def.str("custom_id", "customId"); id != "" {
		return id
	}
	if data, ok := asModule(def["data"]); ok {
		return data.str("custom_id", "customId")
	}
	return ""
}

func (app *App) componentFromModule(def Module) (*Component, error) {
	customID := customIDOf(def)
	if customID == "" {
		return nil, utils.NewInvalidError("a component requires a custom_id")
	}
	h, err := app.resolveHandler(def["handler"])
	if err != nil {
		return nil, err
	}
	c := &Component{CustomID: customID}
	switch f := h.(type) {
	case ComponentHandler:
		c.Handler = f
	case func(*ComponentRequest) (*interactions.Response, error):
		c.Handler = f
	default:
		return nil, utils.NewInvalidError("handler of component %q is a %T, not a component handler", customID, h)
	}
	return c, nil
}

func (app *App) modalFromModule(def Module) (*Modal, error) {
	customID := customIDOf(def)
	if customID == "" {
		return nil, utils.NewInvalidError("a modal requires a custom_id")
	}
	h, err := app.resolveHandler(def["handler"])
	if err != nil {
		return nil, err
	}
	m := &Modal{CustomID: customID}
	switch f := h.(type) {
	case ModalHandler:
		m.Handler = f
	case func(*ModalRequest) (*interactions.Response, error):
		m.Handler = f
	default:
		return nil, utils.NewInvalidError("handler of modal %q is a %T, not a modal handler", customID, h)
	}
	return m, nil
}

// ensureLoaded runs directory discovery for the configured directories.
// Commands are loaded for components too, since command definitions may
// carry components and modals.
func (app *App) ensureLoaded(kind entryKind) {
	if err := app.LoadCommands(app.commandsDir); err != nil {
		app.Log.WithError(err).Warnf("Some command definitions in %s were skipped", app.commandsDir)
	}
	if kind == commandEntry {
		return
	}
	if err := app.LoadComponents(app.componentsDir); err != nil {
		app.Log.WithError(err).Warnf("Some component definitions in %s were skipped", app.componentsDir)
	}
}
