// Copyright (c) 2019-present Mattermost, Inc. All Rights Reserved.
// See License for license information.

package botapp

import (
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/mattermost/mattermost-interactions/interactions"
	"github.com/mattermost/mattermost-interactions/interactions/appclient"
	"github.com/mattermost/mattermost-interactions/store"
	"github.com/mattermost/mattermost-interactions/utils"
	"github.com/mattermost/mattermost-interactions/utils/httputils"
)

// SourceRoots are the directories, relative to the base directory, that the
// commands and components directories must be within.
var SourceRoots = []string{"src", "dist"}

// App receives the interactions of one application, and dispatches them to
// the registered handlers.
type App struct {
	ApplicationID string
	PublicKey     string

	Log    utils.Logger
	hasLog bool
	Router *mux.Router
	API    appclient.API
	Store  store.Store

	verify     interactions.VerifyFunc
	httpClient appclient.Doer
	apiURL     string
	handlers   HandlerSet
	registry   *registry

	baseDir              string
	commandsDir          string
	componentsDir        string
	disableCommandsDir   bool
	disableComponentsDir bool

	loadMu    sync.Mutex
	loaded    map[string]bool
	loadGroup singleflight.Group
	walkDir   func(root string, fn fs.WalkDirFunc) error
}

type AppOption func(app *App) error

func MakeAppOrPanic(applicationID, publicKey string, opts ...AppOption) *App {
	app, err := MakeApp(applicationID, publicKey, opts...)
	if err != nil {
		panic(err)
	}
	return app
}

func MakeApp(applicationID, publicKey string, opts ...AppOption) (*App, error) {
	if applicationID == "" {
		return nil, utils.NewInvalidError("application ID is required")
	}
	if publicKey == "" {
		return nil, utils.NewInvalidError("public key is required")
	}

	app := &App{
		ApplicationID: applicationID,
		PublicKey:     publicKey,
		Log:           utils.NewNilLogger(),
		Router:        mux.NewRouter(),
		verify:        interactions.VerifyEd25519,
		handlers:      HandlerSet{},
		registry:      newRegistry(),
		loaded:        map[string]bool{},
		walkDir:       filepath.WalkDir,
	}

	// Run the options.
	for _, opt := range opts {
		err := opt(app)
		if err != nil {
			return nil, err
		}
	}

	if app.httpClient == nil {
		app.httpClient = http.DefaultClient
	}
	if app.API == nil {
		app.API = app.restClient()
	}
	if app.Store == nil {
		app.Store = store.NewMemoryStore()
	}

	if err := app.resolveDirs(); err != nil {
		return nil, err
	}

	// Set up the auto-served HTTP routes.
	app.Router.Path("/ping").HandlerFunc(httputils.DoHandleJSONData([]byte("{}")))
	app.Router.Path(InteractionsPath).HandlerFunc(app.ServeInteraction).Methods(http.MethodPost)
	app.Router.Path("/").HandlerFunc(app.ServeInteraction).Methods(http.MethodPost)

	app.Router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		app.Log.Debugf("App request: not found: %q", req.URL.String())
		http.NotFound(w, req)
	})

	return app, nil
}

func (app *App) resolveDirs() error {
	base := app.baseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return errors.Wrap(err, "failed to determine the working directory")
		}
		base = wd
	}

	var err error
	app.commandsDir, err = resolveDir(base, app.commandsDir, app.disableCommandsDir, "commands")
	if err != nil {
		return errors.Wrap(err, "invalid commands directory")
	}
	app.componentsDir, err = resolveDir(base, app.componentsDir, app.disableComponentsDir, "components")
	if err != nil {
		return errors.Wrap(err, "invalid components directory")
	}
	return nil
}

// resolveDir confines an override to the source roots. Without one, it
// picks the first existing <root>/<name>, preferring build output.
func resolveDir(base, override string, disabled bool, name string) (string, error) {
	if disabled {
		return "", nil
	}
	if override != "" {
		return utils.ConfineDir(base, override, SourceRoots...)
	}
	for _, root := range []string{"dist", "src"} {
		dir := filepath.Join(base, root, name)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
	}
	return "", nil
}

// CommandsDir returns the resolved commands directory, "" if there is none.
func (app *App) CommandsDir() string {
	return app.commandsDir
}

func (app *App) ComponentsDir() string {
	return app.componentsDir
}

func WithLog(log utils.Logger) AppOption {
	return func(app *App) error {
		if log == nil {
			return utils.NewInvalidError("logger must not be nil")
		}
		app.Log = log
		app.hasLog = true
		return nil
	}
}

// WithVerifier replaces the Ed25519 signature verification.
func WithVerifier(verify interactions.VerifyFunc) AppOption {
	return func(app *App) error {
		if verify == nil {
			return utils.NewInvalidError("signature verifier must not be nil")
		}
		app.verify = verify
		return nil
	}
}

// WithHTTPClient sets the transport of the follow-up API client and of
// command registration.
func WithHTTPClient(doer appclient.Doer) AppOption {
	return func(app *App) error {
		if doer == nil {
			return utils.NewInvalidError("HTTP client must not be nil")
		}
		app.httpClient = doer
		return nil
	}
}

// WithAPIURL sets the root of the platform API, for the follow-up API client
// and command registration.
func WithAPIURL(rawURL string) AppOption {
	return func(app *App) error {
		client, err := appclient.NewClient(app.ApplicationID, nil).WithURL(rawURL)
		if err != nil {
			return err
		}
		app.apiURL = client.URL
		return nil
	}
}

// restClient returns a REST client with the configured transport and API
// root.
func (app *App) restClient() *appclient.Client {
	client := appclient.NewClient(app.ApplicationID, app.httpClient)
	if app.apiURL != "" {
		client.URL = app.apiURL
	}
	return client
}

// WithAPI replaces the follow-up API client.
func WithAPI(api appclient.API) AppOption {
	return func(app *App) error {
		app.API = api
		return nil
	}
}

func WithStore(s store.Store) AppOption {
	return func(app *App) error {
		app.Store = s
		return nil
	}
}

// WithBaseDir sets the directory that the source roots are relative to. It
// defaults to the working directory.
func WithBaseDir(dir string) AppOption {
	return func(app *App) error {
		app.baseDir = dir
		return nil
	}
}

func WithCommandsDir(dir string) AppOption {
	return func(app *App) error {
		app.commandsDir = dir
		app.disableCommandsDir = false
		return nil
	}
}

func WithoutCommandsDir() AppOption {
	return func(app *App) error {
		app.disableCommandsDir = true
		return nil
	}
}

func WithComponentsDir(dir string) AppOption {
	return func(app *App) error {
		app.componentsDir = dir
		app.disableComponentsDir = false
		return nil
	}
}

func WithoutComponentsDir() AppOption {
	return func(app *App) error {
		app.disableComponentsDir = true
		return nil
	}
}

// WithHandlers adds named handlers that discovered definition files refer
// to.
func WithHandlers(handlers HandlerSet) AppOption {
	return func(app *App) error {
		for name, h := range handlers {
			app.handlers[name] = h
		}
		return nil
	}
}

func WithCommand(commands ...*Command) AppOption {
	return func(app *App) error {
		for _, c := range commands {
			if err := app.UseCommand(c); err != nil {
				return err
			}
		}
		return nil
	}
}

func WithComponent(components ...*Component) AppOption {
	return func(app *App) error {
		for _, c := range components {
			if err := app.UseComponent(c); err != nil {
				return err
			}
		}
		return nil
	}
}

func WithModal(modals ...*Modal) AppOption {
	return func(app *App) error {
		for _, m := range modals {
			if err := app.UseModal(m); err != nil {
				return err
			}
		}
		return nil
	}
}
