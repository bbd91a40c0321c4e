package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/moepig/nexpose-kit/config"
	"github.com/moepig/nexpose-kit/console"
	"github.com/moepig/nexpose-kit/inventory"
	"github.com/moepig/nexpose-kit/nexpose"
	"github.com/moepig/nexpose-kit/renderer"
	"github.com/moepig/nexpose-kit/reports"
	"github.com/moepig/nexpose-kit/sitefinder"
	"github.com/moepig/nexpose-kit/tagger"
)

// Client is everything the menu actions call on the Nexpose API
type Client interface {
	reports.Source
	sitefinder.Source
	tagger.API
	GetTagByID(ctx context.Context, id int64) (nexpose.Resource, bool, error)
	GetTagByName(ctx context.Context, name string) (nexpose.Resource, bool, error)
}

// ClientFactory creates the API client once credentials are known
type ClientFactory func(ctx context.Context, opts nexpose.Options) (Client, error)

// NewNexposeClient is the ClientFactory backed by nexpose.NewClient
// A connection check rejected with 401 or 403 is returned as an error; other
// failures only warn
func NewNexposeClient(ctx context.Context, opts nexpose.Options) (Client, error) {
	c, err := nexpose.NewClient(ctx, opts)
	if err != nil {
		return nil, err
	}
	if perr := c.CheckError(); perr != nil {
		if nexpose.IsUnauthorized(perr) {
			return nil, perr
		}
		slog.Warn("Nexpose API is not reachable, continuing", "host", c.Host(), "error", perr)
	}
	return c, nil
}

// App is the interactive menu. It connects to the API on first use and
// loads the inventory on first use
type App struct {
	cfg       *config.Config
	prompt    *console.Prompter
	newClient ClientFactory
	renderer  *renderer.Renderer
	metrics   *nexpose.Metrics
	now       func() time.Time

	credential  nexpose.Credential
	environment string
	host        string
	client      Client
	finder      *sitefinder.Finder
	inventory   *inventory.Inventory

	// set once NEXPOSE_PASSWORD has been rejected, so the prompt is used instead
	envPasswordRejected bool
}

// New creates an App
func New(cfg *config.Config, prompt *console.Prompter, newClient ClientFactory) *App {
	return &App{
		cfg:       cfg,
		prompt:    prompt,
		newClient: newClient,
		renderer:  renderer.NewRenderer(""),
		metrics:   nexpose.NewMetrics(),
		now:       time.Now,
	}
}

var mainMenu = []console.Option{
	{Key: "1", Label: "Export Nexpose configuration"},
	{Key: "2", Label: "Site finder"},
	{Key: "3", Label: "Asset lookup"},
	{Key: "4", Label: "Asset ID finder"},
	{Key: "5", Label: "Tag / untag assets"},
	{Key: "0", Label: "Exit"},
}

// Run shows the main menu until the user exits or input ends
// Action failures are reported and the menu is shown again; configuration
// errors and cancellation end the run
func (a *App) Run(ctx context.Context) error {
	actions := map[string]func(context.Context) error{
		"1": a.export,
		"2": a.findSites,
		"3": a.lookupAssets,
		"4": a.findAssetIDs,
		"5": a.tagAssets,
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		choice, err := a.prompt.Menu("Please select one of the following options ('0' to exit):", mainMenu)
		if cerr := ctx.Err(); cerr != nil {
			// interrupted while waiting for input
			return cerr
		}
		if err != nil {
			return ignoreEOF(err)
		}
		if choice == "0" {
			a.prompt.Println("Exiting program..")
			return nil
		}

		err = actions[choice](ctx)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, io.EOF):
			return nil
		default:
			var cfgErr *nexpose.ConfigurationError
			if errors.As(err, &cfgErr) {
				return err
			}
			slog.Error("Action failed", "action", choice, "error", err)
			a.prompt.Printf("\nError: %v\n", err)
		}
	}
}

// Close wipes the credential and writes the metrics textfile when configured
func (a *App) Close() error {
	a.credential.Clear()
	if a.cfg.Paths.MetricsFile == "" {
		return nil
	}
	if err := a.metrics.WriteTextfile(a.cfg.Paths.MetricsFile); err != nil {
		return err
	}
	slog.Info("Written metrics file", "path", a.cfg.Paths.MetricsFile)
	return nil
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// connect returns the API client, creating it on first use
func (a *App) connect(ctx context.Context) (Client, error) {
	if a.client != nil {
		return a.client, nil
	}

	env, err := a.selectEnvironment()
	if err != nil {
		return nil, err
	}

	username := a.cfg.Username
	if username == "" {
		username, err = a.prompt.AskRequired("username: ")
		if err != nil {
			return nil, err
		}
	}

	var password []byte
	fromEnv := false
	if v := os.Getenv("NEXPOSE_PASSWORD"); v != "" && !a.envPasswordRejected {
		password = []byte(v)
		fromEnv = true
	} else {
		password, err = a.prompt.Password("password: ")
		if err != nil {
			return nil, err
		}
	}
	a.credential = nexpose.NewCredential(username, password)
	for i := range password {
		password[i] = 0
	}

	envs := make([]nexpose.Environment, 0, len(a.cfg.Environments))
	for _, e := range a.cfg.Environments {
		envs = append(envs, nexpose.Environment{Name: e.Name, URL: e.URL})
	}

	client, err := a.newClient(ctx, nexpose.Options{
		Environments:       envs,
		Environment:        env,
		OverrideURL:        a.cfg.URL,
		Credential:         a.credential,
		PageSize:           a.cfg.API.PageSize,
		Timeout:            a.cfg.API.Timeout,
		InsecureSkipVerify: a.cfg.API.InsecureSkipVerify,
		MaxAttempts:        a.cfg.API.MaxAttempts,
		MaxBackoff:         a.cfg.API.MaxBackoff,
		Metrics:            a.metrics,
	})
	if err != nil {
		a.credential.Clear()
		if nexpose.IsUnauthorized(err) {
			if fromEnv {
				a.envPasswordRejected = true
			}
			return nil, fmt.Errorf("authentication failed, credentials will be asked for again: %w", err)
		}
		return nil, fmt.Errorf("failed to create Nexpose client: %w", err)
	}

	slog.Info("Connected to Nexpose", "environment", env, "credential", a.credential)
	a.environment = env
	a.host, _ = nexpose.ResolveHost(envs, env, a.cfg.URL)
	a.client = client
	return client, nil
}

// selectEnvironment picks the configured default or asks which host to use
func (a *App) selectEnvironment() (string, error) {
	if a.cfg.URL != "" || a.cfg.DefaultEnvironment != "" {
		return a.cfg.DefaultEnvironment, nil
	}

	names := a.cfg.EnvironmentNames()
	options := make([]console.Option, 0, len(names))
	for i, name := range names {
		options = append(options, console.Option{Key: strconv.Itoa(i + 1), Label: name})
	}
	choice, err := a.prompt.Menu("Select which Nexpose API server you would like to access:", options)
	if err != nil {
		return "", err
	}
	i, _ := strconv.Atoi(choice)
	return names[i-1], nil
}

// loadInventory returns the asset inventory, reading it on first use
func (a *App) loadInventory() (*inventory.Inventory, error) {
	if a.inventory != nil {
		return a.inventory, nil
	}

	path := a.cfg.Paths.InventoryFile
	if path == "" {
		var err error
		path, err = a.prompt.AskRequired("Please enter the path to the asset inventory CSV: ")
		if err != nil {
			return nil, err
		}
	}

	inv, err := inventory.Load(path)
	if err != nil {
		return nil, err
	}
	a.prompt.Printf("assets size: %d\n", inv.Len())
	a.inventory = inv
	return inv, nil
}
