package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songshare/internal/services"
	"github.com/desertthunder/songshare/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Services left nil are built from the loaded configuration on first use.
type Runner struct {
	config     *shared.Config
	configPath string
	envFile    string
	catalog    services.Catalog
	search     services.VideoSearcher
	messenger  services.Messenger
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	// defaultLogger is set when no logger was injected; it is then rebuilt from the log config.
	defaultLogger bool
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	EnvFile    string
	Catalog    services.Catalog
	Search     services.VideoSearcher
	Messenger  services.Messenger
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	defaultLogger := opts.Logger == nil
	if defaultLogger {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		envFile:    opts.EnvFile,
		catalog:    opts.Catalog,
		search:     opts.Search,
		messenger:  opts.Messenger,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,

		defaultLogger: defaultLogger,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, catalogCommand, searchCommand, sendCommand, extractCommand, setupCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig returns the injected configuration or loads it from the config file, the env file and the environment.
func (r *Runner) loadConfig() (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	config, err := shared.Load(r.configPath, r.envFile)
	if err != nil {
		return nil, err
	}
	r.config = config
	return config, nil
}

func (r *Runner) client() (*http.Client, error) {
	if r.httpClient != nil {
		return r.httpClient, nil
	}
	config, err := r.loadConfig()
	if err != nil {
		return nil, err
	}
	r.httpClient = services.NewHTTPClient(config.HTTP.Timeout())
	return r.httpClient, nil
}

func (r *Runner) catalogService() (services.Catalog, error) {
	if r.catalog != nil {
		return r.catalog, nil
	}
	config, err := r.loadConfig()
	if err != nil {
		return nil, err
	}
	client, err := r.client()
	if err != nil {
		return nil, err
	}

	spotify, err := services.NewSpotifyService(config.Credentials.Spotify.Map(), client)
	if err != nil {
		return nil, err
	}
	spotify.SetLogger(shared.WithLogger(r.logger, "service", spotify.Name()))
	r.catalog = spotify
	return spotify, nil
}

func (r *Runner) searchService() (services.VideoSearcher, error) {
	if r.search != nil {
		return r.search, nil
	}
	config, err := r.loadConfig()
	if err != nil {
		return nil, err
	}
	client, err := r.client()
	if err != nil {
		return nil, err
	}

	youtube, err := services.NewYouTubeService(config.Credentials.YouTube.Map(), client)
	if err != nil {
		return nil, err
	}
	r.search = youtube
	return youtube, nil
}

func (r *Runner) messengerService() (services.Messenger, error) {
	if r.messenger != nil {
		return r.messenger, nil
	}
	config, err := r.loadConfig()
	if err != nil {
		return nil, err
	}
	client, err := r.client()
	if err != nil {
		return nil, err
	}

	twilio, err := services.NewTwilioService(config.Credentials.Twilio.Map(), client)
	if err != nil {
		return nil, err
	}
	r.messenger = twilio
	return twilio, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return r.writeBytes(output)
}

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if len(data) > 0 && data[len(data)-1] != '\n' {
		if _, err := r.output.Write([]byte("\n")); err != nil {
			return fmt.Errorf("failed to write newline: %w", err)
		}
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("%s\n", styles.title.Render(title))
}
