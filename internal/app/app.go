package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/five82/atlasapi/atlas"
	"github.com/five82/atlasapi/internal/config"
	"github.com/five82/atlasapi/internal/logging"
	"github.com/five82/atlasapi/internal/prefs"
	"github.com/five82/atlasapi/internal/prompt"
)

// Environment variables that switch token refresh to a fixed login.
const (
	EnvUsername = "ATLAS_API_USERNAME"
	EnvPassword = "ATLAS_API_PASSWORD"
)

// ErrUsage marks a malformed command line.
var ErrUsage = errors.New("usage")

// Options configure a single CLI invocation.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/atlasapi/prefs.toml
	LogLevel   string
	LogFormat  string
	LogFile    string

	// Args is the command name followed by its flags and arguments.
	Args []string

	Stdin  io.Reader // nil uses the terminal
	Stdout io.Writer
	Stderr io.Writer

	// HTTPClient and Prompter override the defaults, mainly for tests.
	HTTPClient atlas.HTTPDoer
	Prompter   atlas.Prompter
}

// Run executes one command and prints its result as JSON on stdout.
func Run(ctx context.Context, opts Options) error {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if len(opts.Args) == 0 {
		printUsage(opts.Stderr)
		return fmt.Errorf("%w: no command given", ErrUsage)
	}
	name, args := opts.Args[0], opts.Args[1:]
	cmd, ok := lookupCommand(name)
	if !ok {
		printUsage(opts.Stderr)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, name)
	}

	logger, err := logging.Setup(logging.Options{
		Level:  opts.LogLevel,
		Format: opts.LogFormat,
		File:   opts.LogFile,
		Output: opts.Stderr,
	})
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer func() { _ = logging.Close() }()

	env := &env{out: opts.Stdout, log: logger, prefsPath: opts.PrefsPath}
	if cmd.needsServer {
		client, exec, err := connect(opts, logger)
		if err != nil {
			return err
		}
		env.client = client
		env.exec = exec
	} else {
		env.lists = atlas.DefaultLists()
	}

	result, err := cmd.run(ctx, env, args)
	if err != nil {
		return fmt.Errorf("%s: %w", cmd.name, err)
	}
	return writeJSON(opts.Stdout, result)
}

func connect(opts Options, logger logrus.FieldLogger) (*atlas.Client, *atlas.Executor, error) {
	path, err := config.Resolve(opts.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve config path: %w", err)
	}
	cfg, err := atlas.LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}

	execOpts := []atlas.Option{
		atlas.WithLogger(logger),
		atlas.WithNoticeWriter(opts.Stderr),
	}
	if b, ok := atlas.BackoffFromConfig(cfg); ok {
		logger.WithField("retry_max", b.MaxRetries).Debug("transport retries enabled")
		execOpts = append(execOpts, atlas.WithBackoff(b))
	}
	if opts.HTTPClient != nil {
		execOpts = append(execOpts, atlas.WithHTTPClient(opts.HTTPClient))
	}
	execOpts = append(execOpts, credentialOption(opts, logger))

	exec, err := atlas.NewExecutor(cfg, execOpts...)
	if err != nil {
		return nil, nil, err
	}
	client, err := atlas.NewClient(exec)
	if err != nil {
		return nil, nil, err
	}
	return client, exec, nil
}

// credentialOption prefers a fixed login from the environment, then an
// injected prompter, then the terminal form styled by the user's prefs.
func credentialOption(opts Options, logger logrus.FieldLogger) atlas.Option {
	user := strings.TrimSpace(os.Getenv(EnvUsername))
	pass := os.Getenv(EnvPassword)
	if user != "" && pass != "" {
		return atlas.WithCredentialProvider(atlas.PasswordProvider{
			Login: atlas.Login{Username: user, Password: pass},
			HTTP:  opts.HTTPClient,
		})
	}
	if opts.Prompter != nil {
		return atlas.WithPrompter(opts.Prompter)
	}

	userPrefs, _ := prefs.Load(opts.PrefsPath)
	return atlas.WithPrompter(atlas.PrompterFunc(func(ctx context.Context, notice string) (atlas.Login, error) {
		res, err := prompt.Run(ctx, prompt.Options{
			Notice:   notice,
			Theme:    userPrefs.Theme,
			Username: userPrefs.Username,
			Input:    opts.Stdin,
			Output:   opts.Stderr,
		})
		if err != nil {
			return atlas.Login{}, err
		}
		rememberLogin(opts.PrefsPath, userPrefs, res, logger)
		return atlas.Login{Username: res.Username, Password: res.Password}, nil
	}))
}

// rememberLogin keeps the username and the theme picked in the form for the
// next prompt. The password is never saved.
func rememberLogin(path string, current prefs.Prefs, res prompt.Result, logger logrus.FieldLogger) {
	next := prefs.Prefs{Theme: res.Theme, Username: res.Username}
	if next == current {
		return
	}
	if err := prefs.Save(path, next); err != nil {
		logger.WithError(err).Warn("failed to save prefs")
	}
}
