package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/andreazorzetto/yh/highlight"
	"github.com/hokaccha/go-prettyjson"
	"github.com/spf13/cast"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"gopkg.in/yaml.v3"

	"github.com/lorekeep/lorekeep/conf"
	"github.com/lorekeep/lorekeep/internal/build"
	"github.com/lorekeep/lorekeep/internal/log"
	"github.com/lorekeep/lorekeep/internal/server"
	"github.com/lorekeep/lorekeep/internal/server/biz"
	"github.com/lorekeep/lorekeep/internal/tenant"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			handleConfigCommand()
			return
		case "token":
			handleTokenCommand()
			return
		case "version", "--version", "-v":
			showVersion()
			return
		case "help", "--help", "-h":
			showHelp()
			return
		case "build-info":
			showBuildInfo()
			return
		}
	}

	startServer()
}

func showBuildInfo() {
	fmt.Println(build.GetBuildInfo())
}

type logger struct{}

func (l *logger) LogEvent(event fxevent.Event) {
	log.Debug(context.Background(), "fx event", log.Any("event", event))
}

func startServer() {
	server.Run(
		fx.WithLogger(func() fxevent.Logger {
			return &logger{}
		}),
		fx.Provide(conf.Load),
		fx.Provide(
			conf.LogConfig,
			conf.ServerConfig,
			conf.StoreConfig,
			conf.LifecycleConfig,
			conf.SchedulerConfig,
			conf.PrivacyConfig,
			conf.AuthConfig,
		),
		fx.Invoke(func(lc fx.Lifecycle, server *server.Server) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					go func() {
						err := server.Run()
						if err != nil {
							log.Error(context.Background(), "server run error:", log.Cause(err))
							os.Exit(1)
						}
					}()

					return nil
				},
				OnStop: func(ctx context.Context) error {
					err := server.Shutdown(ctx)
					if err != nil {
						log.Error(context.Background(), "server shutdown error:", log.Cause(err))
					}

					return nil
				},
			})
		}),
	)
}

func handleConfigCommand() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: lorekeep config <preview|validate|get>")
		os.Exit(1)
	}

	switch os.Args[2] {
	case "preview":
		configPreview()
	case "validate":
		configValidate()
	case "get":
		configGet()
	default:
		fmt.Println("Usage: lorekeep config <preview|validate|get>")
		os.Exit(1)
	}
}

// handleTokenCommand mints an admin JWT for a tenant, for operators and
// local development. Tokens are signed with the configured secret key.
func handleTokenCommand() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: lorekeep token <tenant-id> <user-id> [role,...]")
		os.Exit(1)
	}

	roles := []string{"owner"}
	if len(os.Args) > 4 {
		roles = strings.Split(os.Args[4], ",")
	}

	config, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if config.Auth.SecretKey == "" {
		fmt.Fprintln(os.Stderr, "auth.secret_key must be configured to mint tokens")
		os.Exit(1)
	}

	auth, err := biz.NewAuthService(biz.AuthServiceParams{Config: config.Auth})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build auth service: %v\n", err)
		os.Exit(1)
	}

	tctx := tenant.NewContext(os.Args[2], os.Args[3], roles, nil)

	token, err := auth.GenerateJWTToken(tctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}

func configPreview() {
	format := "yml"

	for i := 3; i < len(os.Args); i++ {
		if os.Args[i] == "--format" || os.Args[i] == "-f" {
			if i+1 < len(os.Args) {
				format = os.Args[i+1]
			}
		}
	}

	config, err := conf.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var output string

	switch format {
	case "json":
		b, err := prettyjson.Marshal(config)
		if err != nil {
			fmt.Printf("Failed to preview config: %v\n", err)
			os.Exit(1)
		}

		output = string(b)
	case "yml", "yaml":
		b, err := yaml.Marshal(config)
		if err != nil {
			fmt.Printf("Failed to preview config: %v\n", err)
			os.Exit(1)
		}

		output, err = highlight.Highlight(bytes.NewBuffer(b))
		if err != nil {
			fmt.Printf("Failed to preview config: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Printf("Unsupported format: %s\n", format)
		os.Exit(1)
	}

	fmt.Println(output)
}

func configValidate() {
	config, err := conf.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	errors := validateConfig(config)

	if len(errors) == 0 {
		fmt.Println("Configuration is valid!")
		return
	}

	fmt.Println("Configuration validation failed:")

	for _, err := range errors {
		fmt.Printf("  - %s\n", err)
	}

	os.Exit(1)
}

func validateConfig(config conf.Config) []string {
	var errors []string

	if config.APIServer.Port <= 0 || config.APIServer.Port > 65535 {
		errors = append(errors, "server.port must be between 1 and 65535")
	}

	if config.Store.Path == "" {
		errors = append(errors, "store.path cannot be empty")
	}

	if config.Scheduler.CRON == "" {
		errors = append(errors, "scheduler.cron cannot be empty")
	}

	if config.Lifecycle.ReviewWindow <= 0 {
		errors = append(errors, "lifecycle.review_window must be positive")
	}

	for _, window := range []struct {
		name  string
		value time.Duration
	}{
		{"lifecycle.retention.public", config.Lifecycle.Retention.Public},
		{"lifecycle.retention.personal", config.Lifecycle.Retention.Personal},
		{"lifecycle.retention.confidential", config.Lifecycle.Retention.Confidential},
		{"lifecycle.retention.secret", config.Lifecycle.Retention.Secret},
	} {
		if window.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive", window.name))
		}
	}

	if config.APIServer.CORS.Enabled && len(config.APIServer.CORS.AllowedOrigins) == 0 {
		errors = append(errors, "server.cors.allowed_origins cannot be empty when CORS is enabled")
	}

	return errors
}

func configGet() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: lorekeep config get <key>")
		fmt.Println("")
		fmt.Println("Available keys:")
		fmt.Println("  server.port      Server port number")
		fmt.Println("  server.name      Server name")
		fmt.Println("  store.path       Entity store path")
		fmt.Println("  scheduler.cron   Dissolution scan schedule")
		os.Exit(1)
	}

	key := os.Args[3]

	config, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var value interface{}

	switch key {
	case "server.port":
		value = config.APIServer.Port
	case "server.name":
		value = config.APIServer.Name
	case "server.debug":
		value = config.APIServer.Debug
	case "store.path":
		value = config.Store.Path
	case "scheduler.cron":
		value = config.Scheduler.CRON
	default:
		fmt.Fprintf(os.Stderr, "Unknown config key: %s\n", key)
		os.Exit(1)
	}

	fmt.Println(cast.ToString(value))
}

func showHelp() {
	fmt.Println("Lorekeep Entity Lifecycle Engine")
	fmt.Println("")
	fmt.Println("Usage:")
	fmt.Println("  lorekeep                            Start the server (default)")
	fmt.Println("  lorekeep config preview             Preview configuration")
	fmt.Println("  lorekeep config validate            Validate configuration")
	fmt.Println("  lorekeep config get <key>           Get a specific config value")
	fmt.Println("  lorekeep token <tenant> <user>      Mint an admin token")
	fmt.Println("  lorekeep version                    Show version")
	fmt.Println("  lorekeep help                       Show this help message")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -f, --format FORMAT       Output format for config preview (yml, json)")
}

func showVersion() {
	fmt.Println(build.Version)
}
