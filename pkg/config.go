package pkg

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/shono-io/edgeship/api"
	"github.com/shono-io/edgeship/auth"
	"github.com/shono-io/edgeship/notify"
	"github.com/shono-io/edgeship/poll"
	"github.com/shono-io/edgeship/sdk"
)

const (
	EnvPrefix = "MPC"

	DefaultArtifactPath = "artifacts/Shut Up.zip"
	DefaultNotesPath    = "reviewer-notes.txt"
)

type Config struct {
	API      api.Config
	Auth     auth.Config
	Poll     poll.Config
	Artifact ArtifactConfig
	Notify   NotifyConfig
	Log      LogConfig
}

type ArtifactConfig struct {
	Path  string
	Notes string
}

type NotifyConfig struct {
	Nats notify.NatsConfig
}

type LogConfig struct {
	Level  string
	Format string
}

// legacyEnv maps config keys to the environment names the release scripts
// have always used.
var legacyEnv = map[string]string{
	"api.product_id":     "MPC_PRODUCT_ID",
	"auth.api_key":       "MPC_API_KEY",
	"auth.client_id":     "MPC_CLIENT_ID",
	"auth.client_secret": "MPC_CLIENT_SECRET",
	"auth.token_url":     "MPC_TOKEN_URL",
	"auth.scopes":        "MPC_SCOPE",
}

// ConfigureViper sets the env binding and defaults on v.
func ConfigureViper(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		canonical := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, canonical, legacy); err != nil {
			return fmt.Errorf("unable to bind %s: %w", key, err)
		}
	}

	v.SetDefault("auth.mode", string(auth.APIKeyMode))
	v.SetDefault("api.retry_max", 0)
	v.SetDefault("api.timeout", api.DefaultTimeout)
	v.SetDefault("artifact.path", DefaultArtifactPath)
	v.SetDefault("artifact.notes", DefaultNotesPath)
	v.SetDefault("notify.nats.prefix", notify.DefaultSubjectPrefix)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	return nil
}

func LoadConfig(v *viper.Viper) (Config, error) {
	result := Config{}

	result.API = api.Config{
		ServerURL:    strings.TrimSpace(v.GetString("api.server")),
		ProductID:    strings.TrimSpace(v.GetString("api.product_id")),
		RetryMax:     v.GetInt("api.retry_max"),
		RetryWaitMin: v.GetDuration("api.retry_wait_min"),
		RetryWaitMax: v.GetDuration("api.retry_wait_max"),
		Timeout:      v.GetDuration("api.timeout"),
	}

	result.Auth = auth.Config{
		Mode:         auth.Mode(strings.ToLower(strings.TrimSpace(v.GetString("auth.mode")))),
		APIKey:       v.GetString("auth.api_key"),
		ClientID:     v.GetString("auth.client_id"),
		ClientSecret: v.GetString("auth.client_secret"),
		TokenURL:     v.GetString("auth.token_url"),
		Scopes:       splitList(v.GetStringSlice("auth.scopes")),
	}

	pc, err := loadPollConfig(v, result.Auth.Mode)
	if err != nil {
		return Config{}, err
	}
	result.Poll = pc

	result.Artifact = ArtifactConfig{
		Path:  v.GetString("artifact.path"),
		Notes: v.GetString("artifact.notes"),
	}

	result.Notify.Nats = notify.NatsConfig{
		Url:           v.GetString("notify.nats.url"),
		Jwt:           v.GetString("notify.nats.jwt"),
		Seed:          v.GetString("notify.nats.seed"),
		CredsFile:     v.GetString("notify.nats.creds"),
		SubjectPrefix: v.GetString("notify.nats.prefix"),
	}

	result.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	return result, result.Validate()
}

// loadPollConfig starts from the named profile, or the one matching the
// auth mode, and applies explicit overrides on top.
func loadPollConfig(v *viper.Viper, mode auth.Mode) (poll.Config, error) {
	profile := v.GetString("poll.profile")
	if profile == "" {
		profile = poll.APIKeyProfile
		if mode == auth.ClientCredentialsMode {
			profile = poll.OAuthProfile
		}
	}

	pc, err := poll.Profile(profile)
	if err != nil {
		return poll.Config{}, err
	}

	if v.IsSet("poll.max_checks") {
		pc.MaxChecks = v.GetInt("poll.max_checks")
	}
	if v.IsSet("poll.inclusive_bound") {
		pc.InclusiveBound = v.GetBool("poll.inclusive_bound")
	}
	if v.IsSet("poll.base_delay") {
		pc.BaseDelay = v.GetDuration("poll.base_delay")
	}
	if v.IsSet("poll.min_delay") {
		pc.MinDelay = v.GetDuration("poll.min_delay")
	}
	if v.IsSet("poll.wait_first") {
		pc.WaitFirst = v.GetBool("poll.wait_first")
	}
	for _, s := range splitList(v.GetStringSlice("poll.success_statuses")) {
		pc.SuccessStatuses = append(pc.SuccessStatuses, sdk.OperationStatus(s))
	}

	return pc, nil
}

func (c Config) Validate() error {
	var missing []string
	if c.API.ServerURL == "" {
		missing = append(missing, "api.server ("+EnvPrefix+"_API_SERVER)")
	}
	if c.API.ProductID == "" {
		missing = append(missing, "api.product_id ("+legacyEnv["api.product_id"]+")")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing configuration: %s", strings.Join(missing, ", "))
	}

	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	if c.API.RetryMax < 0 {
		return fmt.Errorf("api.retry_max must not be negative")
	}

	if err := c.Poll.Validate(); err != nil {
		return err
	}

	switch c.Auth.Mode {
	case "", auth.APIKeyMode, auth.ClientCredentialsMode:
	default:
		return fmt.Errorf("%w: %q", auth.ErrUnsupportedMode, c.Auth.Mode)
	}

	return nil
}

// Worst is how long polling one operation can take at most.
func (c Config) Worst() time.Duration {
	return c.Poll.Schedule().Worst()
}

// splitList accepts both repeated values and a single comma or space
// separated string, as env vars arrive.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.FieldsFunc(item, func(r rune) bool { return r == ',' || r == ' ' }) {
			out = append(out, part)
		}
	}
	return out
}
