package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/lightvote/lightvote/libs/log"
	lvmath "github.com/lightvote/lightvote/libs/math"
	"github.com/lightvote/lightvote/vote"
)

const (
	// LogFormatPlain is a format for colored text
	LogFormatPlain = log.LogFormatPlain
	// LogFormatJSON is a format for json output
	LogFormatJSON = log.LogFormatJSON

	// DBBackendMem keeps verified headers in memory for a single run.
	DBBackendMem = "memdb"
	// DBBackendGoLevelDB persists verified headers across runs.
	DBBackendGoLevelDB = "goleveldb"

	// CommitmentConfirmed and CommitmentFinalized are the commitment levels
	// requested from the primary.
	CommitmentConfirmed = "confirmed"
	CommitmentFinalized = "finalized"
)

// NOTE: Most of the structs & relevant comments + the
// default configuration options were used to manually
// generate the config.toml. Please reflect any changes
// made here in the defaultConfigTemplate constant in
// config/toml.go
// NOTE: libs/cli must know to look in the config dir!
var (
	DefaultLightvoteDir = ".lightvote"
	defaultConfigDir    = "config"
	defaultDataDir      = "data"

	defaultConfigFileName = "config.toml"

	defaultConfigFilePath = filepath.Join(defaultConfigDir, defaultConfigFileName)
)

// Config defines the top level configuration of the lightvote client.
type Config struct {
	// Top level options use an anonymous struct
	BaseConfig `mapstructure:",squash"`

	RPC             *RPCConfig             `mapstructure:"rpc" toml:"rpc"`
	Verify          *VerifyConfig          `mapstructure:"verify" toml:"verify"`
	Instrumentation *InstrumentationConfig `mapstructure:"instrumentation" toml:"instrumentation"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseConfig:      DefaultBaseConfig(),
		RPC:             DefaultRPCConfig(),
		Verify:          DefaultVerifyConfig(),
		Instrumentation: DefaultInstrumentationConfig(),
	}
}

// TestConfig returns a configuration that can be used for testing
func TestConfig() *Config {
	return &Config{
		BaseConfig:      TestBaseConfig(),
		RPC:             TestRPCConfig(),
		Verify:          TestVerifyConfig(),
		Instrumentation: TestInstrumentationConfig(),
	}
}

// SetRoot sets the RootDir for all Config structs
func (cfg *Config) SetRoot(root string) *Config {
	cfg.BaseConfig.RootDir = root
	return cfg
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *Config) ValidateBasic() error {
	if err := cfg.BaseConfig.ValidateBasic(); err != nil {
		return err
	}
	if err := cfg.RPC.ValidateBasic(); err != nil {
		return errors.Wrap(err, "Error in [rpc] section")
	}
	if err := cfg.Verify.ValidateBasic(); err != nil {
		return errors.Wrap(err, "Error in [verify] section")
	}
	return errors.Wrap(
		cfg.Instrumentation.ValidateBasic(),
		"Error in [instrumentation] section",
	)
}

//-----------------------------------------------------------------------------
// BaseConfig

// BaseConfig defines the base configuration of the client.
type BaseConfig struct {
	// The root directory for all data.
	// This should be set in viper so it can unmarshal into this struct
	RootDir string `mapstructure:"home" toml:"-"`

	// Output level for logging
	LogLevel string `mapstructure:"log_level" toml:"log_level"`

	// Output format: 'plain' (colored text) or 'json'
	LogFormat string `mapstructure:"log_format" toml:"log_format"`

	// Database backend of the verified header store: memdb | goleveldb
	// * memdb
	//   - headers are forgotten when the process exits
	// * goleveldb (github.com/syndtr/goleveldb)
	//   - headers survive across runs, so a primary serving a
	//     different bank hash for a slot seen before is caught
	DBBackend string `mapstructure:"db_backend" toml:"db_backend"`

	// Database directory
	DBPath string `mapstructure:"db_dir" toml:"db_dir"`
}

// DefaultBaseConfig returns a default base configuration.
func DefaultBaseConfig() BaseConfig {
	return BaseConfig{
		LogLevel:  log.LogLevelInfo,
		LogFormat: LogFormatPlain,
		DBBackend: DBBackendMem,
		DBPath:    defaultDataDir,
	}
}

// TestBaseConfig returns a base configuration for testing.
func TestBaseConfig() BaseConfig {
	cfg := DefaultBaseConfig()
	cfg.LogLevel = log.LogLevelDebug
	return cfg
}

// DBDir returns the full path to the database directory
func (cfg BaseConfig) DBDir() string {
	return rootify(cfg.DBPath, cfg.RootDir)
}

// ConfigFile returns the full path to the config.toml file
func (cfg BaseConfig) ConfigFile() string {
	return rootify(defaultConfigFilePath, cfg.RootDir)
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg BaseConfig) ValidateBasic() error {
	switch cfg.LogFormat {
	case LogFormatPlain, LogFormatJSON:
	default:
		return errors.New("unknown log_format (must be 'plain' or 'json')")
	}
	switch cfg.DBBackend {
	case DBBackendMem, DBBackendGoLevelDB:
	default:
		return fmt.Errorf("unknown db_backend %q (must be '%s' or '%s')",
			cfg.DBBackend, DBBackendMem, DBBackendGoLevelDB)
	}
	return nil
}

//-----------------------------------------------------------------------------
// RPCConfig

// RPCConfig defines the nodes the client talks to.
type RPCConfig struct {
	// JSON-RPC endpoint of the primary node. Transactions are submitted to
	// and blocks are read from the primary.
	Primary string `mapstructure:"primary" toml:"primary"`

	// JSON-RPC endpoints of the witnesses. The header of the slot a
	// transaction landed in is cross-checked against every witness.
	Witnesses []string `mapstructure:"witnesses" toml:"witnesses"`

	// Timeout of a single request.
	Timeout time.Duration `mapstructure:"timeout" toml:"timeout"`

	// How many times a request is attempted before the node is considered
	// unresponsive.
	MaxRetryAttempts int `mapstructure:"max_retry_attempts" toml:"max_retry_attempts"`

	// Commitment level requested from the nodes: confirmed | finalized
	Commitment string `mapstructure:"commitment" toml:"commitment"`
}

// DefaultRPCConfig returns a default configuration for the RPC endpoints.
func DefaultRPCConfig() *RPCConfig {
	return &RPCConfig{
		Primary:          "http://127.0.0.1:8899",
		Witnesses:        []string{},
		Timeout:          10 * time.Second,
		MaxRetryAttempts: 5,
		Commitment:       CommitmentConfirmed,
	}
}

// TestRPCConfig returns a configuration for testing the RPC endpoints.
func TestRPCConfig() *RPCConfig {
	cfg := DefaultRPCConfig()
	cfg.Timeout = time.Second
	cfg.MaxRetryAttempts = 1
	return cfg
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *RPCConfig) ValidateBasic() error {
	if err := validateEndpoint(cfg.Primary); err != nil {
		return errors.Wrap(err, "primary")
	}
	for i, w := range cfg.Witnesses {
		if err := validateEndpoint(w); err != nil {
			return errors.Wrapf(err, "witness #%d", i)
		}
		if w == cfg.Primary {
			return fmt.Errorf("witness #%d is the primary", i)
		}
	}
	if cfg.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if cfg.MaxRetryAttempts < 1 {
		return errors.New("max_retry_attempts must be at least 1")
	}
	switch cfg.Commitment {
	case CommitmentConfirmed, CommitmentFinalized:
	default:
		return fmt.Errorf("unknown commitment %q (must be '%s' or '%s')",
			cfg.Commitment, CommitmentConfirmed, CommitmentFinalized)
	}
	return nil
}

func validateEndpoint(endpoint string) error {
	if endpoint == "" {
		return errors.New("endpoint is empty")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint %q must be http or https", endpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint %q has no host", endpoint)
	}
	return nil
}

//-----------------------------------------------------------------------------
// VerifyConfig

// VerifyConfig defines how a transaction is verified.
type VerifyConfig struct {
	// Number of slots after the transaction's slot scanned for votes.
	SlotCount int `mapstructure:"slot_count" toml:"slot_count"`

	// Share of the total stake that has to vote for the bank hash,
	// written as a fraction. Must be more than 1/2 and at most 1.
	Threshold string `mapstructure:"threshold" toml:"threshold"`

	// Maximum number of blocks fetched at once.
	MaxConcurrency int `mapstructure:"max_concurrency" toml:"max_concurrency"`

	// How often a transaction or block that is not available yet is polled.
	PollInterval time.Duration `mapstructure:"poll_interval" toml:"poll_interval"`

	// Deadline of a whole verification. 0 means no deadline.
	Deadline time.Duration `mapstructure:"deadline" toml:"deadline"`

	// Accept headers without checking their PoH entries and bank hash.
	SkipHeaderCheck bool `mapstructure:"skip_header_check" toml:"skip_header_check"`

	// Check the ed25519 signature of every vote transaction.
	VerifySignatures bool `mapstructure:"verify_signatures" toml:"verify_signatures"`

	// Number of verified headers kept in the header store.
	PruningSize uint16 `mapstructure:"pruning_size" toml:"pruning_size"`
}

// DefaultVerifyConfig returns a default verification configuration.
func DefaultVerifyConfig() *VerifyConfig {
	return &VerifyConfig{
		SlotCount:        40,
		Threshold:        vote.DefaultThreshold.String(),
		MaxConcurrency:   8,
		PollInterval:     500 * time.Millisecond,
		Deadline:         2 * time.Minute,
		SkipHeaderCheck:  false,
		VerifySignatures: true,
		PruningSize:      1000,
	}
}

// TestVerifyConfig returns a verification configuration for testing.
func TestVerifyConfig() *VerifyConfig {
	cfg := DefaultVerifyConfig()
	cfg.SlotCount = 4
	cfg.PollInterval = 10 * time.Millisecond
	cfg.Deadline = 10 * time.Second
	return cfg
}

// ThresholdFraction returns the parsed threshold.
func (cfg *VerifyConfig) ThresholdFraction() (lvmath.Fraction, error) {
	return lvmath.ParseFraction(cfg.Threshold)
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *VerifyConfig) ValidateBasic() error {
	if cfg.SlotCount < 1 {
		return errors.New("slot_count must be at least 1")
	}
	thr, err := cfg.ThresholdFraction()
	if err != nil {
		return errors.Wrap(err, "threshold")
	}
	if err := vote.ValidateThreshold(thr); err != nil {
		return errors.Wrap(err, "threshold")
	}
	if cfg.MaxConcurrency < 1 {
		return errors.New("max_concurrency must be at least 1")
	}
	if cfg.PollInterval <= 0 {
		return errors.New("poll_interval must be positive")
	}
	if cfg.Deadline < 0 {
		return errors.New("deadline can't be negative")
	}
	if cfg.PruningSize == 0 {
		return errors.New("pruning_size must be at least 1")
	}
	return nil
}

//-----------------------------------------------------------------------------
// InstrumentationConfig

// InstrumentationConfig defines the configuration for metrics reporting.
type InstrumentationConfig struct {
	// When true, Prometheus metrics are served under /metrics on
	// PrometheusListenAddr.
	// Check out the documentation for the list of available metrics.
	Prometheus bool `mapstructure:"prometheus" toml:"prometheus"`

	// Address to listen for Prometheus collector(s) connections.
	PrometheusListenAddr string `mapstructure:"prometheus_listen_addr" toml:"prometheus_listen_addr"`

	// Instrumentation namespace.
	Namespace string `mapstructure:"namespace" toml:"namespace"`
}

// DefaultInstrumentationConfig returns a default configuration for metrics
// reporting.
func DefaultInstrumentationConfig() *InstrumentationConfig {
	return &InstrumentationConfig{
		Prometheus:           false,
		PrometheusListenAddr: ":26660",
		Namespace:            "lightvote",
	}
}

// TestInstrumentationConfig returns a default configuration for metrics
// reporting.
func TestInstrumentationConfig() *InstrumentationConfig {
	return DefaultInstrumentationConfig()
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *InstrumentationConfig) ValidateBasic() error {
	if cfg.Prometheus && cfg.PrometheusListenAddr == "" {
		return errors.New("prometheus_listen_addr can't be empty when prometheus is on")
	}
	if cfg.Namespace == "" {
		return errors.New("namespace can't be empty")
	}
	return nil
}

//-----------------------------------------------------------------------------
// Utils

// helper function to make config creation independent of root dir
func rootify(path, root string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
