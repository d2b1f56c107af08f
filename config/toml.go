package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/BurntSushi/toml"

	lvos "github.com/lightvote/lightvote/libs/os"
)

// defaultDirPerm is the default permissions used when creating directories.
const defaultDirPerm = 0700

var configTemplate *template.Template

func init() {
	var err error
	tmpl := template.New("configFileTemplate")
	if configTemplate, err = tmpl.Parse(defaultConfigTemplate); err != nil {
		panic(err)
	}
}

/****** these are for production settings ***********/

// EnsureRoot creates the root, config, and data directories if they don't
// exist, and writes a default config file if there is none.
func EnsureRoot(rootDir string) error {
	for _, dir := range []string{
		rootDir,
		filepath.Join(rootDir, defaultConfigDir),
		filepath.Join(rootDir, defaultDataDir),
	} {
		if err := lvos.EnsureDir(dir, defaultDirPerm); err != nil {
			return err
		}
	}
	return writeDefaultConfigFileIfNone(rootDir)
}

// WriteConfigFile renders config using the template and writes it to
// rootDir/config/config.toml. This function is called by `lightvote init`.
func WriteConfigFile(rootDir string, config *Config) error {
	return config.WriteToTemplate(filepath.Join(rootDir, defaultConfigFilePath))
}

// WriteToTemplate writes the config to the exact file specified by
// the path, in the default toml template and does not mangle the path
// or filename at all.
func (cfg *Config) WriteToTemplate(path string) error {
	var buffer bytes.Buffer

	if err := configTemplate.Execute(&buffer, cfg); err != nil {
		return err
	}

	return writeFile(path, buffer.Bytes(), 0644)
}

func writeDefaultConfigFileIfNone(rootDir string) error {
	configFilePath := filepath.Join(rootDir, defaultConfigFilePath)
	if !lvos.FileExists(configFilePath) {
		return WriteConfigFile(rootDir, DefaultConfig())
	}
	return nil
}

// LoadConfigFile reads a config file on top of the defaults. Keys missing
// from the file keep their default value. The root is the directory
// holding the config directory.
func LoadConfigFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in %s: %v", path, undecoded)
	}
	cfg.SetRoot(filepath.Dir(filepath.Dir(path)))
	return cfg, nil
}

// Note: any changes to the comments/variables/mapstructure
// must be reflected in the appropriate struct in config/config.go
const defaultConfigTemplate = `# This is a TOML config file.
# For more information, see https://github.com/toml-lang/toml

# NOTE: Any path below can be absolute (e.g. "/var/lightvote/data") or
# relative to the home directory (e.g. "data"). The home directory is
# "$HOME/.lightvote" by default, but could be changed via $LVHOME env variable
# or --home cmd flag.

#######################################################################
###                   Main Base Config Options                      ###
#######################################################################

# Output level for logging: debug | info | warn | error
log_level = "{{ .BaseConfig.LogLevel }}"

# Output format: 'plain' (colored text) or 'json'
log_format = "{{ .BaseConfig.LogFormat }}"

# Database backend of the verified header store: memdb | goleveldb
# * memdb
#   - headers are forgotten when the process exits
# * goleveldb (github.com/syndtr/goleveldb)
#   - headers survive across runs, so a primary serving a
#     different bank hash for a slot seen before is caught
db_backend = "{{ .BaseConfig.DBBackend }}"

# Database directory
db_dir = "{{ .BaseConfig.DBPath }}"

#######################################################################
###                    RPC Endpoints Options                        ###
#######################################################################
[rpc]

# JSON-RPC endpoint of the primary node. Transactions are submitted to
# and blocks are read from the primary.
primary = "{{ .RPC.Primary }}"

# JSON-RPC endpoints of the witnesses. The header of the slot a
# transaction landed in is cross-checked against every witness.
witnesses = [{{ range $i, $w := .RPC.Witnesses }}{{ if $i }}, {{ end }}"{{ $w }}"{{ end }}]

# Timeout of a single request.
timeout = "{{ .RPC.Timeout }}"

# How many times a request is attempted before the node is considered
# unresponsive.
max_retry_attempts = {{ .RPC.MaxRetryAttempts }}

# Commitment level requested from the nodes: confirmed | finalized
commitment = "{{ .RPC.Commitment }}"

#######################################################################
###                    Verification Options                         ###
#######################################################################
[verify]

# Number of slots after the transaction's slot scanned for votes.
slot_count = {{ .Verify.SlotCount }}

# Share of the total stake that has to vote for the bank hash,
# written as a fraction. Must be more than 1/2 and at most 1.
threshold = "{{ .Verify.Threshold }}"

# Maximum number of blocks fetched at once.
max_concurrency = {{ .Verify.MaxConcurrency }}

# How often a transaction or block that is not available yet is polled.
poll_interval = "{{ .Verify.PollInterval }}"

# Deadline of a whole verification. 0 means no deadline.
deadline = "{{ .Verify.Deadline }}"

# Accept headers without checking their PoH entries and bank hash.
skip_header_check = {{ .Verify.SkipHeaderCheck }}

# Check the ed25519 signature of every vote transaction.
verify_signatures = {{ .Verify.VerifySignatures }}

# Number of verified headers kept in the header store.
pruning_size = {{ .Verify.PruningSize }}

#######################################################################
###                 Instrumentation Config Options                  ###
#######################################################################
[instrumentation]

# When true, Prometheus metrics are served under /metrics on
# PrometheusListenAddr.
# Check out the documentation for the list of available metrics.
prometheus = {{ .Instrumentation.Prometheus }}

# Address to listen for Prometheus collector(s) connections
prometheus_listen_addr = "{{ .Instrumentation.PrometheusListenAddr }}"

# Instrumentation namespace
namespace = "{{ .Instrumentation.Namespace }}"
`

/****** these are for test settings ***********/

// ResetTestRoot creates a fresh home directory under dir holding a default
// config file and returns the test config rooted there.
func ResetTestRoot(dir, testName string) (*Config, error) {
	// create a unique, concurrency-safe test directory under dir
	rootDir, err := os.MkdirTemp(dir, testName+"_")
	if err != nil {
		return nil, err
	}
	if err := EnsureRoot(rootDir); err != nil {
		return nil, err
	}
	return TestConfig().SetRoot(rootDir), nil
}

func writeFile(filePath string, contents []byte, mode os.FileMode) error {
	if err := lvos.WriteFile(filePath, contents, mode); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
