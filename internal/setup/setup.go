// Package setup registers the stdio MCP server with desktop MCP clients.
package setup

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
)

// ServerName is the key used for this server in the client's mcpServers map.
const ServerName = "ascod-toast-classifier"

// binaryNames are the names the MCP server binary is looked up under.
var binaryNames = []string{"ascod-mcp-server", "mcp-server"}

// MCPServerConfig represents a single MCP server entry.
type MCPServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// Options contains options for registering the server.
type Options struct {
	ConfigPath string            // client config file; empty means the platform default
	BinaryPath string            // MCP server binary; empty means search common locations
	Env        map[string]string // environment passed to the server process
}

// Status represents the current registration.
type Status struct {
	ConfigPath string   `json:"config_path"`
	Registered bool     `json:"registered"`
	Command    string   `json:"command,omitempty"`
	EnvKeys    []string `json:"env_keys,omitempty"`
	Issues     []string `json:"issues"`
}

// DefaultConfigPath returns the desktop client's config file for this OS.
func DefaultConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support", "Claude")
	case "linux":
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "Claude")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config", "Claude")
		}
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		configDir = filepath.Join(appData, "Claude")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	return filepath.Join(configDir, "claude_desktop_config.json"), nil
}

// clientConfig keeps every key of the client file so that saving only
// changes our entry.
type clientConfig struct {
	top     map[string]json.RawMessage
	servers map[string]json.RawMessage
}

func loadClientConfig(path string) (*clientConfig, error) {
	cfg := &clientConfig{
		top:     make(map[string]json.RawMessage),
		servers: make(map[string]json.RawMessage),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) == 0 {
		return cfg, nil
	}

	if err := json.Unmarshal(data, &cfg.top); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.top == nil {
		cfg.top = make(map[string]json.RawMessage)
	}
	if raw, ok := cfg.top["mcpServers"]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &cfg.servers); err != nil {
			return nil, fmt.Errorf("failed to parse mcpServers: %w", err)
		}
	}
	return cfg, nil
}

func (c *clientConfig) save(path string) error {
	servers, err := json.Marshal(c.servers)
	if err != nil {
		return fmt.Errorf("failed to marshal mcpServers: %w", err)
	}
	c.top["mcpServers"] = servers

	data, err := json.MarshalIndent(c.top, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *clientConfig) entry() (MCPServerConfig, bool, error) {
	raw, ok := c.servers[ServerName]
	if !ok {
		return MCPServerConfig{}, false, nil
	}
	var entry MCPServerConfig
	if err := json.Unmarshal(raw, &entry); err != nil {
		return MCPServerConfig{}, true, fmt.Errorf("failed to parse %s entry: %w", ServerName, err)
	}
	return entry, true, nil
}

// Register adds or replaces this server's entry in the client config and
// returns the path written.
func Register(opts Options) (string, error) {
	configPath, err := resolveConfigPath(opts.ConfigPath)
	if err != nil {
		return "", err
	}

	binaryPath := opts.BinaryPath
	if binaryPath == "" {
		binaryPath, err = findBinary()
		if err != nil {
			return "", fmt.Errorf("could not find server binary: %w", err)
		}
	}
	if abs, err := filepath.Abs(binaryPath); err == nil {
		binaryPath = abs
	}

	cfg, err := loadClientConfig(configPath)
	if err != nil {
		return "", err
	}

	entry, err := json.Marshal(MCPServerConfig{Command: binaryPath, Env: opts.Env})
	if err != nil {
		return "", fmt.Errorf("failed to marshal server entry: %w", err)
	}
	cfg.servers[ServerName] = entry

	if err := cfg.save(configPath); err != nil {
		return "", err
	}
	return configPath, nil
}

// Unregister removes this server's entry. It reports whether one existed.
func Unregister(configPath string) (bool, error) {
	configPath, err := resolveConfigPath(configPath)
	if err != nil {
		return false, err
	}
	cfg, err := loadClientConfig(configPath)
	if err != nil {
		return false, err
	}
	if _, ok := cfg.servers[ServerName]; !ok {
		return false, nil
	}
	delete(cfg.servers, ServerName)
	return true, cfg.save(configPath)
}

// GetStatus inspects the client config. Env values are not reported, only
// their keys.
func GetStatus(configPath string) (*Status, error) {
	configPath, err := resolveConfigPath(configPath)
	if err != nil {
		return nil, err
	}
	status := &Status{ConfigPath: configPath, Issues: []string{}}

	cfg, err := loadClientConfig(configPath)
	if err != nil {
		return nil, err
	}
	entry, ok, err := cfg.entry()
	if err != nil {
		status.Issues = append(status.Issues, err.Error())
		return status, nil
	}
	if !ok {
		status.Issues = append(status.Issues, ServerName+" is not registered")
		return status, nil
	}

	status.Registered = true
	status.Command = entry.Command
	for k := range entry.Env {
		status.EnvKeys = append(status.EnvKeys, k)
	}
	sort.Strings(status.EnvKeys)

	info, err := os.Stat(entry.Command)
	switch {
	case err != nil:
		status.Issues = append(status.Issues, fmt.Sprintf("server binary not found: %s", entry.Command))
	case runtime.GOOS != "windows" && info.Mode()&0o111 == 0:
		status.Issues = append(status.Issues, fmt.Sprintf("server binary is not executable: %s", entry.Command))
	}
	return status, nil
}

func resolveConfigPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return DefaultConfigPath()
}

// findBinary looks for the MCP server binary on PATH and in build locations.
func findBinary() (string, error) {
	for _, name := range binaryNames {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}

	for _, name := range binaryNames {
		locations := []string{
			"./" + name,
			"./bin/" + name,
			"./build/" + name,
		}
		if home, err := os.UserHomeDir(); err == nil {
			locations = append(locations, filepath.Join(home, ".local", "bin", name))
		}
		for _, loc := range locations {
			if info, err := os.Stat(loc); err == nil && !info.IsDir() {
				return filepath.Abs(loc)
			}
		}
	}

	return "", fmt.Errorf("none of %v found on PATH or in ./, ./bin, ./build", binaryNames)
}
