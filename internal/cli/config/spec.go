package config

// CLIConfig is the configuration for yedis-cli.
type CLIConfig struct {
	DefaultServer string `yaml:"default_server"`
	DefaultOutput string `yaml:"default_output"` // table, json, yaml

	Connections map[string]ConnectionConfig `yaml:"connections"`

	CurrentConnection string `yaml:"current_connection,omitempty"`
}

// ConnectionConfig stores saved connection details.
type ConnectionConfig struct {
	Server     string `yaml:"server"`
	Password   string `yaml:"password,omitempty"`
	TLS        bool   `yaml:"tls,omitempty"`
	TLSCA      string `yaml:"tls_ca,omitempty"`
	ServerName string `yaml:"server_name,omitempty"`
	Admin      string `yaml:"admin,omitempty"` // admin HTTP address
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		DefaultServer: "127.0.0.1:6379",
		DefaultOutput: "table",
		Connections:   make(map[string]ConnectionConfig),
	}
}

// Active returns the current connection profile. Without one it returns a
// profile pointing at DefaultServer.
func (c *CLIConfig) Active() ConnectionConfig {
	if conn, ok := c.Connections[c.CurrentConnection]; ok && c.CurrentConnection != "" {
		if conn.Server == "" {
			conn.Server = c.DefaultServer
		}
		return conn
	}
	return ConnectionConfig{Server: c.DefaultServer}
}
