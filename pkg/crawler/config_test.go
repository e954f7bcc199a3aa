package crawler

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()

	if c.Port != 443 {
		t.Errorf("Port = %d, want 443", c.Port)
	}
	if c.Quota != 5 {
		t.Errorf("Quota = %d, want 5", c.Quota)
	}
	if c.LoginPath != "/accounts/login/" || c.LogoutPath != "/accounts/logout/" {
		t.Errorf("paths = %q / %q", c.LoginPath, c.LogoutPath)
	}
	if c.Output.Format != "text" {
		t.Errorf("Output.Format = %q, want text", c.Output.Format)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		c := DefaultConfig()
		c.Server = "app.example.com"
		c.Username = "alice"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"no server", func(c *Config) { c.Server = "" }, true},
		{"no username", func(c *Config) { c.Username = "" }, true},
		{"zero port", func(c *Config) { c.Port = 0 }, true},
		{"port too high", func(c *Config) { c.Port = 65536 }, true},
		{"zero quota", func(c *Config) { c.Quota = 0 }, true},
		{"no login path", func(c *Config) { c.LoginPath = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `server: app.example.com
port: 8443
username: alice
quota: 3
transport:
  legacy_framing: true
output:
  format: json
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if c.Server != "app.example.com" || c.Port != 8443 || c.Quota != 3 {
		t.Errorf("config = %+v", c)
	}
	if !c.Transport.LegacyFraming {
		t.Error("transport.legacy_framing not loaded")
	}
	if c.Output.Format != "json" {
		t.Errorf("output format = %q", c.Output.Format)
	}
	// Unset fields keep defaults.
	if c.LoginPath != "/accounts/login/" {
		t.Errorf("LoginPath = %q, want default", c.LoginPath)
	}
}

func TestLoadFromFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"server": "app.example.com", "username": "alice", "quota": 2}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if c.Server != "app.example.com" || c.Quota != 2 {
		t.Errorf("config = %+v", c)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadFromFile() expected error for missing file")
	}
}
