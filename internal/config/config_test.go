package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "ssdpd") {
		t.Errorf("GetConfigDir() = %v, should contain 'ssdpd'", configDir)
	}

	// Platform-specific checks
	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("macOS config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux and other Unix systems")
	}
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if configDir != filepath.Join(tmp, "ssdpd") {
		t.Errorf("GetConfigDir() = %v, want %v", configDir, filepath.Join(tmp, "ssdpd"))
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv(PathEnvVar, "")
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}

	override := filepath.Join(t.TempDir(), "custom.yaml")
	t.Setenv(PathEnvVar, override)
	configPath, err = GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if configPath != override {
		t.Errorf("GetConfigPath() = %v, want %v", configPath, override)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	if cfg.Version != 1 {
		t.Errorf("NewConfig().Version = %v, want 1", cfg.Version)
	}
	if !cfg.Engine.SuppressSelfDiscovery {
		t.Error("NewConfig().Engine.SuppressSelfDiscovery should be true by default")
	}
	if cfg.Engine.StartRollback {
		t.Error("NewConfig().Engine.StartRollback should be false by default")
	}
	if cfg.Client.SearchTarget != "ssdp:all" {
		t.Errorf("NewConfig().Client.SearchTarget = %v, want ssdp:all", cfg.Client.SearchTarget)
	}
	if cfg.Client.MX != 2 {
		t.Errorf("NewConfig().Client.MX = %v, want 2", cfg.Client.MX)
	}
	if len(cfg.Devices) != 0 {
		t.Errorf("NewConfig().Devices = %v, want none", cfg.Devices)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Client.SearchInterval != 5*time.Minute {
		t.Errorf("SearchInterval = %v, want default 5m", cfg.Client.SearchInterval)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := NewConfig()
	cfg.Engine.Interfaces = []string{"eth0", "wlan0"}
	cfg.Client.SearchInterval = 90 * time.Second
	cfg.Devices = []DeviceConfig{ExampleDevice()}
	cfg.Devices[0].UUID = "uuid:5d7c2a8e-6f10-4b3e-9d2a-0c1b2a3d4e5f"

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "# ssdpd configuration file") {
		t.Error("saved config should start with the header comment")
	}
	if !strings.Contains(string(data), "search_interval: 1m30s") {
		t.Errorf("durations should be written as strings, got:\n%s", data)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should not remain after save")
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if len(loaded.Engine.Interfaces) != 2 || loaded.Engine.Interfaces[1] != "wlan0" {
		t.Errorf("Interfaces = %v, want [eth0 wlan0]", loaded.Engine.Interfaces)
	}
	if loaded.Client.SearchInterval != 90*time.Second {
		t.Errorf("SearchInterval = %v, want 1m30s", loaded.Client.SearchInterval)
	}
	if len(loaded.Devices) != 1 {
		t.Fatalf("Devices = %d, want 1", len(loaded.Devices))
	}
	dev := loaded.Devices[0]
	if dev.UUID != cfg.Devices[0].UUID {
		t.Errorf("UUID = %v, want %v", dev.UUID, cfg.Devices[0].UUID)
	}
	if len(dev.Services) != 1 || len(dev.Services[0].Actions) != 3 {
		t.Errorf("Services = %+v, want one service with three actions", dev.Services)
	}
}

func TestLoadAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(PathEnvVar, path)

	cfg := NewConfig()
	cfg.Client.MX = 3
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	loaded, err := Reload()
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if loaded.Client.MX != 3 {
		t.Errorf("Client.MX = %d, want 3", loaded.Client.MX)
	}

	cfg.Client.MX = 4
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}
	if cached, _ := Load(); cached != loaded {
		t.Error("Load() should return the cached instance")
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := Load(); err != nil {
				t.Errorf("Load() error = %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := Reload(); err != nil {
				t.Errorf("Reload() error = %v", err)
			}
		}()
	}
	wg.Wait()

	current, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if current.Client.MX != 4 {
		t.Errorf("Client.MX after Reload = %d, want 4", current.Client.MX)
	}
}

func TestLoadFile_UnsupportedVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("version: 2\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(path)
	if err == nil || !strings.Contains(err.Error(), "unsupported config version: 2") {
		t.Errorf("LoadFile() error = %v, want unsupported version", err)
	}
}

func TestLoadFile_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("version: [1\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("LoadFile() error = %v, want parse failure", err)
	}
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `version: 1
client:
  enabled: true
  search_target: upnp:rootdevice
  mx: 3
server:
  addr: 127.0.0.1:9000
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SSDPD_LOG_LEVEL", "debug")
	t.Setenv("SSDPD_ENGINE_START_ROLLBACK", "true")
	t.Setenv("SSDPD_ENGINE_INTERFACES", "eth1,eth2")
	t.Setenv("SSDPD_CLIENT_SEARCH_INTERVAL", "45s")
	t.Setenv("SSDPD_SERVER_TLS_CERT", "/etc/ssdpd/cert.pem")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
	if !cfg.Engine.StartRollback {
		t.Error("StartRollback should be overridden to true")
	}
	if len(cfg.Engine.Interfaces) != 2 || cfg.Engine.Interfaces[0] != "eth1" {
		t.Errorf("Interfaces = %v, want [eth1 eth2]", cfg.Engine.Interfaces)
	}
	if cfg.Client.SearchInterval != 45*time.Second {
		t.Errorf("SearchInterval = %v, want 45s", cfg.Client.SearchInterval)
	}
	if cfg.Server.TLSCert != "/etc/ssdpd/cert.pem" {
		t.Errorf("TLSCert = %v", cfg.Server.TLSCert)
	}

	// Values not overridden keep the file's settings
	if cfg.Client.SearchTarget != "upnp:rootdevice" {
		t.Errorf("SearchTarget = %v, want upnp:rootdevice", cfg.Client.SearchTarget)
	}
	if cfg.Client.MX != 3 {
		t.Errorf("MX = %v, want 3", cfg.Client.MX)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("Addr = %v, want 127.0.0.1:9000", cfg.Server.Addr)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		device  DeviceConfig
		wantErr string
	}{
		{
			name:   "valid",
			device: ExampleDevice(),
		},
		{
			name:    "missing friendly name",
			device:  DeviceConfig{DeviceType: "urn:schemas-upnp-org:device:BinaryLight:1"},
			wantErr: "friendly_name is required",
		},
		{
			name:    "missing device type",
			device:  DeviceConfig{FriendlyName: "Lamp"},
			wantErr: "device_type is required",
		},
		{
			name:    "bad uuid",
			device:  DeviceConfig{FriendlyName: "Lamp", DeviceType: "urn:x", UUID: "not-a-uuid"},
			wantErr: "invalid uuid",
		},
		{
			name: "service without type",
			device: DeviceConfig{
				FriendlyName: "Lamp",
				DeviceType:   "urn:x",
				Services:     []ServiceConfig{{ID: "urn:upnp-org:serviceId:Thing"}},
			},
			wantErr: "type is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			cfg.Devices = []DeviceConfig{tt.device}
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnsureUUIDs(t *testing.T) {
	cfg := NewConfig()
	cfg.Devices = []DeviceConfig{ExampleDevice(), ExampleDevice()}
	cfg.Devices[1].UUID = "uuid:5d7c2a8e-6f10-4b3e-9d2a-0c1b2a3d4e5f"

	if !cfg.EnsureUUIDs() {
		t.Error("EnsureUUIDs() should report a change")
	}
	if cfg.Devices[0].UUID == "" {
		t.Error("first device should have a generated UUID")
	}
	if cfg.Devices[1].UUID != "uuid:5d7c2a8e-6f10-4b3e-9d2a-0c1b2a3d4e5f" {
		t.Error("existing UUID should be kept")
	}
	if cfg.EnsureUUIDs() {
		t.Error("second EnsureUUIDs() should not change anything")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() after EnsureUUIDs() error = %v", err)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := CreateDefaultConfig(path, false)
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	if len(cfg.Devices) != 1 || cfg.Devices[0].UUID == "" {
		t.Errorf("default config should contain one device with a UUID, got %+v", cfg.Devices)
	}

	if _, err := CreateDefaultConfig(path, false); err == nil {
		t.Error("CreateDefaultConfig() should refuse to overwrite without overwrite=true")
	}
	if _, err := CreateDefaultConfig(path, true); err != nil {
		t.Errorf("CreateDefaultConfig(overwrite) error = %v", err)
	}
}

func TestServiceConfigSCPD(t *testing.T) {
	svc := ExampleDevice().Services[0]
	doc := svc.SCPD()

	if len(doc.Actions) != 3 {
		t.Fatalf("Actions = %d, want 3", len(doc.Actions))
	}
	if doc.Actions[0].Arguments[0].RelatedStateVariable != "Target" {
		t.Errorf("related state variable = %v, want Target", doc.Actions[0].Arguments[0].RelatedStateVariable)
	}

	status := doc.GetStateVariable("Status")
	if status == nil {
		t.Fatal("Status state variable missing")
	}
	if status.SendEvents != "yes" || status.DataType.Name != "boolean" {
		t.Errorf("Status = %+v, want evented boolean", status)
	}
	if target := doc.GetStateVariable("Target"); target == nil || target.SendEvents != "no" {
		t.Errorf("Target = %+v, want non-evented", target)
	}
}
