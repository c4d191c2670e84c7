// internal/commands/root_flags_test.go
package annobench

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/pgxlab/annobench/internal/logging"
)

func resetFlag(cmdFlag string) {
	flag := rootCmd.PersistentFlags().Lookup(cmdFlag)
	if flag == nil {
		return
	}
	_ = flag.Value.Set(flag.DefValue)
	flag.Changed = false
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func useConfig(t *testing.T, configPath string) {
	t.Helper()
	prevCfgFile := cfgFile
	cfgFile = configPath
	viper.SetConfigFile(configPath)
	t.Cleanup(func() {
		cfgFile = prevCfgFile
		viper.SetConfigFile(prevCfgFile)
	})
	t.Cleanup(func() { _ = logging.Close() })
}

func TestPersistentPreRunEUsesFlagValues(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "annobench.log")
	configPath := writeTempConfig(t, "{}")
	useConfig(t, configPath)

	for _, name := range []string{"debug", "concurrency", "logFile"} {
		resetFlag(name)
	}
	_ = rootCmd.PersistentFlags().Set("debug", "true")
	_ = rootCmd.PersistentFlags().Set("concurrency", "7")
	_ = rootCmd.PersistentFlags().Set("logFile", logPath)

	if err := rootCmd.PersistentPreRunE(rootCmd, []string{}); err != nil {
		t.Fatalf("PersistentPreRunE error: %v", err)
	}

	if currentConfig == nil || currentConfig.ConfigPath != configPath {
		t.Fatalf("expected config loaded with path %s", configPath)
	}
	if !currentConfig.Debug {
		t.Fatalf("expected flag values to flow into config: %+v", currentConfig)
	}
	if currentConfig.ConcurrencyLimit() != 7 {
		t.Fatalf("expected concurrency 7, got %d", currentConfig.ConcurrencyLimit())
	}
	if currentConfig.LogFilePath() != logPath {
		t.Fatalf("expected logFile %s, got %s", logPath, currentConfig.LogFilePath())
	}
}

func TestPersistentPreRunEReadsConfigFile(t *testing.T) {
	configPath := writeTempConfig(t, `{
  "extractor": {"name": "local", "url": "http://127.0.0.1:11434", "model": "llama3.1:8b"},
  "dataDir": "testdata/articles",
  "timeout": 120
}`)
	useConfig(t, configPath)

	for _, name := range []string{"debug", "concurrency", "logFile"} {
		resetFlag(name)
	}

	if err := rootCmd.PersistentPreRunE(rootCmd, []string{}); err != nil {
		t.Fatalf("PersistentPreRunE error: %v", err)
	}

	cfg := GetConfig()
	if cfg.Extractor.Model != "llama3.1:8b" {
		t.Fatalf("extractor model = %q", cfg.Extractor.Model)
	}
	if cfg.Extractor.URL != "http://127.0.0.1:11434" {
		t.Fatalf("extractor url = %q", cfg.Extractor.URL)
	}
	if cfg.RequestTimeout().Seconds() != 120 {
		t.Fatalf("timeout = %s", cfg.RequestTimeout())
	}
	if cfg.ArticlePath("PMC42") != filepath.Join("testdata/articles", "PMC42.txt") {
		t.Fatalf("article path = %s", cfg.ArticlePath("PMC42"))
	}
}

func TestShowConfigCommandOutput(t *testing.T) {
	configPath := writeTempConfig(t, `{"extractor": {"name": "local", "url": "http://127.0.0.1:11434", "model": "llama3.1:8b"}}`)
	useConfig(t, configPath)

	for _, name := range []string{"debug", "concurrency", "logFile"} {
		resetFlag(name)
	}

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"show", "config"})
	t.Cleanup(func() { rootCmd.SetArgs([]string{}) })
	if _, err := rootCmd.ExecuteC(); err != nil {
		t.Fatalf("ExecuteC error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Config file: "+configPath) {
		t.Fatalf("expected config file path in output, got %s", out)
	}
	if !strings.Contains(out, "llama3.1:8b") {
		t.Fatalf("expected model in output, got %s", out)
	}
}
