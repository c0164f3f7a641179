package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/config"
)

func unsetReset(env string) func() {
	original := os.Getenv(env)
	os.Setenv(env, "")
	return func() {
		os.Setenv(env, original)
	}
}

func setReset(env, value string) func() {
	original := os.Getenv(env)
	os.Setenv(env, value)
	return func() {
		os.Setenv(env, original)
	}
}

func clearConfigEnv() func() {
	resets := make([]func(), 0, len(config.Vars))
	for _, v := range config.Vars {
		resets = append(resets, unsetReset(v))
	}
	return func() {
		for _, r := range resets {
			r()
		}
	}
}

func TestNewAppConfigurationDefaults(t *testing.T) {
	defer clearConfigEnv()()

	conf, err := config.NewAppConfiguration(config.CommandLineOpts{})
	if err != nil {
		t.Fatalf("NewAppConfiguration: %v", err)
	}
	if conf.DatabaseConnection.Port != "3306" {
		t.Errorf("default db port %q", conf.DatabaseConnection.Port)
	}
	if conf.DatabaseConnection.Driver != "mysql" {
		t.Errorf("default driver %q", conf.DatabaseConnection.Driver)
	}
	if conf.ServerSettings.BasePath != "/services/tracker-access/1.0" {
		t.Errorf("default base path %q", conf.ServerSettings.BasePath)
	}
	if conf.ServerSettings.PermissionCacheTTL != 20 {
		t.Errorf("default permission cache ttl %d", conf.ServerSettings.PermissionCacheTTL)
	}
	if conf.EventQueue.Topic != "tracker-access-event" {
		t.Errorf("default topic %q", conf.EventQueue.Topic)
	}
	if conf.EventQueue.BrokerPath != "/brokers/ids" {
		t.Errorf("default broker path %q", conf.EventQueue.BrokerPath)
	}
	if len(conf.EventQueue.PublishSuccessActions) != 1 || conf.EventQueue.PublishSuccessActions[0] != "*" {
		t.Errorf("default success actions %v", conf.EventQueue.PublishSuccessActions)
	}
	if conf.CryptoSettings.Iterations != 100000 {
		t.Errorf("default iterations %d", conf.CryptoSettings.Iterations)
	}
	if conf.ShareDefaults.TTL != 72 {
		t.Errorf("default share ttl %d", conf.ShareDefaults.TTL)
	}
	if conf.ShareDefaults.MaxAccesses != 0 {
		t.Errorf("default share cap %d", conf.ShareDefaults.MaxAccesses)
	}
}

func TestEnvironmentOverridesConfigFile(t *testing.T) {
	defer clearConfigEnv()()
	defer setReset(config.ACT_DB_PORT, "5555")()
	defer setReset(config.ACT_EVENT_TOPIC, "override-topic")()

	conf, err := config.NewAppConfiguration(config.CommandLineOpts{Conf: "testfixtures/complete.yml"})
	if err != nil {
		t.Fatalf("NewAppConfiguration: %v", err)
	}
	if conf.DatabaseConnection.Port != "5555" {
		t.Errorf("env should override file, got port %q", conf.DatabaseConnection.Port)
	}
	if conf.EventQueue.Topic != "override-topic" {
		t.Errorf("env should override file, got topic %q", conf.EventQueue.Topic)
	}
	// unset vars still honor the file
	if conf.DatabaseConnection.Host != "db.internal" {
		t.Errorf("file value lost, got host %q", conf.DatabaseConnection.Host)
	}
	if conf.ShareDefaults.MaxAccesses != 3 {
		t.Errorf("file value lost, got share cap %d", conf.ShareDefaults.MaxAccesses)
	}
}

func TestCommandLineWhitelistWins(t *testing.T) {
	defer clearConfigEnv()()
	defer setReset(config.ACT_SERVER_IMPERSONATION_WHITELIST, "env-system")()

	opts := config.CommandLineOpts{Conf: "testfixtures/complete.yml", Whitelist: []string{"cli-system"}}
	conf, err := config.NewAppConfiguration(opts)
	if err != nil {
		t.Fatalf("NewAppConfiguration: %v", err)
	}
	if len(conf.ServerSettings.ImpersonationWhitelist) != 1 || conf.ServerSettings.ImpersonationWhitelist[0] != "cli-system" {
		t.Errorf("cli whitelist should win, got %v", conf.ServerSettings.ImpersonationWhitelist)
	}
}

func TestIterationFloorRejected(t *testing.T) {
	defer clearConfigEnv()()
	defer setReset(config.ACT_ENCRYPT_ITERATIONS, "50000")()

	if _, err := config.NewAppConfiguration(config.CommandLineOpts{}); err == nil {
		t.Error("expected an error for iterations below the floor")
	}
}

func TestMasterKeyFromFile(t *testing.T) {
	defer clearConfigEnv()()

	path := filepath.Join(t.TempDir(), "masterkey")
	if err := os.WriteFile(path, []byte("file-root-secret\n"), 0600); err != nil {
		t.Fatal(err)
	}
	defer setReset(config.ACT_ENCRYPT_MASTERKEY_FILE, path)()

	conf, err := config.NewAppConfiguration(config.CommandLineOpts{})
	if err != nil {
		t.Fatalf("NewAppConfiguration: %v", err)
	}
	if conf.CryptoSettings.MasterKey != "file-root-secret" {
		t.Errorf("master key from file %q", conf.CryptoSettings.MasterKey)
	}
}

func TestMasterKeyEnvWinsOverFile(t *testing.T) {
	defer clearConfigEnv()()

	path := filepath.Join(t.TempDir(), "masterkey")
	if err := os.WriteFile(path, []byte("file-root-secret"), 0600); err != nil {
		t.Fatal(err)
	}
	defer setReset(config.ACT_ENCRYPT_MASTERKEY_FILE, path)()
	defer setReset(config.ACT_ENCRYPT_MASTERKEY, "env-root-secret")()

	conf, err := config.NewAppConfiguration(config.CommandLineOpts{})
	if err != nil {
		t.Fatalf("NewAppConfiguration: %v", err)
	}
	if conf.CryptoSettings.MasterKey != "env-root-secret" {
		t.Errorf("env master key should win, got %q", conf.CryptoSettings.MasterKey)
	}
}

func TestCascadeStringSlice(t *testing.T) {
	defer unsetReset("ACT_TEST_SLICE")()

	got := config.CascadeStringSlice("ACT_TEST_SLICE", nil, []string{"*"})
	if len(got) != 1 || got[0] != "*" {
		t.Errorf("default slice %v", got)
	}

	os.Setenv("ACT_TEST_SLICE", "a,b,c")
	got = config.CascadeStringSlice("ACT_TEST_SLICE", []string{"file"}, []string{"*"})
	if len(got) != 3 || got[2] != "c" {
		t.Errorf("env slice %v", got)
	}

	os.Setenv("ACT_TEST_SLICE", "")
	got = config.CascadeStringSlice("ACT_TEST_SLICE", []string{"file"}, []string{"*"})
	if len(got) != 1 || got[0] != "file" {
		t.Errorf("file slice %v", got)
	}
}
