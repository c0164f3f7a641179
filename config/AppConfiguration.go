package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/crypto"
)

var (
	defaultDBDriver = "mysql"
	defaultDBHost   = "trackerdb"
	defaultDBPort   = "3306"
)

var empty []string

// AppConfiguration is a structure that defines the known configuration format
// for this application.
type AppConfiguration struct {
	DatabaseConnection DatabaseConfiguration       `yaml:"database"`
	ServerSettings     ServerSettingsConfiguration `yaml:"server"`
	EventQueue         EventQueueConfiguration     `yaml:"event_queue"`
	CryptoSettings     CryptoConfiguration         `yaml:"crypto"`
	ShareDefaults      ShareDefaultsConfiguration  `yaml:"share_defaults"`
}

// CommandLineOpts holds command line options parsed on application start. This
// object is passed to the configuration constructors so command line params
// can override certain configurations.
type CommandLineOpts struct {
	// Conf is a path to our YAML configuration file.
	Conf string
	// Whitelist holds impersonation whitelist entries passed at the command line.
	Whitelist []string
}

// NewCommandLineOpts instantiates CommandLineOpts from a pointer to the parsed
// command line context. The actual parsing is handled by the cli framework.
func NewCommandLineOpts(clictx *cli.Context) CommandLineOpts {
	return CommandLineOpts{
		Conf:      clictx.String("conf"),
		Whitelist: clictx.StringSlice("whitelist"),
	}
}

// DatabaseConfiguration is a structure that defines the attributes
// needed for setting up database connection
type DatabaseConfiguration struct {
	// Driver specifies the database driver. Only "mysql" is supported.
	Driver string `yaml:"driver"`
	// Username is the database username.
	Username string `yaml:"username"`
	// Password is the database password. Supports the ENC{...} at-rest form.
	Password string `yaml:"password"`
	// Protocol specifies the network protocol. Only "tcp" is supported.
	Protocol string `yaml:"protocol"`
	// Host is the database hostname.
	Host string `yaml:"host"`
	// Port is the database port. Commonly 3306 for MySQL.
	Port string `yaml:"port"`
	// Schema is the database name to connect to.
	Schema string `yaml:"schema"`
	// Params are custom connection params injected into the DSN. Some of
	// these are required: parseTime=true must be present for timestamp columns
	// to scan.
	Params string `yaml:"conn_params"`
	// MaxIdleConns caps the idle connection pool.
	MaxIdleConns int64 `yaml:"max_idle_conns"`
	// MaxOpenConns caps total open connections.
	MaxOpenConns int64 `yaml:"max_open_conns"`
	// ConnMaxLifetime recycles connections after this many seconds.
	ConnMaxLifetime int64 `yaml:"conn_max_lifetime"`
}

// ServerSettingsConfiguration holds the attributes needed for
// setting up an AppServer listener.
type ServerSettingsConfiguration struct {
	// BasePath is the URL prefix all routes are mounted under.
	BasePath string `yaml:"base_path"`
	// ListenPort is the port the server listens on.
	ListenPort string `yaml:"port"`
	// ListenBind is the address to bind to.
	ListenBind string `yaml:"bind"`
	// ImpersonationWhitelist is a list of system identifiers. If a caller
	// presents one of these in X-External-System, it may pass us another user
	// id in an HTTP header and "impersonate" that identity. The common case is
	// an edge gateway terminating end-user authentication and passing requests
	// through on their behalf.
	ImpersonationWhitelist []string `yaml:"impersonation_whitelist"`
	// PermissionCacheTTL is how long, in seconds, a resolved effective
	// permission set may be served from cache.
	PermissionCacheTTL int64 `yaml:"permission_cache_ttl"`
	// PermissionCacheSize caps the number of cached permission resolutions.
	PermissionCacheSize int64 `yaml:"permission_cache_size"`
	// IdleTimeout, ReadTimeout and WriteTimeout configure the HTTP server, in
	// seconds.
	IdleTimeout  int64 `yaml:"timeout_idle"`
	ReadTimeout  int64 `yaml:"timeout_read"`
	WriteTimeout int64 `yaml:"timeout_write"`
}

// EventQueueConfiguration configures publishing to the Kafka event queue.
type EventQueueConfiguration struct {
	// KafkaAddrs is a list of host:port pairs of Kafka brokers. If provided,
	// a direct connection to the brokers is established.
	KafkaAddrs []string `yaml:"kafka_addrs"`
	// ZKAddrs is a list of host:port pairs of ZK nodes. A common
	// architecture is to have a ZK cluster entirely dedicated to Kafka. This
	// config option handles that scenario.
	ZKAddrs []string `yaml:"zk_addrs"`
	// BrokerPath is the Zookeeper path Kafka brokers announce under.
	BrokerPath string `yaml:"zk_path"`
	// ZKTimeout configures the Zookeeper session timeout in seconds.
	ZKTimeout int64 `yaml:"zk_timeout"`
	// PublishSuccessActions, if provided, specifies the allowed-decision
	// actions to publish. If empty, all are published.
	PublishSuccessActions []string `yaml:"publish_success_actions"`
	// PublishFailureActions, if provided, specifies the denied-decision
	// actions to publish. If empty, all are published.
	PublishFailureActions []string `yaml:"publish_failure_actions"`
	// Topic denotes the name of the topic to publish events to in Kafka.
	Topic string `yaml:"topic"`
}

// CryptoConfiguration holds the master secret and key derivation settings.
type CryptoConfiguration struct {
	// MasterKey is the master encryption secret. This must be kept safe.
	// Losing this secret makes sealed notes and config secrets unrecoverable.
	// Prefer ACT_ENCRYPT_MASTERKEY or a key file over placing it in YAML.
	MasterKey string `yaml:"masterkey"`
	// MasterKeyPath is a file holding the master secret, trailing whitespace
	// trimmed. Used when MasterKey is not set directly.
	MasterKeyPath string `yaml:"masterkey_file"`
	// Iterations is the PBKDF2 work factor. Values below the enforced floor
	// are rejected at startup rather than silently raised.
	Iterations int64 `yaml:"iterations"`
	// KeyCacheSize caps the derived key cache. Zero disables caching.
	KeyCacheSize int64 `yaml:"key_cache_size"`
}

// ShareDefaultsConfiguration sets defaults applied to newly created share
// links when the request leaves them unspecified.
type ShareDefaultsConfiguration struct {
	// TTL is the default lifetime of a share link, in hours.
	TTL int64 `yaml:"ttl"`
	// MaxAccesses is the default access cap. Zero means uncapped.
	MaxAccesses int64 `yaml:"max_accesses"`
}

// NewAppConfiguration loads the configuration from the different sources in
// the environment. If multiple configuration sources can be used, the order of
// precedence is: env var overrides config file overrides default.
func NewAppConfiguration(opts CommandLineOpts) (AppConfiguration, error) {

	var confFile AppConfiguration
	if opts.Conf != "" {
		loaded, err := LoadYAMLConfig(opts.Conf)
		if err != nil {
			return AppConfiguration{}, fmt.Errorf("error loading yaml configuration at path %s: %v", opts.Conf, err)
		}
		confFile = loaded
	}

	dbConf, err := NewDatabaseConfigFromEnv(confFile, opts)
	if err != nil {
		return AppConfiguration{}, err
	}
	serverSettings := NewServerSettingsFromEnv(confFile, opts)
	eventQueue := NewEventQueueConfiguration(confFile, opts)
	cryptoSettings, err := NewCryptoConfigFromEnv(confFile, opts)
	if err != nil {
		return AppConfiguration{}, err
	}
	shareDefaults := NewShareDefaultsFromEnv(confFile, opts)

	return AppConfiguration{
		DatabaseConnection: dbConf,
		ServerSettings:     serverSettings,
		EventQueue:         eventQueue,
		CryptoSettings:     cryptoSettings,
		ShareDefaults:      shareDefaults,
	}, nil
}

// NewDatabaseConfigFromEnv inspects the environment and returns a DatabaseConfiguration.
func NewDatabaseConfigFromEnv(confFile AppConfiguration, opts CommandLineOpts) (DatabaseConfiguration, error) {

	var dbConf DatabaseConfiguration

	// From environment
	dbConf.Username = cascade(ACT_DB_USERNAME, confFile.DatabaseConnection.Username, "")
	pwd, err := MaybeDecrypt(cascade(ACT_DB_PASSWORD, confFile.DatabaseConnection.Password, ""))
	if err != nil {
		return dbConf, fmt.Errorf("unable to decrypt database password: %v", err)
	}
	dbConf.Password = pwd
	dbConf.Host = cascade(ACT_DB_HOST, confFile.DatabaseConnection.Host, defaultDBHost)
	dbConf.Port = cascade(ACT_DB_PORT, confFile.DatabaseConnection.Port, defaultDBPort)
	dbConf.Schema = cascade(ACT_DB_SCHEMA, confFile.DatabaseConnection.Schema, "trackerdb")
	dbConf.Params = cascade(ACT_DB_CONN_PARAMS, confFile.DatabaseConnection.Params, "parseTime=true&collation=utf8mb4_unicode_ci&readTimeout=30s")
	dbConf.MaxIdleConns = cascadeInt(ACT_DB_MAXIDLECONNS, confFile.DatabaseConnection.MaxIdleConns, 10)
	dbConf.MaxOpenConns = cascadeInt(ACT_DB_MAXOPENCONNS, confFile.DatabaseConnection.MaxOpenConns, 10)
	dbConf.ConnMaxLifetime = cascadeInt(ACT_DB_CONNMAXLIFETIME, confFile.DatabaseConnection.ConnMaxLifetime, 30)

	// Defaults
	dbConf.Protocol = "tcp"
	dbConf.Driver = defaultDBDriver

	return dbConf, nil
}

// NewServerSettingsFromEnv inspects the environment and returns a ServerSettingsConfiguration.
func NewServerSettingsFromEnv(confFile AppConfiguration, opts CommandLineOpts) ServerSettingsConfiguration {

	var settings ServerSettingsConfiguration

	// From env
	settings.BasePath = cascade(ACT_SERVER_BASEPATH, confFile.ServerSettings.BasePath, "/services/tracker-access/1.0")
	settings.ListenPort = cascade(ACT_SERVER_PORT, confFile.ServerSettings.ListenPort, "4480")
	settings.ListenBind = cascade(ACT_SERVER_BINDADDRESS, confFile.ServerSettings.ListenBind, "0.0.0.0")
	settings.PermissionCacheTTL = cascadeInt(ACT_CACHE_PERMISSION_TTL, confFile.ServerSettings.PermissionCacheTTL, 20)
	settings.PermissionCacheSize = cascadeInt(ACT_CACHE_PERMISSION_SIZE, confFile.ServerSettings.PermissionCacheSize, 1000)
	settings.IdleTimeout = cascadeInt(ACT_SERVER_TIMEOUT_IDLE, confFile.ServerSettings.IdleTimeout, 60)
	settings.ReadTimeout = cascadeInt(ACT_SERVER_TIMEOUT_READ, confFile.ServerSettings.ReadTimeout, 15)
	settings.WriteTimeout = cascadeInt(ACT_SERVER_TIMEOUT_WRITE, confFile.ServerSettings.WriteTimeout, 15)

	// Use cli options, environment, or configuration file for the whitelist
	// (whichever has values first is used)
	settings.ImpersonationWhitelist = selectNonEmptyStringSlice(
		opts.Whitelist,
		CascadeStringSlice(ACT_SERVER_IMPERSONATION_WHITELIST, confFile.ServerSettings.ImpersonationWhitelist, empty))

	return settings
}

// NewEventQueueConfiguration reads the environment to provide the configuration for the Kafka event queue.
func NewEventQueueConfiguration(confFile AppConfiguration, opts CommandLineOpts) EventQueueConfiguration {
	var eqc EventQueueConfiguration
	eqc.KafkaAddrs = CascadeStringSlice(ACT_EVENT_KAFKA_ADDRS, confFile.EventQueue.KafkaAddrs, empty)
	eqc.ZKAddrs = CascadeStringSlice(ACT_EVENT_ZK_ADDRS, confFile.EventQueue.ZKAddrs, empty)
	eqc.BrokerPath = cascade(ACT_EVENT_ZK_PATH, confFile.EventQueue.BrokerPath, "/brokers/ids")
	eqc.ZKTimeout = cascadeInt(ACT_EVENT_ZK_TIMEOUT, confFile.EventQueue.ZKTimeout, 5)
	eqc.PublishSuccessActions = CascadeStringSlice(ACT_EVENT_PUBLISH_SUCCESS_ACTIONS, confFile.EventQueue.PublishSuccessActions, []string{"*"})
	eqc.PublishFailureActions = CascadeStringSlice(ACT_EVENT_PUBLISH_FAILURE_ACTIONS, confFile.EventQueue.PublishFailureActions, []string{"*"})
	eqc.Topic = cascade(ACT_EVENT_TOPIC, confFile.EventQueue.Topic, "tracker-access-event")
	return eqc
}

// NewCryptoConfigFromEnv inspects the environment and returns a
// CryptoConfiguration. The master secret resolves from the environment, then a
// key file, then YAML. An iteration count below the derivation floor is a
// startup error; beginning to seal data under weak parameters is not
// recoverable by fixing the config later.
func NewCryptoConfigFromEnv(confFile AppConfiguration, opts CommandLineOpts) (CryptoConfiguration, error) {
	var cc CryptoConfiguration
	cc.MasterKeyPath = cascade(ACT_ENCRYPT_MASTERKEY_FILE, confFile.CryptoSettings.MasterKeyPath, "")
	cc.Iterations = cascadeInt(ACT_ENCRYPT_ITERATIONS, confFile.CryptoSettings.Iterations, crypto.MinIterations)
	cc.KeyCacheSize = cascadeInt(ACT_ENCRYPT_KEY_CACHE, confFile.CryptoSettings.KeyCacheSize, 128)

	if cc.Iterations < crypto.MinIterations {
		return cc, fmt.Errorf("%s=%d is below the minimum of %d iterations", ACT_ENCRYPT_ITERATIONS, cc.Iterations, crypto.MinIterations)
	}

	key, err := resolveMasterKey(cascade(ACT_ENCRYPT_MASTERKEY, confFile.CryptoSettings.MasterKey, ""), cc.MasterKeyPath)
	if err != nil {
		return cc, err
	}
	cc.MasterKey = key
	return cc, nil
}

func resolveMasterKey(direct, path string) (string, error) {
	if direct != "" {
		return direct, nil
	}
	if path != "" {
		contents, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("unable to read master key file %s: %v", path, err)
		}
		key := strings.TrimSpace(string(contents))
		if key == "" {
			return "", fmt.Errorf("master key file %s is empty", path)
		}
		return key, nil
	}
	return "", nil
}

// NewShareDefaultsFromEnv inspects the environment and returns a ShareDefaultsConfiguration.
func NewShareDefaultsFromEnv(confFile AppConfiguration, opts CommandLineOpts) ShareDefaultsConfiguration {
	var sd ShareDefaultsConfiguration
	sd.TTL = cascadeInt(ACT_SHARE_DEFAULT_TTL, confFile.ShareDefaults.TTL, 72)
	sd.MaxAccesses = cascadeInt(ACT_SHARE_MAX_ACCESSES, confFile.ShareDefaults.MaxAccesses, 0)
	if sd.TTL < 1 {
		sd.TTL = 72
	}
	return sd
}

// NewEngine constructs the crypto engine this configuration describes.
func (c CryptoConfiguration) NewEngine() *crypto.Engine {
	opts := []crypto.Opt{
		crypto.WithLogger(RootLogger),
		crypto.WithIterations(int(c.Iterations)),
	}
	if c.KeyCacheSize > 0 {
		opts = append(opts, crypto.WithKeyCache(int(c.KeyCacheSize)))
	}
	return crypto.NewEngine(opts...)
}

// GetDatabaseHandle initializes a database connection using the configuration.
func (r *DatabaseConfiguration) GetDatabaseHandle() (*sqlx.DB, error) {
	db, err := sqlx.Open(r.Driver, r.buildDSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxIdleConns(int(r.MaxIdleConns))
	db.SetMaxOpenConns(int(r.MaxOpenConns))
	db.SetConnMaxLifetime(time.Duration(r.ConnMaxLifetime) * time.Second)
	return db, nil
}

// buildDSN prepares a Data Source Name suitable for the mysql driver
// documented at https://github.com/go-sql-driver/mysql.
func (r *DatabaseConfiguration) buildDSN() string {
	var dbDSN = ""
	if len(r.Username) > 0 {
		dbDSN += r.Username
		if len(r.Password) > 0 {
			dbDSN += ":" + r.Password
		}
	}
	if len(dbDSN) > 0 {
		dbDSN += "@"
	}
	if len(r.Protocol) > 0 {
		dbDSN += r.Protocol + "("
		if len(r.Host) > 0 {
			dbDSN += r.Host
		} else {
			dbDSN += defaultDBHost
		}
		dbDSN += ":"
		if len(r.Port) > 0 {
			dbDSN += r.Port
		} else {
			dbDSN += defaultDBPort
		}
		dbDSN += ")"
	}
	dbDSN += "/"
	if len(r.Schema) > 0 {
		dbDSN += r.Schema
	}
	if len(r.Params) > 0 {
		dbDSN += "?" + r.Params
	}
	logDSN := dbDSN
	if len(r.Password) > 0 {
		logDSN = strings.Replace(logDSN, r.Password, "{password}", -1)
	}
	if len(r.Username) > 0 {
		logDSN = strings.Replace(logDSN, r.Username, "{username}", -1)
	}
	logger.Info("using this connection string", zap.String("dbdsn", logDSN))
	return dbDSN
}

func cascade(fromEnv, fromFile, defaultVal string) string {
	if envVal := os.Getenv(fromEnv); envVal != "" {
		return envVal
	}
	if fromFile != "" {
		return fromFile
	}
	return defaultVal
}

func cascadeInt(fromEnv string, fromFile, defaultVal int64) int64 {
	if parsed, err := strconv.ParseInt(os.Getenv(fromEnv), 10, 64); err == nil {
		return parsed
	}
	if fromFile != 0 {
		return fromFile
	}
	return defaultVal
}

// CascadeStringSlice will select a configuration slice from a splitted env var,
// the config file, or a default slice.
func CascadeStringSlice(fromEnv string, fromFile, defaultVal []string) []string {
	if splitted := strings.Split(os.Getenv(fromEnv), ","); len(splitted) > 0 {
		if splitted[0] != "" {
			return splitted
		}
	}
	if len(fromFile) > 0 {
		if fromFile[0] != "" {
			return fromFile
		}
	}
	return defaultVal
}

func selectNonEmptyStringSlice(slices ...[]string) []string {
	for _, sl := range slices {
		if len(sl) > 0 {
			return sl
		}
	}
	sl := make([]string, 0)
	return sl
}

func getEnvOrDefault(name, defaultValue string) string {
	envVal := os.Getenv(name)
	if len(envVal) == 0 {
		return defaultValue
	}
	return envVal
}
