package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/config"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/dao"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/events"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/server"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/services/kafka"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/services/zookeeper"
)

// All loggers are derived from the global one
var logger = config.RootLogger

func main() {

	cliParser := cli.NewApp()
	cliParser.Name = "tracker-access"
	cliParser.Usage = "access control service for the family health tracker"
	cliParser.Version = "1.0"

	// Declared once, attached both globally and to the commands that load
	// configuration themselves.
	confFlag := cli.StringFlag{
		Name:  "conf",
		Usage: "Path to yaml configuration file.",
	}

	cliParser.Commands = []cli.Command{
		{
			Name:  "env",
			Usage: "Print all environment variables",
			Action: func(clictx *cli.Context) error {
				config.PrintEnvironment()
				return nil
			},
		},
		{
			Name:  "makeenv",
			Usage: "Print a bash template exporting every variable this service reads",
			Action: func(clictx *cli.Context) error {
				config.GenerateSourceEnvScript()
				return nil
			},
		},
		{
			Name:  "protect",
			Usage: "Encrypt a secret into its ENC{...} at-rest form for config files. Requires the master key in the environment.",
			Action: func(clictx *cli.Context) error {
				if err := protectValue(clictx); err != nil {
					log.Fatal(err)
				}
				return nil
			},
		},
		{
			Name:  "database",
			Usage: "Database schema operations. Values: migrate, status",
			Flags: []cli.Flag{confFlag},
			Action: func(clictx *cli.Context) error {
				if err := runDatabaseCommand(clictx); err != nil {
					log.Fatal(err)
				}
				return nil
			},
		},
	}

	cliParser.Flags = []cli.Flag{
		confFlag,
		cli.StringSliceFlag{
			Name:  "whitelist",
			Usage: "External systems allowed to impersonate users",
		},
	}

	// No command starts the server.
	cliParser.Action = func(clictx *cli.Context) error {
		opts := config.NewCommandLineOpts(clictx)
		startApplication(opts)
		return nil
	}

	cliParser.Run(os.Args)
}

func startApplication(opts config.CommandLineOpts) {

	conf, err := config.NewAppConfiguration(opts)
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	d, err := dao.NewDataAccessLayer(conf.DatabaseConnection)
	if err != nil {
		logger.Error("error configuring dao, check environment variable settings for ACT_DB_*", zap.Error(err))
		os.Exit(1)
	}

	queue := configureEventQueue(conf.EventQueue)

	app, err := server.NewAppServer(conf, d, queue)
	if err != nil {
		logger.Error("error making appserver", zap.Error(err))
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:           app.Addr,
		Handler:        app,
		IdleTimeout:    time.Duration(conf.ServerSettings.IdleTimeout) * time.Second,
		ReadTimeout:    time.Duration(conf.ServerSettings.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(conf.ServerSettings.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", app.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("stopped server", zap.Error(err))
		}
	}()

	// In-flight decisions get a grace period on SIGTERM; the scheduler sends
	// one before reclaiming the instance.
	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
	<-sigchan

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown did not finish cleanly", zap.Error(err))
	}
}

// configureEventQueue connects the access event stream. Brokers listed
// directly win; otherwise they are discovered through Zookeeper. With neither
// configured events are dropped and only the durable audit trail remains.
func configureEventQueue(conf config.EventQueueConfiguration) events.Publisher {

	queueOpts := []kafka.Opt{
		kafka.WithLogger(logger),
		kafka.WithPublishActions(conf.PublishSuccessActions, conf.PublishFailureActions),
		kafka.WithTopic(conf.Topic),
	}

	if len(conf.KafkaAddrs) > 0 {
		producer, err := kafka.NewAsyncProducer(conf.KafkaAddrs, queueOpts...)
		if err != nil {
			logger.Error("cannot connect to kafka", zap.Strings("addrs", conf.KafkaAddrs), zap.Error(err))
			os.Exit(1)
		}
		relay := events.NewRelay(producer)
		go monitorEventQueue(relay, conf, queueOpts)
		return relay
	}

	if len(conf.ZKAddrs) > 0 {
		timeout := time.Duration(conf.ZKTimeout) * time.Second
		session, err := zookeeper.Connect(conf.ZKAddrs, timeout, logger)
		if err != nil {
			logger.Error("cannot connect to zookeeper for kafka discovery", zap.Strings("addrs", conf.ZKAddrs), zap.Error(err))
			os.Exit(1)
		}
		relay := events.NewRelay(nil)
		relay.Swap(discoverKafka(session, conf, relay, queueOpts))
		return relay
	}

	logger.Info("no kafka brokers configured, access events will not be published")
	return kafka.NewFakeAsyncProducer(logger)
}

// discoverKafka stalls until brokers appear under the configured Zookeeper
// path. Once connected, the discovery watch swaps fresh producers into the
// relay whenever cluster membership changes.
func discoverKafka(session *zookeeper.Session, conf config.EventQueueConfiguration, relay *events.Relay, opts []kafka.Opt) *kafka.AsyncProducer {
	setter := func(p *kafka.AsyncProducer) {
		relay.Swap(p)
	}
	producer, err := kafka.DiscoverKafka(session.Conn, conf.BrokerPath, setter, opts...)
	for err != nil {
		sleepInSeconds := 10
		logger.Warn("kafka brokers not discoverable yet",
			zap.String("path", conf.BrokerPath),
			zap.Error(err),
			zap.Int("retry time in seconds", sleepInSeconds))
		time.Sleep(time.Duration(sleepInSeconds) * time.Second)
		producer, err = kafka.DiscoverKafka(session.Conn, conf.BrokerPath, setter, opts...)
	}
	return producer
}

// monitorEventQueue rebuilds a directly connected producer when it reports a
// broker-level failure. Discovered connections are rebuilt by their own watch
// instead.
func monitorEventQueue(relay *events.Relay, conf config.EventQueueConfiguration, opts []kafka.Opt) {
	ticker := time.NewTicker(30 * time.Second)
	for range ticker.C {
		if !relay.Reconnect() {
			continue
		}
		logger.Info("rebuilding kafka connection", zap.Strings("addrs", conf.KafkaAddrs))
		producer, err := kafka.NewAsyncProducer(conf.KafkaAddrs, opts...)
		if err != nil {
			logger.Error("kafka reconnect failed", zap.Error(err))
			continue
		}
		relay.Swap(producer)
	}
}

func runDatabaseCommand(clictx *cli.Context) error {
	opts := config.NewCommandLineOpts(clictx)
	conf, err := config.NewAppConfiguration(opts)
	if err != nil {
		return err
	}
	// The raw handle, not NewDataAccessLayer: the DAO constructor refuses a
	// database at the wrong schema version, which is the state migrate fixes.
	db, err := conf.DatabaseConnection.GetDatabaseHandle()
	if err != nil {
		return err
	}
	defer db.Close()

	switch clictx.Args().First() {
	case "migrate":
		applied, err := dao.MigrateUp(db)
		if err != nil {
			return err
		}
		fmt.Printf("Applied %d migrations.\n", applied)
	case "status":
		records, err := dao.MigrationRecords(db)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No migrations applied.")
			return nil
		}
		for _, record := range records {
			fmt.Printf("%s applied %s\n", record.Id, record.AppliedAt.Format(time.RFC3339))
		}
	default:
		return fmt.Errorf("unknown database command %q, expected migrate or status", clictx.Args().First())
	}
	return nil
}

func protectValue(clictx *cli.Context) error {
	val := clictx.Args().First()
	if val == "" {
		return fmt.Errorf("usage: tracker-access protect <value>")
	}
	enc, err := config.EncryptForConfig(val)
	if err != nil {
		return err
	}
	fmt.Println(enc)
	return nil
}
