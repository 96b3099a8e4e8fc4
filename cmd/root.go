package cmd

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	coreconfig "github.com/AzielCF/az-lookups/core/config"
	coreDB "github.com/AzielCF/az-lookups/core/database"
	domainLookup "github.com/AzielCF/az-lookups/domains/lookup"
	"github.com/AzielCF/az-lookups/infrastructure/valkey"
	"github.com/AzielCF/az-lookups/lookups/application"
	"github.com/AzielCF/az-lookups/lookups/domain"
	"github.com/AzielCF/az-lookups/lookups/infrastructure"
	"github.com/AzielCF/az-lookups/lookups/repository"
	"github.com/AzielCF/az-lookups/pkg/utils"
	"github.com/AzielCF/az-lookups/usecase"
)

var (
	appCtx    context.Context
	appCancel context.CancelFunc

	serverID string
	vkClient *valkey.Client
	sqlDB    *gorm.DB

	lookupStore   domain.Store
	lookupBus     domain.Bus
	valkeyBus     *infrastructure.ValkeyBus
	authenticator domain.Authenticator
	lookupManager *application.Manager
	lookupUsecase domainLookup.ILookupUsecase
	stopWatch     func()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "az-lookups",
	Short: "Reference-data lookup cache",
	Long: `Keeps the portal reference catalogs (genders, titles, work locations,
categories, countries, ...) cached, persisted and in sync across processes.`,
}

func init() {
	// Load environment variables first
	utils.LoadConfig(".")

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	initFlags()

	cobra.OnInitialize(initEnvConfig, initApp)
}

func initFlags() {
	flags := rootCmd.PersistentFlags()

	flags.StringP("port", "p", "", "change port number with --port <number> | example: --port=8080")
	flags.BoolP("debug", "d", false, "hide or displaying log with --debug <true/false> | example: --debug=true")
	flags.StringSliceP("basic-auth", "b", nil, "basic auth credential | -b=yourUsername:yourPassword")
	flags.String("base-path", "", `base path for subpath deployment --base-path <string> | example: --base-path="/lookups"`)
	flags.String("db-driver", "", `durable store when Valkey is disabled --db-driver <sqlite|postgres|memory>`)
	flags.String("remote-url", "", `base URL of the reference-data service | example: --remote-url="https://portal.example.com/api"`)
	flags.String("work-location-catalog", "", "catalog identifier for work locations")
	flags.String("category-catalog", "", "catalog identifier for membership categories")

	_ = viper.BindPFlag("app_port", flags.Lookup("port"))
	_ = viper.BindPFlag("app_debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("app_base_path", flags.Lookup("base-path"))
	_ = viper.BindPFlag("db_driver", flags.Lookup("db-driver"))
	_ = viper.BindPFlag("remote_base_url", flags.Lookup("remote-url"))
	_ = viper.BindPFlag("remote_work_location_catalog", flags.Lookup("work-location-catalog"))
	_ = viper.BindPFlag("remote_category_catalog", flags.Lookup("category-catalog"))
}

// initEnvConfig builds the configuration from the environment, then applies
// command line overrides.
func initEnvConfig() {
	cfg, err := coreconfig.LoadConfig()
	if err != nil {
		logrus.Fatalf("[CONFIG] %v", err)
	}

	flags := rootCmd.PersistentFlags()
	if flags.Changed("port") {
		cfg.App.Port = viper.GetString("app_port")
	}
	if flags.Changed("debug") {
		cfg.App.Debug = viper.GetBool("app_debug")
	}
	if flags.Changed("basic-auth") {
		cfg.App.BasicAuth, _ = flags.GetStringSlice("basic-auth")
	}
	if flags.Changed("base-path") {
		cfg.App.BasePath = viper.GetString("app_base_path")
	}
	if flags.Changed("db-driver") {
		cfg.Database.Driver = viper.GetString("db_driver")
	}
	if flags.Changed("remote-url") {
		cfg.Remote.BaseURL = viper.GetString("remote_base_url")
	}
	if flags.Changed("work-location-catalog") {
		cfg.Remote.WorkLocationCatalog = viper.GetString("remote_work_location_catalog")
	}
	if flags.Changed("category-catalog") {
		cfg.Remote.CategoryCatalog = viper.GetString("remote_category_catalog")
	}

	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("[CONFIG] %v", err)
	}
}

func initApp() {
	cfg := coreconfig.Global
	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	appCtx, appCancel = context.WithCancel(context.Background())
	serverID = utils.GetPersistentServerID(cfg.App.ServerID, cfg.Paths.Storages)

	if cfg.Database.ValkeyEnabled {
		client, err := valkey.NewClient(valkey.Config{
			Address:   cfg.Database.ValkeyAddress,
			Password:  cfg.Database.ValkeyPassword,
			DB:        cfg.Database.ValkeyDB,
			KeyPrefix: cfg.Database.ValkeyKeyPrefix,
		})
		if err != nil {
			logrus.WithError(err).Warn("[VALKEY] Unavailable, falling back to local store and bus")
		} else {
			vkClient = client
			logrus.Infof("[VALKEY] Connected to %s", cfg.Database.ValkeyAddress)
		}
	}

	lookupStore = initStore(cfg)
	lookupBus = initBus()
	authenticator = initAuthenticator(cfg)

	source := infrastructure.NewHTTPSource(infrastructure.HTTPSourceConfig{
		BaseURL: cfg.Remote.BaseURL,
		Token:   infrastructure.StaticToken(cfg.Remote.Token),
	}, nil)

	writer := application.NewWriter(lookupStore, application.RetryPolicy{
		MaxAttempts: cfg.Lookups.WriteAttempts,
		BaseDelay:   cfg.Lookups.WriteBaseDelay,
	})

	lookupManager = application.NewManager(application.Deps{
		Store:         lookupStore,
		Source:        source,
		Authenticator: authenticator,
		Bus:           lookupBus,
		Writer:        writer,
		Classifier:    application.NewClassifier(domain.DefaultDiscriminatorTable(cfg.Lookups.DiscriminatorPath)),
		Freshness:     application.NewFreshness(cfg.Lookups.FreshnessWindow),
	}, application.Options{
		KeyPrefix:           cfg.Lookups.KeyPrefix,
		WorkLocationCatalog: cfg.Remote.WorkLocationCatalog,
		CategoryCatalog:     cfg.Remote.CategoryCatalog,
		SettleDelay:         cfg.Lookups.SettleDelay,
		FetchTimeout:        cfg.Lookups.FetchTimeout,
	})
	lookupUsecase = usecase.NewLookupService(lookupManager, authenticator)

	stopWatch = lookupManager.Watch()
	lookupManager.LoadFromPersistentCache(appCtx, false)
}

func initStore(cfg *coreconfig.Config) domain.Store {
	if vkClient != nil {
		logrus.Info("[LOOKUPS] Using Valkey store")
		return repository.NewValkeyStore(vkClient)
	}

	if cfg.Database.Driver == "memory" {
		logrus.Warn("[LOOKUPS] Using in-memory store; lookups will not survive a restart")
		return repository.NewMemoryStore()
	}

	db, err := coreDB.NewDatabase(cfg)
	if err != nil {
		logrus.Fatalf("[DB] %v", err)
	}
	sqlDB = db

	store := repository.NewGormStore(db)
	if err := store.InitSchema(context.Background()); err != nil {
		logrus.Fatalf("[DB] Failed to migrate lookup table: %v", err)
	}
	logrus.Infof("[LOOKUPS] Using %s store", cfg.Database.Driver)
	return store
}

func initBus() domain.Bus {
	if vkClient == nil {
		return infrastructure.NewMemoryBus()
	}
	// Sender IDs must differ between processes sharing a host.
	valkeyBus = infrastructure.NewValkeyBus(vkClient, serverID+":"+uuid.NewString())
	return valkeyBus
}

func initAuthenticator(cfg *coreconfig.Config) domain.Authenticator {
	if cfg.Remote.BaseURL == "" {
		logrus.Warn("[LOOKUPS] REMOTE_BASE_URL is not set; serving persisted lookups only")
		return domain.AuthenticatorFunc(func(context.Context) bool { return false })
	}
	return infrastructure.NewTokenAuthenticator(infrastructure.StaticToken(cfg.Remote.Token), cfg.Remote.TokenSecret)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
