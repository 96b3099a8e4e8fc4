package cmd

import (
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	coreconfig "github.com/AzielCF/az-lookups/core/config"
	"github.com/AzielCF/az-lookups/ui/rest"
	"github.com/AzielCF/az-lookups/ui/rest/middleware"
	"github.com/AzielCF/az-lookups/ui/websocket"
)

var restCmd = &cobra.Command{
	Use:   "rest",
	Short: "Serve the lookup cache over http",
	Run:   restServer,
}

func init() {
	rootCmd.AddCommand(restCmd)
}

func restServer(_ *cobra.Command, _ []string) {
	cfg := coreconfig.Global

	app := fiber.New(fiber.Config{
		Network:      "tcp",
		AppName:      "Az-Lookups",
		ServerHeader: "Hidden",
	})

	app.Use(requestid.New())
	app.Use(middleware.Recovery())
	app.Use(limiter.New(limiter.Config{
		Max:        1000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))

	if cfg.App.Debug {
		app.Use(logger.New())
	}

	if len(cfg.App.BasicAuth) == 0 {
		logrus.Fatalln("APP_BASIC_AUTH is required. Nothing should be public; please set APP_BASIC_AUTH=<user>:<secret>[,<user2>:<secret2>] and restart.")
	}

	account := make(map[string]string)
	for _, basicAuth := range cfg.App.BasicAuth {
		ba := strings.Split(basicAuth, ":")
		if len(ba) != 2 {
			logrus.Fatalln("Basic auth is not valid, please this following format <user>:<secret>")
		}
		account[ba[0]] = ba[1]
	}

	app.Get(cfg.App.BasePath+"/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	apiGroup := app.Group(cfg.App.BasePath + "/api")
	apiGroup.Use(basicauth.New(basicauth.Config{
		Users: account,
		Next: func(c *fiber.Ctx) bool {
			// Preflight requests carry no credentials.
			return c.Method() == fiber.MethodOptions
		},
	}))

	rest.InitRestLookup(apiGroup, lookupUsecase)

	hub := websocket.NewHub(lookupUsecase)
	detachHub := hub.Attach(lookupBus)
	hub.RegisterRoutes(apiGroup)
	go hub.Run(appCtx)

	if valkeyBus != nil {
		valkeyBus.Start(appCtx)
	}

	// Warm the cache without delaying startup.
	go lookupManager.RefreshFromRemote(appCtx)
	lookupManager.StartAutoRefresh(appCtx, cfg.Lookups.RefreshInterval)

	apiGroup.All("/*", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "API Endpoint not found",
			"path":  c.Path(),
		})
	})

	// Graceful shutdown handler
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ln, err := net.Listen(app.Config().Network, ":"+cfg.App.Port)
	if err != nil {
		logrus.Fatalln("Failed to start: ", err.Error())
	}
	err = serveUntilSignal(app, ln, sigChan, func() {
		detachHub()
		StopApp()
	})
	if err != nil {
		logrus.Fatalln("Failed to start: ", err.Error())
	}
}

// serveUntilSignal serves app on ln until stop fires, then shuts the server
// down. cleanup runs after the listener has closed and before returning.
func serveUntilSignal(app *fiber.App, ln net.Listener, stop <-chan os.Signal, cleanup func()) error {
	go func() {
		<-stop
		logrus.Info("[REST] Reception of termination signal, shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			logrus.Errorf("[REST] Error during Fiber shutdown: %v", err)
		}
	}()

	err := app.Listener(ln)
	cleanup()
	return err
}
