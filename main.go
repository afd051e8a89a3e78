package main

import (
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"warbler/crud"
	"warbler/database"
	"warbler/http"
)

// main is the app's entry point.
func main() {
	app := &cli.App{
		Name:  "warbler",
		Usage: "a small twitter clone",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "prod",
				Usage: "Provide this flag in production to ensure that a config file is provided before the application starts.",
			},
			&cli.StringFlag{
				Name:  "config",
				Value: ".config.json",
				Usage: "path of the JSON config file",
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run migrations and start the http server",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create or update the database tables",
				Action: migrate,
			},
			{
				Name:   "reset",
				Usage:  "drop all tables and create them again, deleting all data",
				Action: reset,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("warbler stopped")
	}
}

// setup loads the configuration, configures logging and opens the database.
// The caller closes the returned database.
func setup(c *cli.Context) (Config, *database.DB, error) {
	// Load configuration from the config file if present, otherwise use the default dev setup.
	// In production the config file is required.
	config, err := LoadConfig(c.String("config"), c.Bool("prod"))
	if err != nil {
		return Config{}, nil, err
	}

	if config.IsProd() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logrus.SetLevel(logrus.DebugLevel)
	}

	dbConfig := config.Database
	db := database.NewDB(dbConfig.Dialect, dbConfig.ConnectionInfo())
	if err := database.Open(db, config.IsProd()); err != nil {
		return Config{}, nil, err
	}
	return config, db, nil
}

func serve(c *cli.Context) error {
	config, db, err := setup(c)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db.Gorm); err != nil {
		return err
	}

	// Start the crud services.
	services, err := crud.NewServices(
		db.Gorm,
		crud.WithUser(config.Pepper),
		crud.WithMessage(),
		crud.WithFollow(),
		crud.WithLike(),
		crud.WithImage(config.ImagesDir),
	)
	if err != nil {
		return err
	}

	// Set up a webserver.
	server := http.NewServer(
		services.User,
		services.Message,
		services.Follow,
		services.Like,
		services.Image,
		http.Config{
			SessionKey:  []byte(config.SessionKey),
			CSRFKey:     []byte(config.CSRFKey),
			CSRFEnabled: config.CSRFEnabled,
			Secure:      config.IsProd(),
			StaticDir:   config.StaticDir,
			ImagesDir:   config.ImagesDir,
		},
	)

	// Serve the app until interrupted.
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Run(ctx, ":"+strconv.Itoa(config.Port))
}

func migrate(c *cli.Context) error {
	_, db, err := setup(c)
	if err != nil {
		return err
	}
	defer database.Close(db)
	if err := database.AutoMigrate(db.Gorm); err != nil {
		return err
	}
	logrus.Info("migrations done")
	return nil
}

func reset(c *cli.Context) error {
	_, db, err := setup(c)
	if err != nil {
		return err
	}
	defer database.Close(db)
	if err := database.DestructiveReset(db.Gorm); err != nil {
		return err
	}
	logrus.Info("database reset")
	return nil
}
