package main

import (
	"flag"

	"adroute-backend/internal/config"
	"adroute-backend/internal/database"
	"adroute-backend/internal/logger"

	"github.com/sirupsen/logrus"
)

func main() {
	seed := flag.Bool("seed", false, "insert demo users, routes and schedules into an empty database")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("❌ Configuration invalid")
	}
	logger.Setup(cfg.LogLevel, cfg.LogFile)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("❌ Failed to connect to database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logrus.WithError(err).Fatal("❌ Migration failed")
	}

	if *seed {
		if err := database.SeedDemo(db); err != nil {
			logrus.WithError(err).Fatal("❌ Seeding failed")
		}
	}

	logrus.Info("✅ Migration completed successfully")
}
