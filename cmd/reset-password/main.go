package main

import (
	"flag"
	"os"

	"greencycle/internal/repository"
	"greencycle/pkg/database"
	"greencycle/pkg/logger"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Get().Warn(".env file not found, using process environment")
	}
	logger.Configure()
	log := logger.Get()

	defaultEmail := os.Getenv("ADMIN_EMAIL")
	if defaultEmail == "" {
		defaultEmail = "admin@greencycle.local"
	}
	email := flag.String("email", defaultEmail, "account to reset")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "new password (min 6 characters)")
	flag.Parse()

	if len(*password) < 6 {
		log.Fatal("password must be at least 6 characters, pass -password or set ADMIN_PASSWORD")
	}

	db, err := database.ConnectDB()
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}

	userRepo := repository.NewUserRepo(db)
	user, err := userRepo.FindByEmail(*email)
	if err != nil {
		log.WithError(err).WithField("email", *email).Fatal("user not found")
	}

	if err := user.SetPassword(*password); err != nil {
		log.WithError(err).Fatal("failed to hash password")
	}
	if err := userRepo.UpdatePassword(user.ID, user.Password); err != nil {
		log.WithError(err).Fatal("failed to update password")
	}

	// force every open session to log in again
	user.TokenVersion = uuid.New().String()
	if err := userRepo.Update(user); err != nil {
		log.WithError(err).Fatal("failed to rotate session")
	}

	log.WithField("email", *email).Info("password reset")
}
