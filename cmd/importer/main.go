package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"usersvc/internal/auth"
	"usersvc/internal/config"
	"usersvc/internal/db"
	"usersvc/internal/logger"
	"usersvc/internal/repository"
	"usersvc/internal/service"
)

func main() {
	file := flag.String("file", "", "path to a JSON file with users")
	url := flag.String("url", "", "URL serving a JSON list of users")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log, err := logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.Fatalf("logger: %v", err)
	}

	var payload []byte
	switch {
	case *file != "":
		log.Infof("Reading users from: %s", *file)
		payload, err = os.ReadFile(*file)
	case *url != "":
		log.Infof("Fetching users from: %s", *url)
		payload, err = fetchUsers(*url)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("Failed to load users: %v", err)
	}

	users, err := decodeUsers(payload)
	if err != nil {
		log.Fatalf("Failed to decode users: %v", err)
	}
	log.Infof("Loaded %d users", len(users))

	gormDB, err := db.NewMySQL(cfg.MySQLDSN, db.Options{
		Logger:   log,
		LogLevel: logger.GormLevel(log.GetLevel()),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.Migrate(gormDB, false, log); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	svc := service.NewUserService(
		repository.NewUserRepository(gormDB),
		auth.NewBcryptHasher(cfg.BcryptCost),
		nil,
		cfg.UserCacheTTL,
		log,
	)

	res, err := svc.BulkCreate(context.Background(), users)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}
	summary, ok := res.Message.(service.BulkSummary)
	if !ok {
		log.Fatalf("Import rejected: %v", res.Message)
	}
	log.WithFields(logrus.Fields{
		"success": summary.Success,
		"failed":  summary.Failed,
	}).Info("Import completed")
}

// fetchUsers downloads the JSON payload.
func fetchUsers(url string) ([]byte, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// decodeUsers accepts a bare array or an object with a "users" array.
func decodeUsers(payload []byte) ([]service.CreateUserInput, error) {
	var users []service.CreateUserInput
	if err := json.Unmarshal(payload, &users); err == nil {
		return users, nil
	}

	var wrapper struct {
		Users []service.CreateUserInput `json:"users"`
	}
	if err := json.Unmarshal(payload, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if wrapper.Users == nil {
		return nil, fmt.Errorf("no users list in payload")
	}
	return wrapper.Users, nil
}
