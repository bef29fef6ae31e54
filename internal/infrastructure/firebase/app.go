package firebase

import (
	"context"
	"fmt"
	"log"
	"os"

	fbapp "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"portfoliochat/pkg/config"
)

// ClientOption picks the service account credentials: inline JSON first, then
// a key file.
func ClientOption(cfg *config.Config) (option.ClientOption, error) {
	if cfg.ServiceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		return option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON)), nil
	}

	if cfg.ServiceAccountPath == "" {
		return nil, fmt.Errorf("no Firebase credentials: set FIREBASE_SERVICE_ACCOUNT_JSON or FIREBASE_SERVICE_ACCOUNT_PATH")
	}
	if _, err := os.Stat(cfg.ServiceAccountPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("service account file does not exist: %s", cfg.ServiceAccountPath)
	}

	log.Printf("Using Firebase service account from file: %s", cfg.ServiceAccountPath)
	return option.WithCredentialsFile(cfg.ServiceAccountPath), nil
}

func NewApp(ctx context.Context, cfg *config.Config, opt option.ClientOption) (*fbapp.App, error) {
	app, err := fbapp.NewApp(ctx, &fbapp.Config{
		ProjectID:     cfg.FirebaseProject,
		DatabaseURL:   cfg.FirebaseDatabaseURL,
		StorageBucket: cfg.StorageBucket,
	}, opt)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase: %w", err)
	}
	return app, nil
}
