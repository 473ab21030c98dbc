package client

import (
	"context"

	"carwash/pkg/logger"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// SetFirebase initialises the Firebase app. With an empty credentials file the SDK falls back
// to Application Default Credentials.
func (c *Client) SetFirebase(log *logger.Logger, databaseURL, credentialsFile string) {
	ctx := context.Background()

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: databaseURL}, opts...)
	if err != nil {
		log.Fatal("Failed to initialise Firebase app", "error", err)
	}

	log.Info("Firebase app initialised", "database_url", databaseURL)
	c.Firebase = app
}
