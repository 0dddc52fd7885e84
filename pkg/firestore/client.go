package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/angelmondragon/cropmarket-backend/pkg/config"
	"github.com/angelmondragon/cropmarket-backend/pkg/logger"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

var errNotInitialized = errors.New("firestore client not initialized")

// Client wraps the Firestore connection used by the remote user store.
type Client struct {
	raw       *firestore.Client
	projectID string
}

// New opens a Firestore client. An empty credentials file falls back to
// application default credentials; FIRESTORE_EMULATOR_HOST is honoured by the
// SDK itself.
func New(ctx context.Context, cfg config.FirestoreConfig, logg *logger.Logger) (*Client, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("firestore project id is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	raw, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "project_id", cfg.ProjectID), "firestore client initialized")
	}
	return &Client{raw: raw, projectID: cfg.ProjectID}, nil
}

// Wrap adopts an existing SDK client.
func Wrap(raw *firestore.Client, projectID string) *Client {
	return &Client{raw: raw, projectID: projectID}
}

// Raw exposes the SDK client for repositories.
func (c *Client) Raw() *firestore.Client {
	if c == nil {
		return nil
	}
	return c.raw
}

func (c *Client) ProjectID() string {
	if c == nil {
		return ""
	}
	return c.projectID
}

// Ping lists at most one top-level collection.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.raw == nil {
		return errNotInitialized
	}
	_, err := c.raw.Collections(ctx).Next()
	if err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("firestore ping failed: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Close()
}
