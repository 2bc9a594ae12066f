// Package app wires the shared dependencies commands run against.
package app

import (
	"github.com/wardwatch/wardwatch/internal/client"
	"github.com/wardwatch/wardwatch/internal/core/config"
	"github.com/wardwatch/wardwatch/internal/core/inbox"
	"github.com/wardwatch/wardwatch/internal/core/kv"
	"github.com/wardwatch/wardwatch/internal/data/db"
)

// App aggregates the dependencies built in the CLI Before hook.
type App struct {
	Config *config.Config
	DB     *db.DB
	KV     kv.KV
	Inbox  inbox.Store

	// Client is nil when no server base URL is configured. Commands
	// that need it call RequireClient.
	Client *client.Client
}

// New populates the aggregate.
func New(cfg *config.Config, database *db.DB, kvStore kv.KV, inboxStore inbox.Store, apiClient *client.Client) *App {
	return &App{
		Config: cfg,
		DB:     database,
		KV:     kvStore,
		Inbox:  inboxStore,
		Client: apiClient,
	}
}
