package es

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/elastic/go-elasticsearch/v9"
)

type Config struct {
	URL      string
	User     string
	Password string
}

// NewClient connects and checks the cluster answers before returning.
func NewClient(ctx context.Context, cfg Config, l *slog.Logger) (*elasticsearch.Client, error) {
	l.Info("es_connecting", "url", cfg.URL)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("es: new client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("es: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("es: info: %s: %s", res.Status(), body)
	}

	l.Info("es_connected", "url", cfg.URL)
	return client, nil
}
