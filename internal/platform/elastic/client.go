// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package elastic provides a managed Elasticsearch client for the sink side
of the sync engine.

Unlike the source Postgres connection, the Elasticsearch client is
long-lived: it is cheap to keep open across ticks and the driver already
pools HTTP connections internally.

Architecture:

  - NewClient: builds a [elasticsearch.Client] from addresses and optional
    basic-auth credentials, and validates connectivity with [Ping].
  - Ping: used both at startup and by the control-plane readiness endpoint.
*/
package elastic

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const pingTimeout = 5 * time.Second

// NewClient builds and validates a new Elasticsearch client.
func NewClient(ctx stdctx.Context, addresses []string, username, password string, logger *slog.Logger) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: addresses,
		Username:  username,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("elastic: failed to build client: %w", err)
	}

	if err := Ping(ctx, client); err != nil {
		return nil, err
	}

	logger.Info("elasticsearch client connected", slog.Any("addresses", addresses))

	return client, nil
}

// Ping verifies that the Elasticsearch cluster is reachable.
func Ping(ctx stdctx.Context, client *elasticsearch.Client) error {
	pingCtx, cancel := stdctx.WithTimeout(ctx, pingTimeout)
	defer cancel()

	res, err := esapi.PingRequest{}.Do(pingCtx, client)
	if err != nil {
		return fmt.Errorf("elastic: ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elastic: ping returned status %s", res.Status())
	}

	return nil
}
