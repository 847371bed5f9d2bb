// Package httpsync implements the remote document-store client against the
// syncd HTTP endpoint: plain GET/PUT for the document and a websocket feed
// for pushed changes.
package httpsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"listacompras/infrastructure/syncstore"
	pkgerrors "listacompras/pkg/errors"
)

const reconnectDelay = 5 * time.Second

// Client is a syncstore.RemoteClient backed by a syncd server.
type Client struct {
	endpoint string
	listID   string
	http     *http.Client
	logger   *zap.Logger
}

// NewClient creates a client for the syncd server at endpoint.
func NewClient(endpoint, listID string, logger *zap.Logger) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		listID:   listID,
		http:     &http.Client{},
		logger:   logger,
	}
}

func (c *Client) docURL() string {
	return fmt.Sprintf("%s/sync/%s", c.endpoint, url.PathEscape(c.listID))
}

// Get reads the sync document. 404 maps to syncstore.ErrNoData.
func (c *Client) Get(ctx context.Context) (syncstore.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.docURL(), nil)
	if err != nil {
		return syncstore.Snapshot{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return syncstore.Snapshot{}, pkgerrors.NewNetworkError("failed to get sync document", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return syncstore.Snapshot{}, syncstore.ErrNoData
	default:
		return syncstore.Snapshot{}, pkgerrors.NewUnavailableError(fmt.Sprintf("sync server (status %d)", resp.StatusCode))
	}

	var snap syncstore.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return syncstore.Snapshot{}, pkgerrors.NewNetworkError("failed to decode sync document", err)
	}
	return snap, nil
}

// Set replaces the sync document with the given snapshot.
func (c *Client) Set(ctx context.Context, snap syncstore.Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return pkgerrors.Wrap(err, "marshal sync document")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.docURL(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.NewNetworkError("failed to put sync document", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return pkgerrors.NewUnavailableError(fmt.Sprintf("sync server (status %d)", resp.StatusCode))
	}
	return nil
}

// Subscribe opens the websocket feed and invokes cb for every snapshot the
// server pushes, reconnecting until stopped. The initial dial happens
// synchronously so a dead server fails the subscription immediately and the
// backend can fall back to its local watcher.
func (c *Client) Subscribe(cb func(syncstore.Snapshot)) (func(), error) {
	wsURL, err := c.feedURL()
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, pkgerrors.NewNetworkError("failed to dial sync feed", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		current := conn
		for {
			c.readLoop(ctx, current, cb)
			current.Close()

			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
			}

			next, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
			if err != nil {
				c.logger.Warn("Sync feed reconnect failed", zap.Error(err))
				continue
			}
			current = next
		}
	}()

	return func() {
		cancel()
		conn.Close()
	}, nil
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, cb func(syncstore.Snapshot)) {
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		var snap syncstore.Snapshot
		if err := conn.ReadJSON(&snap); err != nil {
			if ctx.Err() == nil {
				c.logger.Warn("Sync feed closed", zap.Error(err))
			}
			return
		}
		cb(snap)
	}
}

func (c *Client) feedURL() (string, error) {
	u, err := url.Parse(c.docURL() + "/ws")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	return u.String(), nil
}
