// Package signal talks to a signal-cli-rest-api instance: outgoing texts go
// over its HTTP send endpoint, incoming messages arrive over its receive
// WebSocket.
package signal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// IncomingCallback is invoked for every text message the account receives.
type IncomingCallback func(sourceNumber, text string)

type Client struct {
	apiURL string // e.g. http://signal-api:8080
	number string // the account's own number

	httpClient *http.Client
	conn       *websocket.Conn

	reconnectInterval time.Duration
	onIncoming        IncomingCallback

	ctx    context.Context
	cancel context.CancelFunc

	connected bool
	connMu    sync.RWMutex
}

func NewClient(apiURL, number string) *Client {
	return &Client{
		apiURL:            strings.TrimRight(apiURL, "/"),
		number:            number,
		httpClient:        &http.Client{Timeout: 15 * time.Second},
		reconnectInterval: 5 * time.Second,
	}
}

// OnIncoming registers the callback for received messages. Must be called
// before Connect.
func (c *Client) OnIncoming(cb IncomingCallback) {
	c.onIncoming = cb
}

// sendRequest is the payload of the REST send endpoint.
type sendRequest struct {
	Message    string   `json:"message"`
	Number     string   `json:"number"`
	Recipients []string `json:"recipients"`
}

// SendText delivers a plain text message to one recipient number.
func (c *Client) SendText(recipient, text string) error {
	body, err := json.Marshal(sendRequest{
		Message:    text,
		Number:     c.number,
		Recipients: []string{recipient},
	})
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Post(c.apiURL+"/v2/send", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to send signal message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("signal send returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	return nil
}

// Connect opens the receive WebSocket and keeps it open until the context
// is cancelled, reconnecting on failure.
func (c *Client) Connect(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)

	if err := c.dial(); err != nil {
		return err
	}

	go c.handleMessages()
	go c.watchConnection()

	return nil
}

func (c *Client) Disconnect() error {
	if c.cancel != nil {
		c.cancel()
	}

	c.setConnected(false)

	if c.conn != nil {
		return c.conn.Close()
	}

	return nil
}

func (c *Client) dial() error {
	wsURL, err := c.receiveURL()
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to signal receive socket: %w", err)
	}

	c.conn = conn
	c.setConnected(true)
	log.Printf("Connected to Signal receive socket for %s", c.number)

	return nil
}

func (c *Client) receiveURL() (string, error) {
	u, err := url.Parse(c.apiURL)
	if err != nil {
		return "", err
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/v1/receive/" + c.number

	return u.String(), nil
}

// envelope mirrors the relevant slice of the receive payload.
type envelope struct {
	Envelope struct {
		SourceNumber string `json:"sourceNumber"`
		DataMessage  *struct {
			Message string `json:"message"`
		} `json:"dataMessage"`
	} `json:"envelope"`
}

func (c *Client) handleMessages() {
	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			log.Printf("Signal socket read error: %v", err)
			c.setConnected(false)
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Printf("Failed to decode signal envelope: %v", err)
			continue
		}

		if env.Envelope.DataMessage == nil || env.Envelope.DataMessage.Message == "" {
			continue
		}

		if c.onIncoming != nil {
			c.onIncoming(env.Envelope.SourceNumber, env.Envelope.DataMessage.Message)
		}
	}
}

func (c *Client) watchConnection() {
	ticker := time.NewTicker(c.reconnectInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if c.IsConnected() {
				continue
			}

			log.Println("Reconnecting to Signal receive socket...")
			if err := c.dial(); err != nil {
				log.Printf("Signal reconnect failed: %v", err)
				continue
			}

			go c.handleMessages()
		}
	}
}

func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected
}

func (c *Client) setConnected(connected bool) {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	c.connected = connected
}
