package ws

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultURL is the local backend endpoint.
const DefaultURL = "ws://localhost:8000/ws/audio"

type ClientConfig struct {
	Dial         DialConfig
	PingInterval time.Duration
}

func (c *ClientConfig) Defaults() {
	if c.PingInterval == 0 {
		c.PingInterval = 10 * time.Second
	}

	c.Dial.Defaults()
}

type DialConfig struct {
	URL            string
	AuthHeaderFunc func(ctx context.Context) (string, error)
	ConnectTimeout time.Duration
	Headers        http.Header
}

func (d *DialConfig) Defaults() {
	if d.URL == "" {
		d.URL = DefaultURL
	}
	if d.ConnectTimeout == 0 {
		d.ConnectTimeout = 10 * time.Second
	}
}

func (d *DialConfig) doDial(ctx context.Context) (*websocket.Conn, *http.Response, error) {
	d.Defaults()

	u, err := url.Parse(d.URL)
	if err != nil {
		return nil, nil, err
	}

	var header = http.Header{}
	if d.AuthHeaderFunc != nil {
		authToken, err := d.AuthHeaderFunc(ctx)
		if err != nil {
			return nil, nil, err
		}
		if authToken != "" {
			header.Add("Authorization", fmt.Sprintf("Bearer %s", authToken))
		}
	}
	for k, v := range d.Headers {
		for _, vv := range v {
			header.Add(k, vv)
		}
	}

	dialCtx, cancel := context.WithTimeout(ctx, d.ConnectTimeout)
	defer cancel()
	return websocket.DefaultDialer.DialContext(dialCtx, u.String(), header)
}
