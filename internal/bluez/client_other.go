//go:build !linux

package bluez

import "context"

// Client is unavailable off Linux.
type Client struct{}

func Dial() (*Client, error) {
	return nil, ErrUnsupported
}

func (c *Client) Close() error { return nil }

func (c *Client) PairedDevices(context.Context) ([]Device, error) {
	return nil, ErrUnsupported
}

func (c *Client) ResetLink(context.Context, string) error {
	return ErrUnsupported
}
