package spaceapi

import (
	"context"
	"net/http"
)

const (
	notificationsPath    = "/notifications"
	unreadCountPath      = "/notifications/unread-count"
	notificationReadPath = "/notifications/{id}/read"
	readAllPath          = "/notifications/read-all"
)

func (c *Client) ListNotifications(ctx context.Context) ([]Notification, error) {
	req, err := c.authed(c.r(ctx))
	if err != nil {
		return nil, err
	}

	body, err := c.do(req, http.MethodGet, notificationsPath)
	if err != nil {
		return nil, err
	}

	return toNotifications(body)
}

func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	req, err := c.authed(c.r(ctx))
	if err != nil {
		return 0, err
	}

	body, err := c.do(req, http.MethodGet, unreadCountPath)
	if err != nil {
		return 0, err
	}

	return toCount(body), nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	req, err := c.authed(c.r(ctx))
	if err != nil {
		return err
	}

	_, err = c.do(req.SetPathParam("id", id), http.MethodPut, notificationReadPath)
	return err
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	req, err := c.authed(c.r(ctx))
	if err != nil {
		return err
	}

	_, err = c.do(req, http.MethodPut, readAllPath)
	return err
}
