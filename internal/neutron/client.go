package neutron

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dlux/internal/types"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const basePath = "/controller/nb/v2/neutron"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("controller rejected the session token")
	ErrNoController = errors.New("session has no controller")
)

// Client reads ports and networks from a controller's neutron northbound
// API. Responses are cached per controller and user.
type Client struct {
	http   *resty.Client
	cache  *cache.Cache
	logger logrus.FieldLogger
}

// NewClient builds a client. A cacheTTL <= 0 disables the response cache.
func NewClient(timeout, cacheTTL time.Duration, logger logrus.FieldLogger) *Client {
	c := &Client{
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		logger: logger,
	}
	if cacheTTL > 0 {
		c.cache = cache.New(cacheTTL, 2*cacheTTL)
	}
	return c
}

func (c *Client) ListPorts(ctx context.Context, user *types.User) ([]Port, error) {
	var env portsEnvelope
	if err := c.get(ctx, user, "/ports", &env); err != nil {
		return nil, err
	}
	return env.Ports, nil
}

func (c *Client) GetPort(ctx context.Context, user *types.User, id string) (Port, error) {
	var env portEnvelope
	if err := c.get(ctx, user, "/ports/"+url.PathEscape(id), &env); err != nil {
		return Port{}, err
	}
	return env.Port, nil
}

func (c *Client) GetNetwork(ctx context.Context, user *types.User, id string) (Network, error) {
	var env networkEnvelope
	if err := c.get(ctx, user, "/networks/"+url.PathEscape(id), &env); err != nil {
		return Network{}, err
	}
	return env.Network, nil
}

// Invalidate drops every cached response.
func (c *Client) Invalidate() {
	if c.cache != nil {
		c.cache.Flush()
	}
}

func (c *Client) get(ctx context.Context, user *types.User, path string, out any) error {
	if user == nil || strings.TrimSpace(user.Controller) == "" {
		return ErrNoController
	}
	target := strings.TrimRight(user.Controller, "/") + basePath + path
	key := user.Name + "|" + target

	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			return copyCached(cached, out)
		}
	}

	req := c.http.R().SetContext(ctx).SetResult(out)
	if user.Token != "" {
		req.SetAuthToken(user.Token)
	}
	resp, err := req.Get(target)
	if err != nil {
		return fmt.Errorf("neutron GET %s: %w", target, err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusNotFound:
		return fmt.Errorf("neutron GET %s: %w", target, ErrNotFound)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("neutron GET %s: %w", target, ErrUnauthorized)
	default:
		return fmt.Errorf("neutron GET %s: unexpected status %d", target, resp.StatusCode())
	}

	if c.cache == nil {
		return nil
	}
	c.cache.SetDefault(key, out)
	c.logger.WithFields(logrus.Fields{
		"target": target,
		"user":   user.Name,
	}).Debug("neutron response cached")
	return nil
}

// copyCached copies a cached envelope into out; both are pointers to the
// same envelope type.
func copyCached(cached, out any) error {
	switch dst := out.(type) {
	case *portsEnvelope:
		if src, ok := cached.(*portsEnvelope); ok {
			dst.Ports = append([]Port(nil), src.Ports...)
			return nil
		}
	case *portEnvelope:
		if src, ok := cached.(*portEnvelope); ok {
			*dst = *src
			return nil
		}
	case *networkEnvelope:
		if src, ok := cached.(*networkEnvelope); ok {
			*dst = *src
			return nil
		}
	}
	return fmt.Errorf("neutron cache: unexpected entry %T for %T", cached, out)
}
