package schedsvc

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/semillero/core"
)

const (
	KeepAliveInterval = 10 * time.Minute
	keepAliveTimeout  = 5 * time.Second
)

// KeepAlive pings the public health endpoint so hosting platforms that idle quiet services keep this one awake.
type KeepAlive struct {
	url    string
	client *rest.Client
	logger core.Logger
}

func NewKeepAlive(baseURL string, logger core.Logger) *KeepAlive {
	return &KeepAlive{
		url:    strings.TrimSuffix(baseURL, "/") + "/health",
		client: &rest.Client{HTTPClient: &http.Client{Timeout: keepAliveTimeout}},
		logger: logger,
	}
}

// Ping does one request; a non-2xx answer is an error.
func (k *KeepAlive) Ping(ctx context.Context) error {
	res, err := sendWithContext(ctx, k.client, rest.Request{Method: rest.Get, BaseURL: k.url})
	if err != nil {
		return errors.Wrap(err, "pinging health endpoint")
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return errors.New(fmt.Sprintf("health endpoint status: %d", res.StatusCode))
	}
	return nil
}

// Schedule registers the ping on t every KeepAliveInterval.
func (k *KeepAlive) Schedule(t *CronTimer) error {
	return t.EveryInterval(KeepAliveInterval, func() {
		if err := k.Ping(context.Background()); err != nil {
			k.logger.Warn(fmt.Sprintf("keep-alive ping failed: %v", err), err)
			return
		}
		k.logger.Debug("keep-alive ping ok")
	})
}

// sendWithContext is rest.Client.Send bound to ctx.
func sendWithContext(ctx context.Context, client *rest.Client, request rest.Request) (*rest.Response, error) {
	req, err := rest.BuildRequestObject(request)
	if err != nil {
		return nil, err
	}
	res, err := client.MakeRequest(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return rest.BuildResponse(res)
}
