package notifier

import (
	"context"
	"errors"
	"net"
	"net/url"
	"time"

	"app-deployer/internal/application/port/output"
	"app-deployer/internal/domain/entity"
)

const (
	DefaultTimeout = 30 * time.Second
	timeoutMessage = "timeout"
)

// Notifier posts one result envelope to the caller's callback URL. It never
// retries and never returns an error; failures are reported in the outcome.
type Notifier struct {
	callback output.CallbackPort
	logger   output.LoggerPort
	timeout  time.Duration
}

func New(callback output.CallbackPort, logger output.LoggerPort, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Notifier{callback: callback, logger: logger, timeout: timeout}
}

// ValidCallbackURL accepts absolute http(s) URLs with a host.
func ValidCallbackURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (n *Notifier) Notify(ctx context.Context, callbackURL string, payload entity.NotificationPayload) entity.NotificationOutcome {
	if !ValidCallbackURL(callbackURL) {
		if callbackURL != "" {
			n.logger.Warn("Invalid callback URL, skipping notification", "url", callbackURL)
		}
		return entity.NotificationOutcome{}
	}
	if n.callback == nil {
		return entity.NotificationOutcome{Error: "no callback transport configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	n.logger.Info("Sending result notification", "url", callbackURL, "round", payload.Round)
	status, err := n.callback.Post(ctx, callbackURL, payload)
	if err != nil {
		if isTimeout(err) {
			n.logger.Error("Notification timed out", "url", callbackURL, "timeout", n.timeout)
			return entity.NotificationOutcome{Error: timeoutMessage}
		}
		nerr := &entity.NotificationError{URL: callbackURL, Err: err}
		n.logger.Error("Notification failed", "error", nerr)
		return entity.NotificationOutcome{Error: nerr.Error()}
	}

	code := status
	if status < 200 || status > 299 {
		nerr := &entity.NotificationError{URL: callbackURL, StatusCode: status}
		n.logger.Warn("Notification rejected", "url", callbackURL, "status", status)
		return entity.NotificationOutcome{StatusCode: &code, Error: nerr.Error()}
	}

	n.logger.Info("Notification delivered", "url", callbackURL, "status", status)
	return entity.NotificationOutcome{Delivered: true, StatusCode: &code}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
