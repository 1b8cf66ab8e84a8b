// Package notify pushes activation outcomes to an ntfy topic.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dgnsrekt/vue_devtools_enabler/internal/inject"
)

const defaultTimeout = 5 * time.Second

// Message is one ntfy notification. Title and Tags map to the ntfy headers of
// the same name.
type Message struct {
	Title string
	Body  string
	Tags  []string
}

// Send posts msg to endpoint.
func Send(ctx context.Context, client *http.Client, endpoint string, msg Message) error {
	if endpoint == "" {
		return errors.New("ntfy endpoint is empty")
	}
	c := client
	if c == nil {
		c = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(msg.Body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "text/plain")
	if msg.Title != "" {
		req.Header.Set("Title", msg.Title)
	}
	if len(msg.Tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.Tags, ","))
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy notification failed: status=%d", resp.StatusCode)
	}
	return nil
}

// Notifier sends one notification per activation outcome. Sends run in the
// background so the activation path never waits on the network.
type Notifier struct {
	client   *http.Client
	endpoint string
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewNotifier(client *http.Client, endpoint string) *Notifier {
	return &Notifier{client: client, endpoint: endpoint, timeout: defaultTimeout}
}

func (n *Notifier) ActivationSettled(outcome inject.Outcome) {
	msg := messageFor(outcome)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		if err := Send(ctx, n.client, n.endpoint, msg); err != nil {
			slog.Warn("ntfy send failed", "tab_id", outcome.TabID, "error", err)
		}
	}()
}

// Wait blocks until queued notifications finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func messageFor(o inject.Outcome) Message {
	if o.Result.Success {
		body := fmt.Sprintf("Devtools enabled for %s runtime in tab %s.", o.Family, o.TabID)
		if o.Result.Detail != "" {
			body += " " + o.Result.Detail
		}
		return Message{Title: "Vue devtools enabled", Body: body, Tags: []string{"white_check_mark"}}
	}
	body := fmt.Sprintf("Injection failed in tab %s: %s", o.TabID, o.Result.Error)
	return Message{Title: "Vue devtools injection failed", Body: body, Tags: []string{"warning"}}
}
