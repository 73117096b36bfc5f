package artifacts

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Event announces that the training service published a new artifact.
type Event struct {
	Model string    `json:"model"`
	Kind  string    `json:"kind"` // importances, decomposition, distributions
	Ts    time.Time `json:"ts"`
}

// Watcher subscribes to the training service's artifact-ready stream.
type Watcher struct{ url string }

// NewWatcher builds a Watcher for the given websocket URL.
func NewWatcher(u string) Watcher { return Watcher{u} }

// Stream delivers artifact events until the context is cancelled,
// reconnecting with exponential backoff on connection failures.
func (w Watcher) Stream(ctx context.Context, events chan<- Event, errs chan<- error) error {
	backoff := time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := w.streamOnce(ctx, events); err != nil {
				log.Warn().Err(err).Dur("backoff", backoff).Msg("Artifact stream dropped, reconnecting")
				select {
				case errs <- fmt.Errorf("artifact stream reconnect: %w", err):
				default:
				}

				select {
				case <-time.After(backoff):
				case <-ctx.Done():
					return ctx.Err()
				}

				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
				continue
			}
			backoff = time.Second
		}
	}
}

func (w Watcher) streamOnce(ctx context.Context, events chan<- Event) error {
	log.Info().Str("url", w.url).Msg("Connecting to artifact stream")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}
	defer conn.Close()

	conn.SetReadLimit(1 << 20)
	if err := conn.SetReadDeadline(time.Now().Add(90 * time.Second)); err != nil {
		return err
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			case <-done:
				return
			case <-ctx.Done():
				conn.Close()
				return
			}
		}
	}()

	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read event: %w", err)
		}
		log.Debug().Str("model", ev.Model).Str("kind", ev.Kind).Msg("Artifact event received")

		select {
		case events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
