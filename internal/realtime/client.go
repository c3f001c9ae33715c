package realtime

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"seedorders/internal/domain"
	"seedorders/internal/dto"
)

// ClientSubscription is a change feed consumed over a WebSocket. Events is
// closed when the connection ends.
type ClientSubscription struct {
	conn   *websocket.Conn
	events chan domain.ChangeEvent
	done   chan struct{}
	once   sync.Once
}

// Dial connects to a change feed endpoint such as
// ws://host/realtime/v1/orders.
func Dial(ctx context.Context, url string, header http.Header) (*ClientSubscription, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dialing change feed: %s: %w", resp.Status, err)
		}
		return nil, fmt.Errorf("dialing change feed: %w", err)
	}

	sub := &ClientSubscription{
		conn:   conn,
		events: make(chan domain.ChangeEvent),
		done:   make(chan struct{}),
	}
	go sub.readLoop()

	return sub, nil
}

func (s *ClientSubscription) readLoop() {
	defer close(s.events)
	for {
		var msg dto.ChangeEvent
		if err := s.conn.ReadJSON(&msg); err != nil {
			return
		}
		select {
		case s.events <- msg.ToDomain():
		case <-s.done:
			return
		}
	}
}

func (s *ClientSubscription) Events() <-chan domain.ChangeEvent {
	return s.events
}

func (s *ClientSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)
		err = s.conn.Close()
	})
	return err
}
