// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dposledger/ledger/events"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// eventsHandler streams ledger events to a websocket client as JSON text
// frames, optionally filtered by the repeated "name" query parameter.
func eventsHandler(bus *events.Bus) http.HandlerFunc {
	upgrader := websocket.Upgrader{}
	return func(w http.ResponseWriter, r *http.Request) {
		names := make(map[events.Name]bool)
		for _, n := range r.URL.Query()["name"] {
			names[events.Name(n)] = true
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Debug("websocket upgrade failed", "err", err)
			return
		}
		defer conn.Close()

		ch := make(chan *events.Event, 256)
		sub := bus.Subscribe(ch)
		defer sub.Unsubscribe()

		closed := make(chan struct{})
		go func() {
			defer close(closed)
			conn.SetReadDeadline(time.Now().Add(pongWait))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(pongWait))
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case ev := <-ch:
				if len(names) > 0 && !names[ev.Name] {
					continue
				}
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(ev); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			case err := <-sub.Err():
				if err != nil {
					logger.Debug("event subscription failed", "err", err)
				}
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
				return
			case <-closed:
				return
			}
		}
	}
}
