package websocket

import (
	"log"
	"net/http"
	"strings"

	"coursepulse/internal/model"
	"coursepulse/internal/util"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development, restrict in production
		return true
	},
}

// ThreadRefresher primes a thread snapshot when a client starts watching a
// scope.
type ThreadRefresher interface {
	Invalidate(scope model.ThreadScope)
}

// ServeWS handles websocket requests from clients
func ServeWS(hub *Hub, jwtSecret string, threads ThreadRefresher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Extract token from query parameter or header
		token := r.URL.Query().Get("token")
		if token == "" {
			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				parts := strings.Split(authHeader, " ")
				if len(parts) == 2 && parts[0] == "Bearer" {
					token = parts[1]
				}
			}
		}

		if token == "" {
			http.Error(w, "Authorization token required", http.StatusUnauthorized)
			return
		}

		claims, err := util.ValidateToken(token, jwtSecret)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		// An initial thread scope may be given up front; clients can also
		// switch scopes later with a subscribe message.
		scope := model.ThreadScope{
			CourseID:    r.URL.Query().Get("course_id"),
			ChapterName: r.URL.Query().Get("chapter_name"),
			TopicName:   r.URL.Query().Get("topic_name"),
			VideoID:     r.URL.Query().Get("video_id"),
		}
		scopeKey := ""
		if scope.Valid() {
			scopeKey = scope.Key()
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade error: %v", err)
			return
		}

		client := NewClient(hub, conn, claims.UserID, scopeKey)
		client.hub.register <- client

		if scopeKey != "" && threads != nil {
			threads.Invalidate(scope)
		}

		go client.Start()
	}
}
