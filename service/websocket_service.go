package service

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/teenai/paperchat-be/types"
)

const (
	wsReadLimit    = 512 * 1024
	wsReadDeadline = 60 * time.Second
)

// WebSocketService serves the chat over a websocket so answers can be pushed
// as soon as they are ready
type WebSocketService struct {
	chatService *ChatService
	upgrader    websocket.Upgrader
}

func NewWebSocketService(chatService *ChatService) *WebSocketService {
	return &WebSocketService{
		chatService: chatService,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins (adjust for production)
			},
		},
	}
}

func (s *WebSocketService) HandleChat(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsReadLimit)
	conn.SetReadDeadline(time.Now().Add(wsReadDeadline))

	for {
		_, p, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsReadDeadline))

		var req types.WebsocketRequest
		if err := json.Unmarshal(p, &req); err != nil {
			s.writeError(conn, "Error processing message")
			continue
		}

		switch req.Type {
		case types.TypeWebsocketPing:
			if err := conn.WriteJSON(types.WebSocketResponse{Type: types.TypeWebsocketPong}); err != nil {
				log.Println("Write error:", err)
			}

		case types.TypeWebsocketChat:
			payloadBytes, err := json.Marshal(req.Payload)
			if err != nil {
				s.writeError(conn, "Error processing message")
				continue
			}
			var payload types.WebSocketChatPayload
			if err := json.Unmarshal(payloadBytes, &payload); err != nil {
				s.writeError(conn, "Error processing message")
				continue
			}

			if err := conn.WriteJSON(types.WebSocketResponse{
				Type:    types.TypeWebsocketProcessing,
				Payload: types.WebSocketProcessingResponse{Message: "Processing question"},
			}); err != nil {
				log.Println("Write error:", err)
				continue
			}

			// Stream partial output as it is generated, then the full
			// persisted turn
			res, err := s.chatService.AskStream(r.Context(), userID, types.ChatRequest{
				ChatID:   payload.ChatID,
				Question: payload.Question,
			}, func(delta string) {
				if err := conn.WriteJSON(types.WebSocketResponse{
					Type:    types.TypeWebsocketStream,
					Payload: types.WebSocketStreamResponse{Delta: delta},
				}); err != nil {
					log.Println("Write error:", err)
				}
			})
			if err != nil {
				log.Println("Chat error:", err)
				s.writeError(conn, "Error processing question")
				continue
			}

			response := types.WebSocketResponse{
				Type: types.TypeWebsocketChat,
				Payload: types.WebSocketChatResponse{
					ChatID:  res.ChatID,
					Message: res.Message.Content,
					Engine:  res.Engine,
					Sources: res.Sources,
				},
			}
			if err := conn.WriteJSON(response); err != nil {
				log.Println("Write error:", err)
			}

		default:
			log.Println("Invalid message type:", req.Type)
		}
	}
}

func (s *WebSocketService) writeError(conn *websocket.Conn, message string) {
	res := types.WebSocketResponse{
		Type:    types.TypeWebsocketError,
		Payload: types.WebSocketProcessingResponse{Message: message},
	}
	if err := conn.WriteJSON(res); err != nil {
		log.Println("Write error:", err)
	}
}
