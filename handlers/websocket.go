package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"mission-backend/models"
	"mission-backend/services"

	"github.com/gofiber/websocket/v2"
)

// 클라이언트 종류
const (
	ClientTypeVehicle = "vehicle"
	ClientTypeWeb     = "web"
)

// wsConn - ClientManager가 사용하는 WebSocket 연결 기능
type wsConn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type Client struct {
	Conn       wsConn
	ClientType string // "vehicle" 또는 "web"
	VehicleID  string // vehicle 클라이언트만 사용

	writeMu sync.Mutex
}

// write - 연결별 직렬화된 전송 (WebSocket은 동시 쓰기 불가)
func (c *Client) write(msg models.WebSocketMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteJSON(msg)
}

// 클라이언트 관리자
type ClientManager struct {
	clients    map[wsConn]*Client
	broadcast  chan models.WebSocketMessage
	register   chan *Client
	unregister chan wsConn
	mutex      sync.RWMutex
}

// NewClientManager - 클라이언트 관리자 생성
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients:    make(map[wsConn]*Client),
		broadcast:  make(chan models.WebSocketMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan wsConn),
	}
}

// 전역 클라이언트 관리자
var Manager = NewClientManager()

// 클라이언트 관리 시작
func (manager *ClientManager) Start() {
	for {
		select {
		case client := <-manager.register:
			manager.addClient(client)
		case conn := <-manager.unregister:
			manager.removeClient(conn)
		case message := <-manager.broadcast:
			manager.handleBroadcast(message)
		}
	}
}

func (manager *ClientManager) addClient(client *Client) {
	manager.mutex.Lock()
	manager.clients[client.Conn] = client
	manager.mutex.Unlock()
	log.Printf("클라이언트 등록: %s %s", client.ClientType, client.VehicleID)
}

func (manager *ClientManager) removeClient(conn wsConn) {
	manager.mutex.Lock()
	client, ok := manager.clients[conn]
	if ok {
		delete(manager.clients, conn)
	}
	manager.mutex.Unlock()

	if ok {
		_ = conn.Close()
		log.Printf("클라이언트 해제: %s %s", client.ClientType, client.VehicleID)
	}
}

// shouldSend - 메시지 타입에 따라 전송 대상 결정
func shouldSend(message models.WebSocketMessage, client *Client) bool {
	switch message.Type {
	case models.MessageTypePose,
		models.MessageTypeMissionEvent,
		models.MessageTypeMissionStatus,
		models.MessageTypeSystemInfo:
		// Web 클라이언트에게 전송
		return client.ClientType == ClientTypeWeb
	case models.MessageTypeMoveTo:
		// 대상 기체 (VehicleID가 비어 있으면 모든 기체)
		return client.ClientType == ClientTypeVehicle &&
			(message.VehicleID == "" || message.VehicleID == client.VehicleID)
	}
	return false
}

func (manager *ClientManager) handleBroadcast(message models.WebSocketMessage) {
	manager.mutex.RLock()
	targets := make([]*Client, 0, len(manager.clients))
	for _, client := range manager.clients {
		if shouldSend(message, client) {
			targets = append(targets, client)
		}
	}
	manager.mutex.RUnlock()

	for _, client := range targets {
		if err := client.write(message); err != nil {
			log.Printf("전송 실패 (%s): %v", client.ClientType, err)
			manager.removeClient(client.Conn)
		}
	}
}

// 외부에서 호출할 수 있는 브로드캐스트 메서드 (채널이 가득 차면 버림)
func (manager *ClientManager) BroadcastMessage(msg models.WebSocketMessage) {
	select {
	case manager.broadcast <- msg:
	default:
		log.Println("⚠️ broadcast 채널 가득 참")
	}
}

// SendToVehicle - 특정 기체에게 즉시 전송
func (manager *ClientManager) SendToVehicle(vehicleID string, msg models.WebSocketMessage) error {
	manager.mutex.RLock()
	var target *Client
	for _, client := range manager.clients {
		if client.ClientType == ClientTypeVehicle && client.VehicleID == vehicleID {
			target = client
			break
		}
	}
	manager.mutex.RUnlock()

	if target == nil {
		return fmt.Errorf("%w: %s", services.ErrNoVehicle, vehicleID)
	}
	if err := target.write(msg); err != nil {
		manager.removeClient(target.Conn)
		return fmt.Errorf("send to %s: %w", vehicleID, err)
	}
	return nil
}

func (manager *ClientManager) GetClientCount() map[string]int {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()

	count := map[string]int{
		ClientTypeVehicle: 0,
		ClientTypeWeb:     0,
	}

	for _, client := range manager.clients {
		count[client.ClientType]++
	}

	return count
}

// ========================================
// WebSocket 핸들러
// ========================================

// inboundMessage - 수신 메시지 (Data는 타입별로 다시 파싱)
type inboundMessage struct {
	Type      string          `json:"type"`
	VehicleID string          `json:"vehicle_id,omitempty"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// handleVehicleMessage - 기체 메시지 처리 (등록/위치 업데이트)
func handleVehicleMessage(vehicles *VehicleManager, manager *ClientManager, vehicleID string, msg inboundMessage) error {
	switch msg.Type {
	case models.MessageTypeRegister:
		_, err := vehicles.RegisterVehicle(vehicleID)
		return err

	case models.MessageTypePose:
		var pose models.PoseData
		if err := json.Unmarshal(msg.Data, &pose); err != nil {
			return fmt.Errorf("invalid pose: %w", err)
		}
		if err := vehicles.UpdatePose(vehicleID, pose); err != nil {
			return err
		}

		if msg.Timestamp == 0 {
			msg.Timestamp = time.Now().UnixMilli()
		}
		manager.BroadcastMessage(models.WebSocketMessage{
			Type:      models.MessageTypePose,
			VehicleID: vehicleID,
			Data:      pose,
			Timestamp: msg.Timestamp,
		})
		return nil
	}
	return fmt.Errorf("알 수 없는 메시지 타입: %s", msg.Type)
}

// Vehicle WebSocket Handler (/websocket/vehicle?id=...)
func HandleVehicleWebSocket(c *websocket.Conn) {
	vehicleID := c.Query("id", DefaultVehicleID)

	client := &Client{
		Conn:       c,
		ClientType: ClientTypeVehicle,
		VehicleID:  vehicleID,
	}

	Manager.register <- client
	if _, err := Vehicles.RegisterVehicle(vehicleID); err != nil {
		log.Printf("❌ 기체 등록 실패: %v", err)
	}

	defer func() {
		Manager.unregister <- c
		Vehicles.Disconnect(vehicleID)
	}()

	for {
		var msg inboundMessage
		if err := c.ReadJSON(&msg); err != nil {
			log.Printf("기체 메시지 읽기 오류 (%s): %v", vehicleID, err)
			break
		}

		if err := handleVehicleMessage(Vehicles, Manager, vehicleID, msg); err != nil {
			log.Printf("⚠️ 기체 메시지 처리 실패 (%s): %v", vehicleID, err)
		}
	}
}

// Web 클라이언트 WebSocket Handler (미션 이벤트 구독)
func HandleWebClientWebSocket(c *websocket.Conn) {
	client := &Client{
		Conn:       c,
		ClientType: ClientTypeWeb,
	}

	Manager.register <- client

	defer func() {
		Manager.unregister <- c
	}()

	// 연결 확인 메시지 전송
	welcomeMsg := models.WebSocketMessage{
		Type: models.MessageTypeSystemInfo,
		Data: map[string]interface{}{
			"message":      "웹 클라이언트 연결됨",
			"connected_at": time.Now().Format(time.RFC3339),
		},
		Timestamp: time.Now().UnixMilli(),
	}
	_ = client.write(welcomeMsg)

	// 현재 미션 스냅샷
	if Runner != nil {
		_ = client.write(models.WebSocketMessage{
			Type:      models.MessageTypeMissionStatus,
			Data:      Runner.Status(),
			Timestamp: time.Now().UnixMilli(),
		})
	}

	// 웹 클라이언트는 수신 전용: 연결 종료만 감지
	for {
		var msg inboundMessage
		if err := c.ReadJSON(&msg); err != nil {
			log.Printf("웹 메시지 읽기 오류: %v", err)
			break
		}
		log.Printf("웹 메시지 무시: %s", msg.Type)
	}
}

// ========================================
// 미션 이벤트 브로드캐스트
// ========================================

// MissionBroadcaster - 미션 이벤트를 Web 클라이언트로 전달 (MissionObserver)
type MissionBroadcaster struct {
	Manager *ClientManager
}

// ObserveMission - 이벤트를 mission_event 메시지로 브로드캐스트
func (b *MissionBroadcaster) ObserveMission(evt models.MissionEvent) {
	b.Manager.BroadcastMessage(models.WebSocketMessage{
		Type:      models.MessageTypeMissionEvent,
		Data:      evt,
		Timestamp: evt.Timestamp.UnixMilli(),
	})
}
