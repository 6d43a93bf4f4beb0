package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"mission-backend/models"
	"mission-backend/services"
)

// fakeConn - 전송된 메시지를 기록하는 가짜 WebSocket 연결
type fakeConn struct {
	mu       sync.Mutex
	messages []models.WebSocketMessage
	writeErr error
	closed   bool
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.messages = append(f.messages, v.(models.WebSocketMessage))
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) sent() []models.WebSocketMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.WebSocketMessage, len(f.messages))
	copy(out, f.messages)
	return out
}

func TestBroadcastRoutesByClientType(t *testing.T) {
	m := NewClientManager()
	web := &fakeConn{}
	v1 := &fakeConn{}
	v2 := &fakeConn{}
	m.addClient(&Client{Conn: web, ClientType: ClientTypeWeb})
	m.addClient(&Client{Conn: v1, ClientType: ClientTypeVehicle, VehicleID: "v1"})
	m.addClient(&Client{Conn: v2, ClientType: ClientTypeVehicle, VehicleID: "v2"})

	m.handleBroadcast(models.WebSocketMessage{Type: models.MessageTypeMissionEvent})
	m.handleBroadcast(models.WebSocketMessage{Type: models.MessageTypeMoveTo, VehicleID: "v2"})
	m.handleBroadcast(models.WebSocketMessage{Type: "unknown"})

	if got := web.sent(); len(got) != 1 || got[0].Type != models.MessageTypeMissionEvent {
		t.Fatalf("web received %+v", got)
	}
	if got := v1.sent(); len(got) != 0 {
		t.Fatalf("v1 received %+v", got)
	}
	if got := v2.sent(); len(got) != 1 || got[0].Type != models.MessageTypeMoveTo {
		t.Fatalf("v2 received %+v", got)
	}

	count := m.GetClientCount()
	if count[ClientTypeWeb] != 1 || count[ClientTypeVehicle] != 2 {
		t.Fatalf("client count = %v", count)
	}
}

func TestBroadcastDropsFailedClient(t *testing.T) {
	m := NewClientManager()
	broken := &fakeConn{writeErr: errors.New("broken pipe")}
	ok := &fakeConn{}
	m.addClient(&Client{Conn: broken, ClientType: ClientTypeWeb})
	m.addClient(&Client{Conn: ok, ClientType: ClientTypeWeb})

	done := make(chan struct{})
	go func() {
		m.handleBroadcast(models.WebSocketMessage{Type: models.MessageTypeSystemInfo})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("handleBroadcast blocked on a failed client")
	}

	if !broken.closed {
		t.Fatalf("failed connection was not closed")
	}
	if got := m.GetClientCount()[ClientTypeWeb]; got != 1 {
		t.Fatalf("web clients = %d, want 1", got)
	}
	if len(ok.sent()) != 1 {
		t.Fatalf("healthy client missed the message")
	}
}

func TestSendToVehicle(t *testing.T) {
	m := NewClientManager()
	err := m.SendToVehicle("v1", models.WebSocketMessage{Type: models.MessageTypeMoveTo})
	if !errors.Is(err, services.ErrNoVehicle) {
		t.Fatalf("err = %v, want ErrNoVehicle", err)
	}

	conn := &fakeConn{}
	m.addClient(&Client{Conn: conn, ClientType: ClientTypeVehicle, VehicleID: "v1"})
	if err := m.SendToVehicle("v1", models.WebSocketMessage{Type: models.MessageTypeMoveTo}); err != nil {
		t.Fatalf("SendToVehicle: %v", err)
	}
	if len(conn.sent()) != 1 {
		t.Fatalf("vehicle received %d messages", len(conn.sent()))
	}
}

func TestBroadcastMessageDoesNotBlockWhenFull(t *testing.T) {
	m := NewClientManager()
	for i := 0; i < cap(m.broadcast)+10; i++ {
		m.BroadcastMessage(models.WebSocketMessage{Type: models.MessageTypeMissionEvent})
	}
	if len(m.broadcast) != cap(m.broadcast) {
		t.Fatalf("queued %d, want %d", len(m.broadcast), cap(m.broadcast))
	}
}

func TestHandleVehicleMessagePose(t *testing.T) {
	m := NewClientManager()
	vehicles := NewVehicleManager()

	if err := handleVehicleMessage(vehicles, m, "v1", inboundMessage{Type: models.MessageTypeRegister}); err != nil {
		t.Fatalf("register: %v", err)
	}

	data, _ := json.Marshal(models.PoseData{X: 1, Y: 2, Z: 3})
	if err := handleVehicleMessage(vehicles, m, "v1", inboundMessage{Type: models.MessageTypePose, Data: data}); err != nil {
		t.Fatalf("pose: %v", err)
	}

	info, err := vehicles.GetStatus("v1")
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if !info.HasPose || info.Pose != (models.PoseData{X: 1, Y: 2, Z: 3}) {
		t.Fatalf("vehicle info = %+v", info)
	}

	select {
	case msg := <-m.broadcast:
		if msg.Type != models.MessageTypePose || msg.VehicleID != "v1" || msg.Timestamp == 0 {
			t.Fatalf("broadcast = %+v", msg)
		}
	default:
		t.Fatalf("pose was not broadcast")
	}
}

func TestHandleVehicleMessageErrors(t *testing.T) {
	m := NewClientManager()
	vehicles := NewVehicleManager()

	data, _ := json.Marshal(models.PoseData{X: 1})
	if err := handleVehicleMessage(vehicles, m, "ghost", inboundMessage{Type: models.MessageTypePose, Data: data}); !errors.Is(err, services.ErrNoVehicle) {
		t.Fatalf("pose for unknown vehicle: %v", err)
	}
	if err := handleVehicleMessage(vehicles, m, "v1", inboundMessage{Type: models.MessageTypeRegister}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := handleVehicleMessage(vehicles, m, "v1", inboundMessage{Type: models.MessageTypePose, Data: []byte("{bad")}); err == nil {
		t.Fatalf("expected error for malformed pose")
	}
	if err := handleVehicleMessage(vehicles, m, "v1", inboundMessage{Type: "dance"}); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestMissionBroadcaster(t *testing.T) {
	m := NewClientManager()
	b := &MissionBroadcaster{Manager: m}
	b.ObserveMission(models.MissionEvent{Type: models.EventArrival, Timestamp: time.UnixMilli(1234)})

	select {
	case msg := <-m.broadcast:
		evt, ok := msg.Data.(models.MissionEvent)
		if msg.Type != models.MessageTypeMissionEvent || !ok || evt.Type != models.EventArrival || msg.Timestamp != 1234 {
			t.Fatalf("broadcast = %+v", msg)
		}
	default:
		t.Fatalf("event was not broadcast")
	}
}

func TestWebSocketCommanderAndPoseSource(t *testing.T) {
	m := NewClientManager()
	vehicles := NewVehicleManager()
	cmd := &WebSocketCommander{Manager: m, Vehicles: vehicles, VehicleID: "v1", MissionID: "m-1"}
	pose := &VehiclePoseSource{Vehicles: vehicles, VehicleID: "v1"}
	ctx := context.Background()

	if accepted, err := cmd.MoveTo(ctx, models.Point3D{X: 1}); accepted || !errors.Is(err, services.ErrNoVehicle) {
		t.Fatalf("MoveTo without vehicle = %v, %v", accepted, err)
	}
	if _, err := pose.CurrentPosition(ctx); !errors.Is(err, services.ErrPoseUnavailable) {
		t.Fatalf("CurrentPosition without vehicle: %v", err)
	}

	conn := &fakeConn{}
	m.addClient(&Client{Conn: conn, ClientType: ClientTypeVehicle, VehicleID: "v1"})
	if _, err := vehicles.RegisterVehicle("v1"); err != nil {
		t.Fatalf("RegisterVehicle: %v", err)
	}

	// 등록만 되고 위치가 없으면 아직 알 수 없음
	if _, err := pose.CurrentPosition(ctx); !errors.Is(err, services.ErrPoseUnavailable) {
		t.Fatalf("CurrentPosition before pose: %v", err)
	}

	target := models.Point3D{X: 20, Y: 0, Z: 10}
	accepted, err := cmd.MoveTo(ctx, target)
	if err != nil || !accepted {
		t.Fatalf("MoveTo = %v, %v", accepted, err)
	}
	sent := conn.sent()
	if len(sent) != 1 {
		t.Fatalf("vehicle received %d messages", len(sent))
	}
	moveTo, ok := sent[0].Data.(models.MoveToCommand)
	if !ok || moveTo.Target != target || moveTo.MissionID != "m-1" {
		t.Fatalf("move_to payload = %+v", sent[0].Data)
	}

	if err := vehicles.UpdatePose("v1", models.PoseData{X: 20, Y: 0, Z: 10}); err != nil {
		t.Fatalf("UpdatePose: %v", err)
	}
	got, err := pose.CurrentPosition(ctx)
	if err != nil || got != target {
		t.Fatalf("CurrentPosition = %s, %v", got, err)
	}

	vehicles.Disconnect("v1")
	if accepted, _ := cmd.MoveTo(ctx, target); accepted {
		t.Fatalf("MoveTo accepted after disconnect")
	}
}
