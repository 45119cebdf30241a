package domain

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	MessageTypeConnection MessageType = "connection"
	MessageTypeTraffic    MessageType = "traffic"
	MessageTypeWebsocket  MessageType = "websocket"
)

// BuildVersion is stamped into every outgoing envelope so the inspector can
// refuse agents speaking an incompatible schema. Overwritten via -ldflags.
var BuildVersion = "dev"

// Message is the envelope sent over the wire. Content carries the inner JSON
// payload and marshals as Base64, matching what the inspector expects.
type Message struct {
	ID           string      `json:"id"`
	MessageType  MessageType `json:"messageType"`
	Content      []byte      `json:"content,omitempty"`
	BuildVersion string      `json:"buildVersion"`
}

// connectionPayload is the inner payload of a connection-type message,
// identifying this session to the inspector.
type connectionPayload struct {
	Device struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"device"`
	Project struct {
		Name             string `json:"name"`
		BundleIdentifier string `json:"bundleIdentifier"`
	} `json:"project"`
	Icon []byte `json:"icon"`
}

// NewConnectionMessage builds the hello envelope sent first on every
// established connection.
func NewConnectionMessage(cfg Configuration) (*Message, error) {
	var p connectionPayload
	p.Device.Name = cfg.DeviceName
	p.Device.Model = cfg.DeviceModel
	p.Project.Name = cfg.ProjectName
	p.Project.BundleIdentifier = cfg.BundleIdentifier
	p.Icon = cfg.Icon
	content, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return &Message{ID: cfg.ID, MessageType: MessageTypeConnection, Content: content, BuildVersion: BuildVersion}, nil
}

// NewTrafficMessage wraps one HTTP exchange record.
func NewTrafficMessage(sessionID string, pkg TrafficPackage) (*Message, error) {
	content, err := json.Marshal(pkg)
	if err != nil {
		return nil, err
	}
	return &Message{ID: sessionID, MessageType: MessageTypeTraffic, Content: content, BuildVersion: BuildVersion}, nil
}

// NewWebsocketMessage wraps one WebSocket lifecycle or frame record.
func NewWebsocketMessage(sessionID string, pkg TrafficPackage) (*Message, error) {
	content, err := json.Marshal(pkg)
	if err != nil {
		return nil, err
	}
	return &Message{ID: sessionID, MessageType: MessageTypeWebsocket, Content: content, BuildVersion: BuildVersion}, nil
}

// Now returns the current time as fractional epoch seconds, the timestamp
// format used across all wire records.
func Now() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}
