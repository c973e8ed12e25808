package protocol

import (
	"encoding/json"

	"github.com/turtacn/Tether/pkg/consts"
)

// InboundFrame is any text frame the server pushes on the state channel.
// Optional fields are pointers so an absent field can be told apart from 0.
type InboundFrame struct {
	MessageType       string       `json:"messageType"`
	CurrentSessionKey string       `json:"currentSessionKey,omitempty"`
	SessionKey        string       `json:"sessionKey,omitempty"`
	State             *int         `json:"state,omitempty"`
	DroneHealth       *DroneHealth `json:"droneHealth,omitempty"`
	DroneState        *int         `json:"droneState,omitempty"`
}

type DroneHealth struct {
	Health       int `json:"health"`
	BatteryLevel int `json:"batteryLevel"`
}

// DecodeFrame parses one inbound text frame.
func DecodeFrame(data []byte) (InboundFrame, error) {
	var f InboundFrame
	err := json.Unmarshal(data, &f)
	return f, err
}

// CheckSessionKeyRequest is sent by the client right after the channel opens.
type CheckSessionKeyRequest struct {
	MessageType string `json:"messageType"`
}

func NewCheckSessionKeyRequest() CheckSessionKeyRequest {
	return CheckSessionKeyRequest{MessageType: consts.MessageCheckSessionKey}
}

// CheckSessionKeyReply echoes the session key of the running server process.
type CheckSessionKeyReply struct {
	MessageType       string `json:"messageType"`
	CurrentSessionKey string `json:"currentSessionKey"`
}

// AppInfoFrame is the periodic telemetry push as the server encodes it.
type AppInfoFrame struct {
	MessageType string      `json:"messageType"`
	SessionKey  string      `json:"sessionKey"`
	State       int         `json:"state"`
	DroneHealth DroneHealth `json:"droneHealth"`
	DroneState  int         `json:"droneState"`
}

// StatesResponse is the body of GET <prefix>/checkApplicationStates.
type StatesResponse struct {
	AccessTokenDesc  string `json:"accessTokenDesc"`
	ApplicationState int    `json:"applicationState"`
	StartKey         string `json:"startKey"`
}

// AuthorizeResponse is the body of GET /dmz/startUsingApplication.
type AuthorizeResponse struct {
	SessionKey string `json:"sessionKey"`
}

type StartKeyBody struct {
	StartKey string `json:"startKey"`
}

type AccessTokenRequest struct {
	AccessToken string `json:"accessToken"`
}

type AccessTokenResponse struct {
	AccessTokenDesc string `json:"accessTokenDesc"`
}

// Personal.AI order the ending
