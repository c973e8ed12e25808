package consts

import "time"

// ApplicationState is the process-level phase of the remote control application.
// The numeric values match the applicationState/state fields on the wire.
type ApplicationState int

const (
	AppInit ApplicationState = iota
	AppStarted
	AppTerminated // Local only, the server never reports it
)

func (s ApplicationState) String() string {
	switch s {
	case AppInit:
		return "INIT"
	case AppStarted:
		return "STARTED"
	case AppTerminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

// ViewState is the device-level phase shown to the operator.
type ViewState string

const (
	ViewInit    ViewState = "INIT"
	ViewReady   ViewState = "READY"
	ViewLand    ViewState = "LAND"
	ViewTakeOff ViewState = "TAKEOFF"
)

// DroneState is the device state code carried by appInfo frames.
type DroneState int

const (
	DroneUnknown DroneState = iota
	DroneReady
	DroneLand
	DroneTakeOff
)

// DroneHealthState is the health code carried by appInfo frames.
type DroneHealthState int

const (
	HealthUnknown DroneHealthState = iota
	HealthOk
	HealthNg
)

// BatteryLevel is derived locally from the raw battery percentage.
type BatteryLevel int

const (
	BatteryUnknown BatteryLevel = iota
	BatteryLow
	BatteryMiddle
	BatteryHigh
)

func (b BatteryLevel) String() string {
	switch b {
	case BatteryLow:
		return "LOW"
	case BatteryMiddle:
		return "MIDDLE"
	case BatteryHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// Battery bucket upper bounds (inclusive).
const (
	BatteryLowMax    = 20
	BatteryMiddleMax = 50
)

// Channel message types
const (
	MessageCheckSessionKey = "checkSessionKey"
	MessageAppInfo         = "appInfo"
)

// HTTP surface of the drone-local server
const (
	SessionKeyHeader = "x-ojm-drone-local-session-key"
	AccessKeyHeader  = "x-ojm-drone-local-access-key"
	SessionKeyQuery  = "sessionKey"

	DefaultCGIPrefix     = "/cgi"
	DefaultStatePath     = "/cgi/state"
	AuthorizePath        = "/dmz/startUsingApplication"
	EntryPointPath       = "/"
	PathApplicationState = "/checkApplicationStates"
	PathGenerateKey      = "/generateKey"
	PathStartApp         = "/startApp"
	PathStopApp          = "/stopApp"
	PathTakeOff          = "/takeoff"
	PathLand             = "/land"
	PathTerminate        = "/terminate"
	PathUpdateToken      = "/updateAccessToken"
	PathDeleteToken      = "/deleteAccessToken"
)

// Channel supervision defaults
const (
	DefaultRetryInterval    = 1000 * time.Millisecond
	DefaultMaxRetry         = 10
	DefaultHandshakeTimeout = 5 * time.Second
	DefaultIdentityTimeout  = 30 * time.Second
	DefaultRequestTimeout   = 10 * time.Second
	DefaultPushInterval     = 1 * time.Second
)

// BootstrapPhase tracks the one-time session startup.
type BootstrapPhase string

const (
	PhasePending     BootstrapPhase = "PENDING"
	PhaseAuthorizing BootstrapPhase = "AUTHORIZING" // Waiting for the session identity
	PhaseFetching    BootstrapPhase = "FETCHING"    // checkApplicationStates in flight
	PhaseSeeding     BootstrapPhase = "SEEDING"
	PhaseSupervising BootstrapPhase = "SUPERVISING" // Handed off to the connection supervisor
	PhaseFailed      BootstrapPhase = "FAILED"
)

// Personal.AI order the ending
