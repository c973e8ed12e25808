package health

import (
	"strconv"

	"github.com/turtacn/Tether/pkg/consts"
)

var healthDescs = []string{"-", "OK", "NG"}

// HealthInfo is the presentable form of the health code.
type HealthInfo struct {
	State consts.DroneHealthState
	Desc  string
}

// BatteryInfo is the presentable form of the battery level.
type BatteryInfo struct {
	Level consts.BatteryLevel
	Desc  string
}

// Model holds the last health/battery pair reported by the channel.
// It is a plain value: copy it to take a snapshot.
type Model struct {
	health  consts.DroneHealthState
	battery int
}

// SetData overwrites both fields. The channel is the trusted telemetry
// source, so nothing is validated here.
func (m *Model) SetData(healthCode, batteryRaw int) {
	m.health = consts.DroneHealthState(healthCode)
	m.battery = batteryRaw
}

// Reset returns the model to Unknown/Unknown.
func (m *Model) Reset() {
	m.SetData(int(consts.HealthUnknown), 0)
}

func (m Model) HealthInfo() HealthInfo {
	desc := "-"
	if i := int(m.health); i >= 0 && i < len(healthDescs) {
		desc = healthDescs[i]
	}
	return HealthInfo{State: m.health, Desc: desc}
}

// BatteryLevelInfo buckets the raw percentage. The bucket only means
// something once health is confirmed Ok.
func (m Model) BatteryLevelInfo() BatteryInfo {
	if m.health != consts.HealthOk {
		return BatteryInfo{Level: consts.BatteryUnknown, Desc: "-%"}
	}

	desc := strconv.Itoa(m.battery) + "%"
	switch {
	case m.battery <= consts.BatteryLowMax:
		return BatteryInfo{Level: consts.BatteryLow, Desc: desc}
	case m.battery <= consts.BatteryMiddleMax:
		return BatteryInfo{Level: consts.BatteryMiddle, Desc: desc}
	default:
		return BatteryInfo{Level: consts.BatteryHigh, Desc: desc}
	}
}

// Personal.AI order the ending
