package health

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/turtacn/Tether/pkg/consts"
)

func TestModel_ZeroValueIsUnknown(t *testing.T) {
	var m Model
	assert.Equal(t, HealthInfo{State: consts.HealthUnknown, Desc: "-"}, m.HealthInfo())
	assert.Equal(t, BatteryInfo{Level: consts.BatteryUnknown, Desc: "-%"}, m.BatteryLevelInfo())
}

func TestModel_BatteryBuckets(t *testing.T) {
	for b := -5; b <= 120; b++ {
		var m Model
		m.SetData(int(consts.HealthOk), b)

		want := consts.BatteryHigh
		switch {
		case b <= 20:
			want = consts.BatteryLow
		case b <= 50:
			want = consts.BatteryMiddle
		}
		info := m.BatteryLevelInfo()
		assert.Equal(t, want, info.Level, "battery %d", b)
		assert.Equal(t, fmt.Sprintf("%d%%", b), info.Desc)
	}
}

func TestModel_BatteryUnknownUnlessHealthOk(t *testing.T) {
	for _, code := range []int{0, 2, 3, -1, 99} {
		for _, b := range []int{0, 20, 21, 50, 51, 100} {
			var m Model
			m.SetData(code, b)
			assert.Equal(t, BatteryInfo{Level: consts.BatteryUnknown, Desc: "-%"}, m.BatteryLevelInfo(), "health %d battery %d", code, b)
		}
	}
}

func TestModel_HealthDescFallback(t *testing.T) {
	cases := map[int]string{0: "-", 1: "OK", 2: "NG", 3: "-", -1: "-"}
	for code, desc := range cases {
		var m Model
		m.SetData(code, 50)
		info := m.HealthInfo()
		assert.Equal(t, desc, info.Desc, "code %d", code)
		assert.Equal(t, consts.DroneHealthState(code), info.State)
	}
}

func TestModel_Reset(t *testing.T) {
	var m Model
	m.SetData(int(consts.HealthOk), 75)
	m.Reset()
	assert.Equal(t, consts.HealthUnknown, m.HealthInfo().State)
	assert.Equal(t, consts.BatteryUnknown, m.BatteryLevelInfo().Level)
}
