package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/Tether/pkg/consts"
)

func record(m *Machine) *[]Notification {
	var got []Notification
	m.Subscribe(func(n Notification) { got = append(got, n) })
	return &got
}

func TestMachine_InitialState(t *testing.T) {
	m := New()
	snap := m.Snapshot()
	assert.Equal(t, consts.AppInit, snap.Application)
	assert.Equal(t, consts.ViewInit, snap.View)
	assert.Equal(t, consts.HealthUnknown, snap.Health.HealthInfo().State)
	assert.False(t, m.IsTerminated())
}

func TestMachine_UpdateCoalescesIntoOneNotification(t *testing.T) {
	m := New()
	got := record(m)

	_, ok := m.Update(KindHealthChecked, func(tx *Tx) {
		tx.SetApplication(consts.AppStarted)
		tx.SetHealth(int(consts.HealthOk), 40)
		tx.ToReady()
		tx.ToLand()
		require.NoError(t, tx.Err())
	})
	require.True(t, ok)

	require.Len(t, *got, 1)
	n := (*got)[0]
	assert.Equal(t, KindHealthChecked, n.Kind)
	assert.Equal(t, consts.AppStarted, n.Snapshot.Application)
	assert.Equal(t, consts.ViewLand, n.Snapshot.View)
	assert.Equal(t, consts.BatteryMiddle, n.Snapshot.Health.BatteryLevelInfo().Level)
}

func TestMachine_LandFromInitPassesThroughReady(t *testing.T) {
	m := New()
	got := record(m)

	m.Update(KindStateChanged, func(tx *Tx) {
		tx.ToLand()
		assert.NoError(t, tx.Err())
	})
	assert.Equal(t, consts.ViewLand, m.View())
	assert.Len(t, *got, 1)

	m.Update(KindStateChanged, func(tx *Tx) { tx.ToInit() })
	m.Update(KindStateChanged, func(tx *Tx) { tx.ToTakeOff() })
	assert.Equal(t, consts.ViewTakeOff, m.View())
	assert.Len(t, *got, 3)
}

func TestMachine_ReturnToInitResetsHealthAndView(t *testing.T) {
	m := New()
	m.Update(KindHealthChecked, func(tx *Tx) {
		tx.SetApplication(consts.AppStarted)
		tx.SetHealth(int(consts.HealthOk), 90)
		tx.ToTakeOff()
	})
	require.Equal(t, consts.HealthOk, m.Health().HealthInfo().State)

	require.True(t, m.Seed(consts.AppInit))
	snap := m.Snapshot()
	assert.Equal(t, consts.AppInit, snap.Application)
	assert.Equal(t, consts.ViewInit, snap.View)
	assert.Equal(t, consts.HealthUnknown, snap.Health.HealthInfo().State)
	assert.Equal(t, consts.BatteryUnknown, snap.Health.BatteryLevelInfo().Level)
}

func TestMachine_UnknownApplicationStateIsReported(t *testing.T) {
	m := New()
	m.Update(KindHealthChecked, func(tx *Tx) {
		tx.SetApplication(consts.ApplicationState(7))
		assert.Error(t, tx.Err())
	})
	assert.Equal(t, consts.AppInit, m.Application())
}

func TestMachine_TerminatedIsAbsorbing(t *testing.T) {
	m := New()
	m.Seed(consts.AppStarted)
	got := record(m)

	require.True(t, m.Terminate())
	require.False(t, m.Terminate(), "second Terminate must not re-enter")
	require.Len(t, *got, 1)
	assert.True(t, (*got)[0].Snapshot.Terminated())

	for i := 0; i < 10; i++ {
		_, ok := m.Update(KindHealthChecked, func(tx *Tx) {
			t.Fatal("transaction must not run once terminal")
		})
		assert.False(t, ok)
		assert.False(t, m.Seed(consts.AppInit))
	}
	assert.Len(t, *got, 1)
	assert.Equal(t, consts.AppTerminated, m.Application())
	assert.True(t, m.IsTerminated())
}

func TestMachine_Unsubscribe(t *testing.T) {
	m := New()
	calls := 0
	unsub := m.Subscribe(func(Notification) { calls++ })
	m.Seed(consts.AppStarted)
	unsub()
	m.Seed(consts.AppInit)
	assert.Equal(t, 1, calls)
}
