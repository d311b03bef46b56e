// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mpu6886

import (
	"errors"
	"testing"
	"time"
)

func TestSelfTestValidatesArguments(t *testing.T) {
	bus := newMockBus()
	dev, _ := testDev(t, bus, DefaultOpts)

	if _, err := dev.SelfTest(SensorAccel, 0, 10, 0, 0); !errors.Is(err, ErrSelfTestAxes) {
		t.Errorf("no axes err = %v, want ErrSelfTestAxes", err)
	}
	if _, err := dev.SelfTest(SensorAccel, Axes(0x01), 10, 0, 0); !errors.Is(err, ErrSelfTestAxes) {
		t.Errorf("stray axis bit err = %v, want ErrSelfTestAxes", err)
	}
	if _, err := dev.SelfTest(SensorAccel, AxesAll, 0, 0, 0); !errors.Is(err, ErrSampleCount) {
		t.Errorf("count=0 err = %v, want ErrSampleCount", err)
	}
	if _, err := dev.SelfTest(Sensor(3), AxesAll, 10, 0, 0); !errors.Is(err, ErrSensorKind) {
		t.Errorf("bad sensor err = %v, want ErrSensorKind", err)
	}
	if len(bus.writes) != 0 {
		t.Errorf("rejected self-test still wrote registers: %v", bus.writes)
	}
}

func TestSelfTestAccelResponse(t *testing.T) {
	bus := newMockBus()
	var dev *Dev
	bus.onWrite = func(reg, val byte) {
		if dev == nil || reg != regAccelConfig {
			return
		}
		// Excitation shifts every axis by one g; clearing it removes the shift.
		if val&byte(AxesAll) != 0 {
			bus.setTriple(regAccelXOutH, [3]int16{16384, -16384, 32767 - 16384})
		} else {
			bus.setTriple(regAccelXOutH, [3]int16{0, -32768, -16384})
		}
	}
	dev, _ = testDev(t, bus, DefaultOpts)

	resp, err := dev.SelfTest(SensorAccel, AxesAll, 4, time.Millisecond, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("SelfTest: %v", err)
	}
	g := StandardGravity
	want := [3]float64{g, g, g + g*16383.0/16384.0}
	for i := range resp {
		if !almostEqual(resp[i], want[i]) {
			t.Errorf("response[%d] = %v, want %v", i, resp[i], want[i])
		}
	}
	if dev.SelfTestState() != SelfTestIdle {
		t.Errorf("state after self-test = %v, want idle", dev.SelfTestState())
	}
}

func TestSelfTestSingleAxis(t *testing.T) {
	bus := newMockBus()
	var dev *Dev
	bus.onWrite = func(reg, val byte) {
		if dev == nil || reg != regGyroConfig {
			return
		}
		if val&byte(AxisY) != 0 {
			bus.setTriple(regGyroXOutH, [3]int16{0, 1310, 0})
		} else {
			bus.setTriple(regGyroXOutH, [3]int16{0, 0, 0})
		}
	}
	dev, _ = testDev(t, bus, DefaultOpts)

	resp, err := dev.SelfTest(SensorGyro, AxisY, 2, 0, 0)
	if err != nil {
		t.Fatalf("SelfTest: %v", err)
	}
	if !almostEqual(resp[1], 10) { // 1310 counts at 131 LSB/(°/s)
		t.Errorf("Y response = %v, want 10°/s", resp[1])
	}
	if !almostEqual(resp[0], 0) || !almostEqual(resp[2], 0) {
		t.Errorf("unexcited axes responded: %v", resp)
	}
}

func TestSelfTestExcitationSequence(t *testing.T) {
	bus := newMockBus()
	var dev *Dev
	var states []SelfTestState
	bus.onWrite = func(reg, val byte) {
		if dev != nil && reg == regGyroConfig {
			states = append(states, dev.SelfTestState())
		}
	}
	dev, _ = testDev(t, bus, DefaultOpts)

	if _, err := dev.SelfTest(SensorGyro, AxisX|AxisZ, 2, 0, 0); err != nil {
		t.Fatalf("SelfTest: %v", err)
	}

	// Three GYRO_CONFIG writes: excitation on, excitation off, range restore.
	writes := bus.writes
	var cfg [][2]byte
	for _, w := range writes {
		if w[0] == regGyroConfig {
			cfg = append(cfg, w)
		}
	}
	if len(cfg) != 3 {
		t.Fatalf("GYRO_CONFIG writes = %v, want 3", cfg)
	}
	if cfg[0][1] != byte(AxisX|AxisZ) {
		t.Errorf("excitation write = 0x%02X, want 0x%02X", cfg[0][1], byte(AxisX|AxisZ))
	}
	if cfg[1][1] != 0x00 {
		t.Errorf("clearing write = 0x%02X, want 0x00", cfg[1][1])
	}

	want := []SelfTestState{SelfTestEnabled, SelfTestDisabled, SelfTestCompared}
	if len(states) != len(want) {
		t.Fatalf("observed states = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("state at write %d = %v, want %v", i, states[i], want[i])
		}
	}
}

func TestSelfTestRestoresConfiguredRanges(t *testing.T) {
	bus := newMockBus()
	var dev *Dev
	bus.onWrite = func(reg, val byte) {
		if dev == nil || reg != regAccelConfig {
			return
		}
		if val&byte(AxesAll) != 0 {
			bus.setTriple(regAccelXOutH, [3]int16{16384, 0, 0})
		} else {
			bus.setTriple(regAccelXOutH, [3]int16{0, 0, 0})
		}
	}
	opts := DefaultOpts
	opts.AccelRange = AccelRange16G
	opts.GyroRange = GyroRange1000
	dev, _ = testDev(t, bus, opts)

	resp, err := dev.SelfTest(SensorAccel, AxesAll, 2, 0, 0)
	if err != nil {
		t.Fatalf("SelfTest: %v", err)
	}
	// Measurements during the test run at the base range, not the configured one.
	if !almostEqual(resp[0], StandardGravity) {
		t.Errorf("response = %v, want measurement at ±2g sensitivity", resp[0])
	}
	if dev.AccelRange() != AccelRange16G || dev.GyroRange() != GyroRange1000 {
		t.Errorf("ranges after self-test = %v/%v, want ±16g/±1000°/s",
			dev.AccelRange(), dev.GyroRange())
	}
	last := bus.writes[len(bus.writes)-1]
	if last != [2]byte{regAccelConfig, AccelRange16G.fsBits()} {
		t.Errorf("final ACCEL_CONFIG write = %v, want restore to ±16g", last)
	}
}

func TestFactoryTrimCached(t *testing.T) {
	bus := newMockBus()
	bus.regs[regSelfTestXAccel] = 80
	bus.regs[regSelfTestYAccel] = 100
	bus.regs[regSelfTestZAccel] = 120
	bus.regs[regSelfTestXGyro] = 131
	bus.regs[regSelfTestYGyro] = 0
	bus.regs[regSelfTestZGyro] = 255
	dev, _ := testDev(t, bus, DefaultOpts)

	trim, err := dev.FactoryTrim(SensorAccel)
	if err != nil {
		t.Fatalf("FactoryTrim: %v", err)
	}
	want, _ := ToAcceleration([3]int16{80, 100, 120}, AccelRange2G)
	if trim != want {
		t.Errorf("accel trim = %v, want %v", trim, want)
	}

	trim, err = dev.FactoryTrim(SensorGyro)
	if err != nil {
		t.Fatalf("FactoryTrim: %v", err)
	}
	if !almostEqual(trim[0], 1) || !almostEqual(trim[2], 255.0/131.0) {
		t.Errorf("gyro trim = %v, want [1 0 %v]", trim, 255.0/131.0)
	}

	// Trim registers were read during initialization; later calls serve the cache.
	before := bus.readCount
	if _, err := dev.FactoryTrim(SensorAccel); err != nil {
		t.Fatalf("FactoryTrim: %v", err)
	}
	if bus.readCount != before {
		t.Errorf("FactoryTrim read the bus again: %d reads", bus.readCount-before)
	}

	if _, err := dev.FactoryTrim(Sensor(9)); !errors.Is(err, ErrSensorKind) {
		t.Errorf("bad sensor err = %v, want ErrSensorKind", err)
	}
}

func TestSelfTestStateStrings(t *testing.T) {
	cases := []struct {
		s    SelfTestState
		want string
	}{
		{SelfTestIdle, "idle"},
		{SelfTestEnabled, "selftest-enabled"},
		{SelfTestMeasuring, "measuring"},
		{SelfTestDisabled, "selftest-disabled"},
		{SelfTestCompared, "compared"},
	}
	for _, tc := range cases {
		if got := tc.s.String(); got != tc.want {
			t.Errorf("SelfTestState(%d) = %q, want %q", int(tc.s), got, tc.want)
		}
	}
	if got := (AxisX | AxisZ).String(); got != "XZ" {
		t.Errorf("Axes X|Z = %q, want XZ", got)
	}
	if got := Axes(0).String(); got != "none" {
		t.Errorf("Axes(0) = %q, want none", got)
	}
}
