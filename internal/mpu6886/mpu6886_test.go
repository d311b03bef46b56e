// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mpu6886

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// mockBus simulates the register file of an MPU-6886. Reads serve consecutive
// addresses starting at the requested register; writes land in the same
// register file. A per-register queue lets tests script values that change
// between reads.
type mockBus struct {
	regs      map[byte]byte
	queue     map[byte][][]byte
	writes    [][2]byte // (reg, val) in write order
	readCount int

	readErr   error
	readErrAt int // fail the nth read (1-based); 0 with readErr set fails every read

	onWrite func(reg, val byte)
}

func newMockBus() *mockBus {
	return &mockBus{
		regs:  map[byte]byte{regWhoAmI: chipID},
		queue: map[byte][][]byte{},
	}
}

func (m *mockBus) ReadReg(reg byte, buf []byte) error {
	m.readCount++
	if m.readErr != nil && (m.readErrAt == 0 || m.readCount >= m.readErrAt) {
		return m.readErr
	}
	if q := m.queue[reg]; len(q) > 0 {
		copy(buf, q[0])
		m.queue[reg] = q[1:]
		return nil
	}
	for i := range buf {
		buf[i] = m.regs[reg+byte(i)]
	}
	return nil
}

func (m *mockBus) WriteReg(reg, val byte) error {
	m.writes = append(m.writes, [2]byte{reg, val})
	m.regs[reg] = val
	if m.onWrite != nil {
		m.onWrite(reg, val)
	}
	return nil
}

// setTriple loads a signed 16-bit triple into a 6-byte register span.
func (m *mockBus) setTriple(reg byte, v [3]int16) {
	for i, x := range v {
		m.regs[reg+byte(2*i)] = byte(uint16(x) >> 8)
		m.regs[reg+byte(2*i+1)] = byte(uint16(x))
	}
}

// queueTriple scripts one triple to be served by the next read of the span.
func (m *mockBus) queueTriple(reg byte, v [3]int16) {
	buf := make([]byte, 6)
	for i, x := range v {
		buf[2*i] = byte(uint16(x) >> 8)
		buf[2*i+1] = byte(uint16(x))
	}
	m.queue[reg] = append(m.queue[reg], buf)
}

func (m *mockBus) setWord(reg byte, v int16) {
	m.regs[reg] = byte(uint16(v) >> 8)
	m.regs[reg+1] = byte(uint16(v))
}

// testDev builds a Dev over a mock bus with a recording sleeper. The sleep
// log and write log are cleared of initialization traffic before returning.
func testDev(t *testing.T, bus *mockBus, opts Opts) (*Dev, *[]time.Duration) {
	t.Helper()
	var sleeps []time.Duration
	opts.Sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	dev, err := newDev(bus, opts)
	if err != nil {
		t.Fatalf("newDev: %v", err)
	}
	sleeps = sleeps[:0]
	bus.writes = bus.writes[:0]
	return dev, &sleeps
}

func TestNewRunsInitSequence(t *testing.T) {
	bus := newMockBus()
	var sleeps []time.Duration
	opts := Opts{
		AccelRange: AccelRange8G,
		GyroRange:  GyroRange1000,
		Sleep:      func(d time.Duration) { sleeps = append(sleeps, d) },
	}
	if _, err := newDev(bus, opts); err != nil {
		t.Fatalf("newDev: %v", err)
	}

	want := [][2]byte{
		{regPwrMgmt1, pwrGyroStandby},
		{regPwrMgmt1, pwrClkSel},
		{regAccelConfig, 0x10}, // ±8g
		{regGyroConfig, 0x10},  // ±1000°/s
	}
	if len(bus.writes) != len(want) {
		t.Fatalf("init writes = %v, want %v", bus.writes, want)
	}
	for i, w := range want {
		if bus.writes[i] != w {
			t.Errorf("init write %d = %v, want %v", i, bus.writes[i], w)
		}
	}
	if len(sleeps) < 2 || sleeps[0] != 100*time.Millisecond {
		t.Errorf("standby settle sleeps = %v, want leading 100ms", sleeps)
	}
}

func TestNewRejectsWrongChipID(t *testing.T) {
	bus := newMockBus()
	bus.regs[regWhoAmI] = 0x71
	_, err := newDev(bus, DefaultOpts)
	if err == nil {
		t.Fatal("newDev accepted wrong chip ID")
	}
	if !strings.Contains(err.Error(), "chip ID") {
		t.Errorf("err = %v, want chip ID mismatch", err)
	}
}

func TestNewRejectsInvalidRange(t *testing.T) {
	bus := newMockBus()
	_, err := newDev(bus, Opts{AccelRange: AccelRange(9)})
	if !errors.Is(err, ErrAccelRange) {
		t.Errorf("err = %v, want ErrAccelRange", err)
	}
	if bus.readCount != 0 {
		t.Errorf("device was touched before range validation: %d reads", bus.readCount)
	}
}

func TestAccessReadShapes(t *testing.T) {
	bus := newMockBus()
	bus.regs[regPwrMgmt1] = pwrClkSel
	bus.setWord(regTempOutH, -1634)
	bus.setTriple(regAccelXOutH, [3]int16{16384, -16384, 512})
	dev, _ := testDev(t, bus, DefaultOpts)

	v, err := dev.Access(regPwrMgmt1, nil, 1)
	if err != nil {
		t.Fatalf("Access 1 byte: %v", err)
	}
	if b, ok := v.(Byte); !ok || b != Byte(pwrClkSel) {
		t.Errorf("1-byte access = %#v, want Byte(0x01)", v)
	}

	v, err = dev.Access(regTempOutH, nil, 2)
	if err != nil {
		t.Fatalf("Access 2 bytes: %v", err)
	}
	if w, ok := v.(Word); !ok || w != -1634 {
		t.Errorf("2-byte access = %#v, want Word(-1634)", v)
	}

	v, err = dev.Access(regAccelXOutH, nil, 6)
	if err != nil {
		t.Fatalf("Access 6 bytes: %v", err)
	}
	if tr, ok := v.(Triple); !ok || tr != (Triple{16384, -16384, 512}) {
		t.Errorf("6-byte access = %#v, want Triple{16384 -16384 512}", v)
	}

	if len(bus.writes) != 0 {
		t.Errorf("read-only access mutated the device: %v", bus.writes)
	}
}

func TestAccessWriteThenVerify(t *testing.T) {
	bus := newMockBus()
	dev, sleeps := testDev(t, bus, DefaultOpts)

	val := byte(0x18)
	v, err := dev.Access(regAccelConfig, &val, 1)
	if err != nil {
		t.Fatalf("Access write: %v", err)
	}
	if len(bus.writes) != 1 || bus.writes[0] != [2]byte{regAccelConfig, 0x18} {
		t.Fatalf("writes = %v, want single write of 0x18 to ACCEL_CONFIG", bus.writes)
	}
	if b, ok := v.(Byte); !ok || b != 0x18 {
		t.Errorf("read-back = %#v, want Byte(0x18)", v)
	}
	if len(*sleeps) != 1 || (*sleeps)[0] != writeSettle {
		t.Errorf("settle sleeps = %v, want [%v]", *sleeps, writeSettle)
	}
}

func TestAccessRejectsBadWidth(t *testing.T) {
	bus := newMockBus()
	dev, _ := testDev(t, bus, DefaultOpts)
	before := bus.readCount

	for _, n := range []int{0, 3, 4, 5, 7, -1} {
		if _, err := dev.Access(regAccelXOutH, nil, n); !errors.Is(err, ErrRegisterWidth) {
			t.Errorf("Access nbytes=%d: err = %v, want ErrRegisterWidth", n, err)
		}
	}
	if bus.readCount != before || len(bus.writes) != 0 {
		t.Error("invalid width still touched the bus")
	}
}

func TestBusErrorPropagates(t *testing.T) {
	bus := newMockBus()
	dev, _ := testDev(t, bus, DefaultOpts)

	transport := errors.New("i2c: remote I/O error")
	bus.readErr = transport

	_, err := dev.Acceleration()
	var be *BusError
	if !errors.As(err, &be) {
		t.Fatalf("err = %v, want *BusError", err)
	}
	if be.Op != "read" || be.Reg != regAccelXOutH {
		t.Errorf("BusError = %+v, want read of ACCEL_XOUT_H", be)
	}
	if !errors.Is(err, transport) {
		t.Errorf("BusError does not unwrap to the transport error: %v", err)
	}
}

func TestSignedReconstruction(t *testing.T) {
	bus := newMockBus()
	dev, _ := testDev(t, bus, DefaultOpts)

	cases := []struct {
		raw  [3]int16
		name string
	}{
		{[3]int16{-32768, 32767, -1}, "extremes"},
		{[3]int16{0, -256, 255}, "byte boundaries"},
	}
	for _, tc := range cases {
		bus.setTriple(regGyroXOutH, tc.raw)
		got, err := dev.RawGyro()
		if err != nil {
			t.Fatalf("%s: RawGyro: %v", tc.name, err)
		}
		if got != tc.raw {
			t.Errorf("%s: RawGyro = %v, want %v", tc.name, got, tc.raw)
		}
	}
}

func TestTemperatureRead(t *testing.T) {
	bus := newMockBus()
	bus.setWord(regTempOutH, 0)
	dev, _ := testDev(t, bus, DefaultOpts)

	f, err := dev.TemperatureF()
	if err != nil {
		t.Fatalf("TemperatureF: %v", err)
	}
	if f != 77 { // 25°C
		t.Errorf("TemperatureF at zero counts = %v, want 77", f)
	}

	bus.setWord(regTempOutH, 3268)
	c, err := dev.TemperatureC()
	if err != nil {
		t.Fatalf("TemperatureC: %v", err)
	}
	if diff := c - 35; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("TemperatureC at 3268 counts = %v, want 35", c)
	}
}

func TestSetRangeKeepsConversionInStep(t *testing.T) {
	bus := newMockBus()
	bus.setTriple(regAccelXOutH, [3]int16{4096, 0, 0})
	dev, _ := testDev(t, bus, DefaultOpts)

	if err := dev.SetAccelRange(AccelRange8G); err != nil {
		t.Fatalf("SetAccelRange: %v", err)
	}
	if bus.writes[len(bus.writes)-1] != [2]byte{regAccelConfig, 0x10} {
		t.Errorf("last write = %v, want ACCEL_CONFIG=0x10", bus.writes[len(bus.writes)-1])
	}
	if dev.AccelRange() != AccelRange8G {
		t.Errorf("AccelRange = %v, want ±8g", dev.AccelRange())
	}

	a, err := dev.Acceleration()
	if err != nil {
		t.Fatalf("Acceleration: %v", err)
	}
	if a[0] != StandardGravity { // 4096 counts at 4096 LSB/g
		t.Errorf("Acceleration[0] = %v, want %v", a[0], StandardGravity)
	}

	if err := dev.SetGyroRange(GyroRange(200)); !errors.Is(err, ErrGyroRange) {
		t.Errorf("SetGyroRange(200) err = %v, want ErrGyroRange", err)
	}
	if dev.GyroRange() != GyroRange250 {
		t.Errorf("failed SetGyroRange changed the recorded range to %v", dev.GyroRange())
	}
}

func TestHalt(t *testing.T) {
	bus := newMockBus()
	dev, _ := testDev(t, bus, DefaultOpts)

	if err := dev.Halt(); err != nil {
		t.Fatalf("Halt: %v", err)
	}
	if bus.writes[len(bus.writes)-1] != [2]byte{regPwrMgmt1, pwrSleep} {
		t.Errorf("Halt wrote %v, want PWR_MGMT_1=0x40", bus.writes[len(bus.writes)-1])
	}
}
