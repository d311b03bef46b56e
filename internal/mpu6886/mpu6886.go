// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package mpu6886 drives the InvenSense MPU-6886 6-axis IMU over I2C.
//
// The MPU-6886 combines a 3-axis gyroscope, a 3-axis accelerometer and a die
// temperature sensor behind a register-oriented bus. The driver decodes
// multi-byte register spans, converts raw counts to physical units (m/s²,
// °/s, °F) according to the configured full-scale ranges, and provides the
// averaging and self-test routines used to validate sensor health.
//
// The driver is single-threaded and blocking: every register access blocks
// until the transport completes, and inter-sample delays are blocking sleeps
// taken through an injectable sleep function. A Dev is an exclusive handle to
// one physical device; concurrent callers must serialize access themselves.
package mpu6886

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
)

// Sentinel errors for conditions the driver detects before touching the bus.
var (
	ErrRegisterWidth = errors.New("mpu6886: register width must be 1, 2 or 6 bytes")
	ErrSampleCount   = errors.New("mpu6886: sample count must be at least 1")
	ErrSensorKind    = errors.New("mpu6886: unknown sensor kind")
	ErrSelfTestAxes  = errors.New("mpu6886: invalid self-test axis selection")
	ErrAccelRange    = errors.New("mpu6886: unknown accelerometer range")
	ErrGyroRange     = errors.New("mpu6886: unknown gyroscope range")
)

// BusError wraps a transport failure with the register operation that caused
// it. Bus errors are never retried: register operations are not idempotent,
// so a blind retry could repeat a write with side effects.
type BusError struct {
	Op  string // "read" or "write"
	Reg byte
	Err error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("mpu6886: %s reg 0x%02X: %v", e.Op, e.Reg, e.Err)
}

func (e *BusError) Unwrap() error { return e.Err }

// Bus is the register-level transport under the driver. The device address is
// bound at construction; ReadReg reads len(buf) bytes starting at a register
// address and WriteReg writes one byte to a register address.
type Bus interface {
	ReadReg(reg byte, buf []byte) error
	WriteReg(reg, val byte) error
}

// i2cBus adapts a periph i2c.Dev to the Bus interface.
type i2cBus struct {
	dev i2c.Dev
}

func (b *i2cBus) ReadReg(reg byte, buf []byte) error {
	return b.dev.Tx([]byte{reg}, buf)
}

func (b *i2cBus) WriteReg(reg, val byte) error {
	return b.dev.Tx([]byte{reg, val}, nil)
}

func (b *i2cBus) String() string { return b.dev.String() }

// Value is the decoded content of a register span. The concrete type encodes
// the span width: Byte for a single byte, Word for one big-endian signed
// 16-bit value, Triple for three big-endian signed 16-bit values in x, y, z
// order. Callers type-switch on the result.
type Value interface {
	isValue()
}

// Byte is a single unsigned register byte.
type Byte uint8

// Word is one signed 16-bit register pair.
type Word int16

// Triple is three consecutive signed 16-bit register pairs (x, y, z).
type Triple [3]int16

func (Byte) isValue()   {}
func (Word) isValue()   {}
func (Triple) isValue() {}

// Default sampling parameters for tolerance and self-test measurements.
const (
	DefaultSampleCount = 10
	DefaultSampleDelay = 10 * time.Millisecond
	DefaultSamplePause = time.Second
)

// writeSettle is the pause between a register write and its read-back.
const writeSettle = time.Millisecond

// Opts holds initialization options.
//
// Addr: I2C address, default 0x68 (AD0 low).
// AccelRange / GyroRange: full-scale ranges written during initialization.
// Sleep: replacement for the blocking delay used between samples and for
// device settle times; defaults to time.Sleep. A host with a cooperative
// scheduler can substitute its own wait primitive without changing the
// sampling logic.
type Opts struct {
	Addr       uint16
	AccelRange AccelRange
	GyroRange  GyroRange
	Sleep      func(time.Duration)
}

// DefaultOpts is the default configuration: ±2g, ±250°/s.
var DefaultOpts = Opts{
	Addr:       DefaultAddr,
	AccelRange: AccelRange2G,
	GyroRange:  GyroRange250,
}

// Dev represents an initialized MPU-6886.
//
// Acceleration, Gyro and TemperatureF re-read the device on every call; there
// is no caching, so repeated reads reflect live sensor state.
type Dev struct {
	bus   Bus
	sleep func(time.Duration)

	accelRange AccelRange
	gyroRange  GyroRange

	state SelfTestState

	// Factory self-test trim, captured once during initialization and
	// treated as immutable reference data.
	accelTrim [3]float64
	gyroTrim  [3]float64
}

// New initializes the device: identity check, clock selection, full-scale
// range configuration and factory self-test trim capture.
func New(bus i2c.Bus, opts Opts) (*Dev, error) {
	addr := opts.Addr
	if addr == 0 {
		addr = DefaultAddr
	}
	return newDev(&i2cBus{dev: i2c.Dev{Addr: addr, Bus: bus}}, opts)
}

// newDev is split from New solely so tests can inject a mock Bus.
func newDev(bus Bus, opts Opts) (*Dev, error) {
	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	d := &Dev{
		bus:        bus,
		sleep:      sleep,
		accelRange: opts.AccelRange,
		gyroRange:  opts.GyroRange,
	}
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) init() error {
	// Reject invalid ranges before any device I/O.
	if _, err := d.accelRange.sensitivity(); err != nil {
		return err
	}
	if _, err := d.gyroRange.sensitivity(); err != nil {
		return err
	}

	var id [1]byte
	if err := d.readReg(regWhoAmI, id[:]); err != nil {
		return err
	}
	if id[0] != chipID {
		return fmt.Errorf("mpu6886: unexpected chip ID 0x%02X (want 0x%02X)", id[0], chipID)
	}

	// Gyro low power standby while the clock settles.
	if err := d.writeReg(regPwrMgmt1, pwrGyroStandby); err != nil {
		return err
	}
	d.sleep(100 * time.Millisecond)

	if err := d.writeReg(regPwrMgmt1, pwrClkSel); err != nil {
		return err
	}

	if err := d.SetAccelRange(d.accelRange); err != nil {
		return err
	}
	d.sleep(10 * time.Millisecond)
	if err := d.SetGyroRange(d.gyroRange); err != nil {
		return err
	}

	var err error
	if d.accelTrim, err = d.readFactoryTrim(SensorAccel); err != nil {
		return err
	}
	if d.gyroTrim, err = d.readFactoryTrim(SensorGyro); err != nil {
		return err
	}
	return nil
}

// Halt puts the device in sleep mode. It implements conn.Resource.
func (d *Dev) Halt() error {
	return d.writeReg(regPwrMgmt1, pwrSleep)
}

// String implements conn.Resource.
func (d *Dev) String() string {
	return fmt.Sprintf("MPU6886{%v}", d.bus)
}

// Access performs a generic register access. With value nil it reads nbytes
// from reg; with value non-nil it writes *value to reg first, waits for the
// write to settle, then reads the same span back (write-then-verify). nbytes
// must be 1, 2 or 6; the returned Value is Byte, Word or Triple respectively.
//
// A transport failure propagates immediately as *BusError; there is no retry.
func (d *Dev) Access(reg byte, value *byte, nbytes int) (Value, error) {
	if nbytes != 1 && nbytes != 2 && nbytes != 6 {
		return nil, fmt.Errorf("%w: got %d", ErrRegisterWidth, nbytes)
	}
	if value != nil {
		if err := d.writeReg(reg, *value); err != nil {
			return nil, err
		}
		d.sleep(writeSettle)
	}
	buf := make([]byte, nbytes)
	if err := d.readReg(reg, buf); err != nil {
		return nil, err
	}
	switch nbytes {
	case 2:
		return Word(decodeInt16(buf[0], buf[1])), nil
	case 6:
		return Triple(decodeTriple(buf)), nil
	}
	return Byte(buf[0]), nil
}

// decodeInt16 reconstructs a big-endian signed 16-bit value.
func decodeInt16(msb, lsb byte) int16 {
	return int16(msb)<<8 | int16(lsb)
}

// decodeTriple reconstructs three big-endian signed 16-bit values from a
// 6-byte span in x, y, z order.
func decodeTriple(buf []byte) [3]int16 {
	return [3]int16{
		decodeInt16(buf[0], buf[1]),
		decodeInt16(buf[2], buf[3]),
		decodeInt16(buf[4], buf[5]),
	}
}

func (d *Dev) readReg(reg byte, buf []byte) error {
	if err := d.bus.ReadReg(reg, buf); err != nil {
		return &BusError{Op: "read", Reg: reg, Err: err}
	}
	return nil
}

func (d *Dev) writeReg(reg, val byte) error {
	if err := d.bus.WriteReg(reg, val); err != nil {
		return &BusError{Op: "write", Reg: reg, Err: err}
	}
	return nil
}

func (d *Dev) readTriple(reg byte) ([3]int16, error) {
	var buf [6]byte
	if err := d.readReg(reg, buf[:]); err != nil {
		return [3]int16{}, err
	}
	return decodeTriple(buf[:]), nil
}

// RawAcceleration reads the three accelerometer axes as raw counts.
func (d *Dev) RawAcceleration() ([3]int16, error) {
	return d.readTriple(regAccelXOutH)
}

// Acceleration reads the accelerometer and converts to m/s² at the active
// full-scale range.
func (d *Dev) Acceleration() ([3]float64, error) {
	raw, err := d.RawAcceleration()
	if err != nil {
		return [3]float64{}, err
	}
	return ToAcceleration(raw, d.accelRange)
}

// RawGyro reads the three gyroscope axes as raw counts.
func (d *Dev) RawGyro() ([3]int16, error) {
	return d.readTriple(regGyroXOutH)
}

// Gyro reads the gyroscope and converts to °/s at the active full-scale
// range.
func (d *Dev) Gyro() ([3]float64, error) {
	raw, err := d.RawGyro()
	if err != nil {
		return [3]float64{}, err
	}
	return ToGyro(raw, d.gyroRange)
}

// RawTemperature reads the die temperature as raw counts.
func (d *Dev) RawTemperature() (int16, error) {
	var buf [2]byte
	if err := d.readReg(regTempOutH, buf[:]); err != nil {
		return 0, err
	}
	return decodeInt16(buf[0], buf[1]), nil
}

// TemperatureC reads the die temperature in °C.
func (d *Dev) TemperatureC() (float64, error) {
	raw, err := d.RawTemperature()
	if err != nil {
		return 0, err
	}
	return ToTemperatureC(raw), nil
}

// TemperatureF reads the die temperature in °F.
func (d *Dev) TemperatureF() (float64, error) {
	raw, err := d.RawTemperature()
	if err != nil {
		return 0, err
	}
	return ToTemperatureF(raw), nil
}

// SetAccelRange reconfigures the accelerometer full-scale range. The register
// write and the range used for conversions change together so driver state
// cannot diverge from device state.
func (d *Dev) SetAccelRange(r AccelRange) error {
	if _, err := r.sensitivity(); err != nil {
		return err
	}
	if err := d.writeReg(regAccelConfig, r.fsBits()); err != nil {
		return err
	}
	d.accelRange = r
	return nil
}

// SetGyroRange reconfigures the gyroscope full-scale range, keeping the
// register and the conversion divisor in step.
func (d *Dev) SetGyroRange(r GyroRange) error {
	if _, err := r.sensitivity(); err != nil {
		return err
	}
	if err := d.writeReg(regGyroConfig, r.fsBits()); err != nil {
		return err
	}
	d.gyroRange = r
	return nil
}

// AccelRange returns the active accelerometer full-scale range.
func (d *Dev) AccelRange() AccelRange { return d.accelRange }

// GyroRange returns the active gyroscope full-scale range.
func (d *Dev) GyroRange() GyroRange { return d.gyroRange }
