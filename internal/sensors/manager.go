// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/relabs-tech/mpu6886/internal/config"
	"github.com/relabs-tech/mpu6886/internal/imu"
	"github.com/relabs-tech/mpu6886/internal/mpu6886"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// ErrNotInitialized is returned when a Manager method is called before Init.
var ErrNotInitialized = errors.New("sensors: IMU manager not initialized")

// Manager owns the MPU-6886 device and serializes all access to it. The
// register debug server handles concurrent WebSocket and REST requests, so
// every operation that touches the bus goes through the mutex.
type Manager struct {
	mu  sync.Mutex
	bus i2c.BusCloser
	dev *mpu6886.Dev
}

var (
	imuManager     *Manager
	imuManagerOnce sync.Once
)

// GetIMUManager returns the process-wide IMU manager.
func GetIMUManager() *Manager {
	imuManagerOnce.Do(func() {
		imuManager = &Manager{}
	})
	return imuManager
}

// Init opens the I2C bus and brings up the MPU-6886 with the configured
// ranges. Calling it again after a successful init is a no-op.
func (m *Manager) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dev != nil {
		return nil
	}
	return m.initLocked()
}

// Reinitialize tears down the device handle and runs the power-up sequence
// again on the already-open bus.
func (m *Manager) Reinitialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dev = nil
	return m.initLocked()
}

func (m *Manager) initLocked() error {
	cfg := config.Get()

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph host init: %w", err)
	}

	if m.bus == nil {
		bus, err := i2creg.Open(cfg.I2CBus)
		if err != nil {
			return fmt.Errorf("I2C bus open (%q): %w", cfg.I2CBus, err)
		}
		m.bus = bus
	}

	addr := cfg.IMUI2CAddr
	if addr == 0 {
		addr = mpu6886.DefaultAddr
	}

	opts := mpu6886.DefaultOpts
	opts.Addr = addr
	opts.AccelRange = mpu6886.AccelRange(cfg.IMUAccelRange)
	opts.GyroRange = mpu6886.GyroRange(cfg.IMUGyroRange)

	dev, err := mpu6886.New(m.bus, opts)
	if err != nil {
		return fmt.Errorf("MPU-6886 init: %w", err)
	}
	m.dev = dev

	log.Printf("IMU: %s ready at 0x%02X on %s", dev, addr, m.bus)
	log.Printf("IMU: accelerometer range set to %d (%s)", cfg.IMUAccelRange, dev.AccelRange())
	log.Printf("IMU: gyroscope range set to %d (%s)", cfg.IMUGyroRange, dev.GyroRange())
	return nil
}

// Halt puts the device to sleep.
func (m *Manager) Halt() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dev == nil {
		return ErrNotInitialized
	}
	return m.dev.Halt()
}

// ReadRaw reads accelerometer, gyroscope and die temperature counts.
func (m *Manager) ReadRaw() (imu.Raw, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readRawLocked()
}

func (m *Manager) readRawLocked() (imu.Raw, error) {
	if m.dev == nil {
		return imu.Raw{}, ErrNotInitialized
	}
	accel, err := m.dev.RawAcceleration()
	if err != nil {
		return imu.Raw{}, fmt.Errorf("accel read: %w", err)
	}
	gyro, err := m.dev.RawGyro()
	if err != nil {
		return imu.Raw{}, fmt.Errorf("gyro read: %w", err)
	}
	temp, err := m.dev.RawTemperature()
	if err != nil {
		return imu.Raw{}, fmt.Errorf("temperature read: %w", err)
	}
	return imu.Raw{
		Source: "mpu6886",
		Ax:     accel[0],
		Ay:     accel[1],
		Az:     accel[2],
		Gx:     gyro[0],
		Gy:     gyro[1],
		Gz:     gyro[2],
		Temp:   temp,
	}, nil
}

// ReadSample reads one raw sample and converts it to physical units at the
// configured ranges.
func (m *Manager) ReadSample() (imu.Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := m.readRawLocked()
	if err != nil {
		return imu.Sample{}, err
	}
	return raw.Convert(m.dev.AccelRange(), m.dev.GyroRange(), time.Now())
}

// Ranges reports the full-scale ranges the device is configured for.
func (m *Manager) Ranges() (mpu6886.AccelRange, mpu6886.GyroRange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dev == nil {
		return 0, 0, ErrNotInitialized
	}
	return m.dev.AccelRange(), m.dev.GyroRange(), nil
}

// Baseline takes a two-pass averaged reading with the configured sampling
// schedule and returns the mean and the per-axis spread between the passes.
func (m *Manager) Baseline(sensor mpu6886.Sensor) (avg, tol [3]float64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dev == nil {
		return avg, tol, ErrNotInitialized
	}
	count, delay, pause := samplingSchedule()
	return m.dev.AverageWithTolerance(sensor, count, delay, pause)
}

// RunSelfTest excites the selected axes and returns the per-axis response,
// using the configured sampling schedule for both measurement passes.
func (m *Manager) RunSelfTest(sensor mpu6886.Sensor, axes mpu6886.Axes) ([3]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dev == nil {
		return [3]float64{}, ErrNotInitialized
	}
	count, delay, pause := samplingSchedule()
	return m.dev.SelfTest(sensor, axes, count, delay, pause)
}

// FactoryTrim returns the factory self-test reference values for a sensor.
func (m *Manager) FactoryTrim(sensor mpu6886.Sensor) ([3]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dev == nil {
		return [3]float64{}, ErrNotInitialized
	}
	return m.dev.FactoryTrim(sensor)
}

// ReadRegister reads a single register byte.
func (m *Manager) ReadRegister(addr byte) (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dev == nil {
		return 0, ErrNotInitialized
	}
	v, err := m.dev.Access(addr, nil, 1)
	if err != nil {
		return 0, err
	}
	return byte(v.(mpu6886.Byte)), nil
}

// WriteRegister writes a single register byte and verifies the readback.
func (m *Manager) WriteRegister(addr, value byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dev == nil {
		return ErrNotInitialized
	}
	got, err := m.dev.Access(addr, &value, 1)
	if err != nil {
		return err
	}
	if b := byte(got.(mpu6886.Byte)); b != value {
		return fmt.Errorf("register 0x%02X reads back 0x%02X after writing 0x%02X", addr, b, value)
	}
	return nil
}

// AccessRegister is the generic register operation: optional write followed
// by a read of nbytes (1, 2 or 6) starting at addr.
func (m *Manager) AccessRegister(addr byte, value *byte, nbytes int) (mpu6886.Value, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dev == nil {
		return nil, ErrNotInitialized
	}
	return m.dev.Access(addr, value, nbytes)
}

// ReadAllRegisters reads every register in the register map.
func (m *Manager) ReadAllRegisters() (map[byte]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dev == nil {
		return nil, ErrNotInitialized
	}
	out := make(map[byte]byte)
	for _, addr := range registerAddresses() {
		v, err := m.dev.Access(addr, nil, 1)
		if err != nil {
			return nil, fmt.Errorf("register 0x%02X: %w", addr, err)
		}
		out[addr] = byte(v.(mpu6886.Byte))
	}
	return out, nil
}

// GetRegisterMap returns the MPU6886 register metadata.
func (m *Manager) GetRegisterMap() []RegisterInfo {
	return getMPU6886RegisterMap()
}

// samplingSchedule resolves the averaged-measurement parameters from config,
// falling back to the driver defaults for unset values.
func samplingSchedule() (count int, delay, pause time.Duration) {
	count = mpu6886.DefaultSampleCount
	delay = mpu6886.DefaultSampleDelay
	pause = mpu6886.DefaultSamplePause
	cfg := config.Get()
	if cfg == nil {
		return count, delay, pause
	}
	if cfg.SampleCount > 0 {
		count = cfg.SampleCount
	}
	if cfg.SampleDelayMS > 0 {
		delay = time.Duration(cfg.SampleDelayMS) * time.Millisecond
	}
	if cfg.SamplePauseMS > 0 {
		pause = time.Duration(cfg.SamplePauseMS) * time.Millisecond
	}
	return count, delay, pause
}
