// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mpu6886

import (
	"fmt"
	"math"
	"time"
)

// Sensor names one of the two vector sensing elements.
type Sensor int

const (
	// SensorAccel selects the accelerometer (output in m/s²).
	SensorAccel Sensor = iota
	// SensorGyro selects the gyroscope (output in °/s).
	SensorGyro
)

// String implements fmt.Stringer.
func (s Sensor) String() string {
	switch s {
	case SensorAccel:
		return "accel"
	case SensorGyro:
		return "gyro"
	}
	return fmt.Sprintf("Sensor(%d)", int(s))
}

// read returns one converted reading of the selected sensor.
func (d *Dev) read(sensor Sensor) ([3]float64, error) {
	switch sensor {
	case SensorAccel:
		return d.Acceleration()
	case SensorGyro:
		return d.Gyro()
	}
	return [3]float64{}, fmt.Errorf("%w: %d", ErrSensorKind, int(sensor))
}

// Average reads the selected sensor count times, sleeping delay between
// consecutive reads (not after the last), and returns the per-axis arithmetic
// mean in physical units. count must be at least 1. A bus failure mid-run
// aborts the whole call; partial sums are discarded.
func (d *Dev) Average(sensor Sensor, count int, delay time.Duration) ([3]float64, error) {
	if count < 1 {
		return [3]float64{}, fmt.Errorf("%w: got %d", ErrSampleCount, count)
	}
	if sensor != SensorAccel && sensor != SensorGyro {
		return [3]float64{}, fmt.Errorf("%w: %d", ErrSensorKind, int(sensor))
	}

	var sum [3]float64
	for i := 0; i < count; i++ {
		if i > 0 {
			d.sleep(delay)
		}
		v, err := d.read(sensor)
		if err != nil {
			return [3]float64{}, err
		}
		for axis := range sum {
			sum[axis] += v[axis]
		}
	}
	for axis := range sum {
		sum[axis] /= float64(count)
	}
	return sum, nil
}

// AverageWithTolerance takes two independent Average passes separated by
// pause and combines them: avg is the per-axis mean of the two pass averages,
// tol the per-axis absolute difference between them. The tolerance quantifies
// short-term drift between batches; near-zero means a stable stationary
// reading, large values flag motion or instability between the passes.
func (d *Dev) AverageWithTolerance(sensor Sensor, count int, delay, pause time.Duration) (avg, tol [3]float64, err error) {
	first, err := d.Average(sensor, count, delay)
	if err != nil {
		return avg, tol, err
	}
	d.sleep(pause)
	second, err := d.Average(sensor, count, delay)
	if err != nil {
		return avg, tol, err
	}
	for axis := range avg {
		avg[axis] = (first[axis] + second[axis]) / 2
		tol[axis] = math.Abs(first[axis] - second[axis])
	}
	return avg, tol, nil
}
