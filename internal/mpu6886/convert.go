// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mpu6886

import "fmt"

// StandardGravity converts g-force to m/s².
const StandardGravity = 9.80665

// Die temperature transfer function (datasheet §10.1).
const (
	tempSensitivity = 326.8 // LSB per °C
	tempOffset      = 25.0  // °C at zero counts
)

// AccelRange selects the accelerometer full-scale range. The numeric values
// match the IMU_ACCEL_RANGE configuration key (0-3).
type AccelRange byte

const (
	AccelRange2G  AccelRange = iota // ±2g, 16384 LSB/g
	AccelRange4G                    // ±4g, 8192 LSB/g
	AccelRange8G                    // ±8g, 4096 LSB/g
	AccelRange16G                   // ±16g, 2048 LSB/g
)

// sensitivity returns the LSB-per-g divisor for the range.
func (r AccelRange) sensitivity() (float64, error) {
	switch r {
	case AccelRange2G:
		return 16384, nil
	case AccelRange4G:
		return 8192, nil
	case AccelRange8G:
		return 4096, nil
	case AccelRange16G:
		return 2048, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrAccelRange, byte(r))
}

// fsBits returns the ACCEL_FS_SEL field positioned at bits 4:3 of
// ACCEL_CONFIG. Callers validate the range first.
func (r AccelRange) fsBits() byte { return byte(r) << 3 }

// String implements fmt.Stringer.
func (r AccelRange) String() string {
	switch r {
	case AccelRange2G:
		return "±2g"
	case AccelRange4G:
		return "±4g"
	case AccelRange8G:
		return "±8g"
	case AccelRange16G:
		return "±16g"
	}
	return fmt.Sprintf("AccelRange(%d)", byte(r))
}

// GyroRange selects the gyroscope full-scale range. The numeric values match
// the IMU_GYRO_RANGE configuration key (0-3).
type GyroRange byte

const (
	GyroRange250  GyroRange = iota // ±250°/s, 131 LSB/(°/s)
	GyroRange500                   // ±500°/s, 65.5 LSB/(°/s)
	GyroRange1000                  // ±1000°/s, 32.8 LSB/(°/s)
	GyroRange2000                  // ±2000°/s, 16.4 LSB/(°/s)
)

// sensitivity returns the LSB-per-°/s divisor for the range.
func (r GyroRange) sensitivity() (float64, error) {
	switch r {
	case GyroRange250:
		return 131, nil
	case GyroRange500:
		return 65.5, nil
	case GyroRange1000:
		return 32.8, nil
	case GyroRange2000:
		return 16.4, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrGyroRange, byte(r))
}

// fsBits returns the GYRO_FS_SEL field positioned at bits 4:3 of GYRO_CONFIG.
// Callers validate the range first.
func (r GyroRange) fsBits() byte { return byte(r) << 3 }

// String implements fmt.Stringer.
func (r GyroRange) String() string {
	switch r {
	case GyroRange250:
		return "±250°/s"
	case GyroRange500:
		return "±500°/s"
	case GyroRange1000:
		return "±1000°/s"
	case GyroRange2000:
		return "±2000°/s"
	}
	return fmt.Sprintf("GyroRange(%d)", byte(r))
}

// ToAcceleration converts raw accelerometer counts to m/s² at the given
// full-scale range. Fails with ErrAccelRange on an unknown range rather than
// defaulting, since a wrong scale silently corrupts the physical units.
func ToAcceleration(raw [3]int16, r AccelRange) ([3]float64, error) {
	div, err := r.sensitivity()
	if err != nil {
		return [3]float64{}, err
	}
	var out [3]float64
	for i, v := range raw {
		out[i] = float64(v) / div * StandardGravity
	}
	return out, nil
}

// ToGyro converts raw gyroscope counts to °/s at the given full-scale range.
// Fails with ErrGyroRange on an unknown range.
func ToGyro(raw [3]int16, r GyroRange) ([3]float64, error) {
	div, err := r.sensitivity()
	if err != nil {
		return [3]float64{}, err
	}
	var out [3]float64
	for i, v := range raw {
		out[i] = float64(v) / div
	}
	return out, nil
}

// ToTemperatureC converts raw die temperature counts to °C.
func ToTemperatureC(raw int16) float64 {
	return float64(raw)/tempSensitivity + tempOffset
}

// ToTemperatureF converts raw die temperature counts to °F.
func ToTemperatureF(raw int16) float64 {
	return ToTemperatureC(raw)*1.8 + 32
}
