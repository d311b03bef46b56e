// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"math"
	"time"
)

type simSource struct {
	start time.Time
}

// NewSimSource creates a simulated sample source that
// generates smooth changing values, for running without hardware.
func NewSimSource() Source {
	return &simSource{start: time.Now()}
}

func (s *simSource) NextRaw() (Raw, error) {
	elapsed := time.Since(s.start).Seconds()

	return Raw{
		Source: "sim",
		Ax:     int16(2000 * math.Sin(elapsed)),
		Ay:     int16(2000 * math.Cos(elapsed*0.7)),
		Az:     16384, // 1 g at ±2g
		Gx:     int16(500 * math.Sin(elapsed*1.3)),
		Gy:     int16(500 * math.Cos(elapsed)),
		Gz:     int16(250 * math.Sin(elapsed*0.5)),
		Temp:   int16(1634 * math.Sin(elapsed*0.1)), // ±5°C swing around 25°C
	}, nil
}
