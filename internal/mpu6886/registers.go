// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mpu6886

// I2C register map for the MPU-6886 (subset used by the driver).
const (
	regSelfTestXAccel = 0x0D
	regSelfTestYAccel = 0x0E
	regSelfTestZAccel = 0x0F
	regGyroConfig     = 0x1B
	regAccelConfig    = 0x1C
	regAccelXOutH     = 0x3B // X MSB..LSB, Y MSB..LSB, Z MSB..LSB
	regTempOutH       = 0x41
	regGyroXOutH      = 0x43 // X MSB..LSB, Y MSB..LSB, Z MSB..LSB
	regSelfTestXGyro  = 0x50
	regSelfTestYGyro  = 0x51
	regSelfTestZGyro  = 0x52
	regPwrMgmt1       = 0x6B
	regWhoAmI         = 0x75
)

// chipID is the expected WHO_AM_I response.
const chipID = 0x19

// PWR_MGMT_1 bits.
const (
	pwrClkSel      = 0x01 // auto-select best available clock source
	pwrGyroStandby = 0x10 // gyroscope low power standby
	pwrSleep       = 0x40 // full chip sleep
)

// Default I2C address (AD0 low).
const DefaultAddr = 0x68
