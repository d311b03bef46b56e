// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import "fmt"

// RegisterInfo describes one device register for the debug tools: name,
// access type and bit field layout.
type RegisterInfo struct {
	Address     string     `json:"address"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Access      string     `json:"access"` // "R", "W", "RW"
	Default     string     `json:"default,omitempty"`
	BitFields   []BitField `json:"bit_fields,omitempty"`
}

// BitField describes one named field inside a register.
type BitField struct {
	Bits        string `json:"bits"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Values      string `json:"values,omitempty"`
}

// getMPU6886RegisterMap returns metadata for all MPU6886 registers.
// This provides register names, descriptions, access types, and bit field definitions.
func getMPU6886RegisterMap() []RegisterInfo {
	return []RegisterInfo{
		// Self-Test Reference Registers (factory trim)
		{Address: "0x0D", Name: "SELF_TEST_X_ACCEL", Description: "Accelerometer X-Axis Self-Test Reference", Access: "R"},
		{Address: "0x0E", Name: "SELF_TEST_Y_ACCEL", Description: "Accelerometer Y-Axis Self-Test Reference", Access: "R"},
		{Address: "0x0F", Name: "SELF_TEST_Z_ACCEL", Description: "Accelerometer Z-Axis Self-Test Reference", Access: "R"},

		// Gyroscope Offset Adjustment
		{Address: "0x13", Name: "XG_OFFS_USRH", Description: "Gyroscope X-Axis Offset High Byte", Access: "RW"},
		{Address: "0x14", Name: "XG_OFFS_USRL", Description: "Gyroscope X-Axis Offset Low Byte", Access: "RW"},
		{Address: "0x15", Name: "YG_OFFS_USRH", Description: "Gyroscope Y-Axis Offset High Byte", Access: "RW"},
		{Address: "0x16", Name: "YG_OFFS_USRL", Description: "Gyroscope Y-Axis Offset Low Byte", Access: "RW"},
		{Address: "0x17", Name: "ZG_OFFS_USRH", Description: "Gyroscope Z-Axis Offset High Byte", Access: "RW"},
		{Address: "0x18", Name: "ZG_OFFS_USRL", Description: "Gyroscope Z-Axis Offset Low Byte", Access: "RW"},

		// Configuration Registers
		{Address: "0x19", Name: "SMPLRT_DIV", Description: "Sample Rate Divider", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7:0", Name: "SMPLRT_DIV", Description: "Sample Rate = Internal_Sample_Rate / (1 + SMPLRT_DIV)", Values: "0-255"},
			}},
		{Address: "0x1A", Name: "CONFIG", Description: "Configuration (DLPF)", Access: "RW", Default: "0x80",
			BitFields: []BitField{
				{Bits: "6", Name: "FIFO_MODE", Description: "FIFO mode", Values: "0=Overwrite, 1=Block new data"},
				{Bits: "5:3", Name: "EXT_SYNC_SET", Description: "External FSYNC pin sampling", Values: "0=Disabled"},
				{Bits: "2:0", Name: "DLPF_CFG", Description: "Digital Low Pass Filter", Values: "0=250Hz, 1=176Hz, 2=92Hz, 3=41Hz, 4=20Hz, 5=10Hz, 6=5Hz, 7=3281Hz"},
			}},
		{Address: "0x1B", Name: "GYRO_CONFIG", Description: "Gyroscope Configuration", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7", Name: "XG_ST", Description: "X Gyro self-test", Values: "0=Disabled, 1=Enabled"},
				{Bits: "6", Name: "YG_ST", Description: "Y Gyro self-test", Values: "0=Disabled, 1=Enabled"},
				{Bits: "5", Name: "ZG_ST", Description: "Z Gyro self-test", Values: "0=Disabled, 1=Enabled"},
				{Bits: "4:3", Name: "GYRO_FS_SEL", Description: "Gyro Full Scale Range", Values: "0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s"},
				{Bits: "1:0", Name: "FCHOICE_B", Description: "Gyro DLPF bypass", Values: "0=DLPF enabled"},
			}},
		{Address: "0x1C", Name: "ACCEL_CONFIG", Description: "Accelerometer Configuration", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7", Name: "XA_ST", Description: "X Accel self-test", Values: "0=Disabled, 1=Enabled"},
				{Bits: "6", Name: "YA_ST", Description: "Y Accel self-test", Values: "0=Disabled, 1=Enabled"},
				{Bits: "5", Name: "ZA_ST", Description: "Z Accel self-test", Values: "0=Disabled, 1=Enabled"},
				{Bits: "4:3", Name: "ACCEL_FS_SEL", Description: "Accel Full Scale Range", Values: "0=±2g, 1=±4g, 2=±8g, 3=±16g"},
			}},
		{Address: "0x1D", Name: "ACCEL_CONFIG2", Description: "Accelerometer Configuration 2", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "5:4", Name: "DEC2_CFG", Description: "Averaging filter for low-power mode", Values: "0=4 samples, 1=8, 2=16, 3=32"},
				{Bits: "3", Name: "ACCEL_FCHOICE_B", Description: "Accel DLPF bypass", Values: "0=DLPF enabled, 1=Bypass"},
				{Bits: "2:0", Name: "A_DLPF_CFG", Description: "Accel DLPF Config", Values: "0=218Hz, 1=218Hz, 2=99Hz, 3=45Hz, 4=21Hz, 5=10Hz, 6=5Hz, 7=420Hz"},
			}},
		{Address: "0x1E", Name: "LP_MODE_CFG", Description: "Low Power Mode Configuration", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7", Name: "GYRO_CYCLE", Description: "Gyroscope low-power cycle mode", Values: "0=Disabled, 1=Enabled"},
				{Bits: "6:4", Name: "G_AVGCFG", Description: "Gyro averaging filter", Values: "0=1x ... 7=128x"},
			}},

		// Interrupt Configuration
		{Address: "0x37", Name: "INT_PIN_CFG", Description: "INT Pin / Bypass Enable Configuration", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7", Name: "INT_LEVEL", Description: "INT pin active low", Values: "0=Active high, 1=Active low"},
				{Bits: "6", Name: "INT_OPEN", Description: "INT pin open drain", Values: "0=Push-pull, 1=Open drain"},
				{Bits: "5", Name: "LATCH_INT_EN", Description: "Latch INT pin", Values: "0=50us pulse, 1=Latch until cleared"},
				{Bits: "4", Name: "INT_RD_CLEAR", Description: "Clear INT on any read", Values: "0=Status read only, 1=Any read"},
			}},
		{Address: "0x38", Name: "INT_ENABLE", Description: "Interrupt Enable", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7:5", Name: "WOM_INT_EN", Description: "Wake on Motion interrupt per axis", Values: "0=Disabled, 7=All axes"},
				{Bits: "4", Name: "FIFO_OFLOW_EN", Description: "FIFO overflow interrupt", Values: "0=Disabled, 1=Enabled"},
				{Bits: "0", Name: "DATA_RDY_INT_EN", Description: "Data ready interrupt", Values: "0=Disabled, 1=Enabled"},
			}},
		{Address: "0x3A", Name: "INT_STATUS", Description: "Interrupt Status", Access: "R", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7:5", Name: "WOM_INT", Description: "Wake on Motion interrupt status", Values: ""},
				{Bits: "4", Name: "FIFO_OFLOW_INT", Description: "FIFO overflow interrupt status", Values: ""},
				{Bits: "0", Name: "DATA_RDY_INT", Description: "Data ready interrupt status", Values: ""},
			}},

		// Sensor Data Registers (Read-Only)
		{Address: "0x3B", Name: "ACCEL_XOUT_H", Description: "Accelerometer X-Axis High Byte", Access: "R"},
		{Address: "0x3C", Name: "ACCEL_XOUT_L", Description: "Accelerometer X-Axis Low Byte", Access: "R"},
		{Address: "0x3D", Name: "ACCEL_YOUT_H", Description: "Accelerometer Y-Axis High Byte", Access: "R"},
		{Address: "0x3E", Name: "ACCEL_YOUT_L", Description: "Accelerometer Y-Axis Low Byte", Access: "R"},
		{Address: "0x3F", Name: "ACCEL_ZOUT_H", Description: "Accelerometer Z-Axis High Byte", Access: "R"},
		{Address: "0x40", Name: "ACCEL_ZOUT_L", Description: "Accelerometer Z-Axis Low Byte", Access: "R"},
		{Address: "0x41", Name: "TEMP_OUT_H", Description: "Temperature High Byte", Access: "R"},
		{Address: "0x42", Name: "TEMP_OUT_L", Description: "Temperature Low Byte", Access: "R"},
		{Address: "0x43", Name: "GYRO_XOUT_H", Description: "Gyroscope X-Axis High Byte", Access: "R"},
		{Address: "0x44", Name: "GYRO_XOUT_L", Description: "Gyroscope X-Axis Low Byte", Access: "R"},
		{Address: "0x45", Name: "GYRO_YOUT_H", Description: "Gyroscope Y-Axis High Byte", Access: "R"},
		{Address: "0x46", Name: "GYRO_YOUT_L", Description: "Gyroscope Y-Axis Low Byte", Access: "R"},
		{Address: "0x47", Name: "GYRO_ZOUT_H", Description: "Gyroscope Z-Axis High Byte", Access: "R"},
		{Address: "0x48", Name: "GYRO_ZOUT_L", Description: "Gyroscope Z-Axis Low Byte", Access: "R"},

		// Self-Test Reference Registers (factory trim, gyroscope)
		{Address: "0x50", Name: "SELF_TEST_X_GYRO", Description: "Gyroscope X-Axis Self-Test Reference", Access: "R"},
		{Address: "0x51", Name: "SELF_TEST_Y_GYRO", Description: "Gyroscope Y-Axis Self-Test Reference", Access: "R"},
		{Address: "0x52", Name: "SELF_TEST_Z_GYRO", Description: "Gyroscope Z-Axis Self-Test Reference", Access: "R"},

		// FIFO and User Control
		{Address: "0x6A", Name: "USER_CTRL", Description: "User Control", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "6", Name: "FIFO_EN", Description: "Enable FIFO", Values: "0=Disabled, 1=Enabled"},
				{Bits: "2", Name: "FIFO_RST", Description: "Reset FIFO", Values: "1=Reset"},
				{Bits: "0", Name: "SIG_COND_RST", Description: "Reset signal paths", Values: "1=Reset"},
			}},
		{Address: "0x6B", Name: "PWR_MGMT_1", Description: "Power Management 1", Access: "RW", Default: "0x40",
			BitFields: []BitField{
				{Bits: "7", Name: "DEVICE_RESET", Description: "Device reset", Values: "1=Reset device"},
				{Bits: "6", Name: "SLEEP", Description: "Sleep mode", Values: "0=Disabled, 1=Sleep"},
				{Bits: "5", Name: "CYCLE", Description: "Cycle mode", Values: "0=Disabled, 1=Cycle"},
				{Bits: "4", Name: "GYRO_STANDBY", Description: "Gyro standby (PLL on, outputs off)", Values: "0=Disabled, 1=Standby"},
				{Bits: "3", Name: "TEMP_DIS", Description: "Temperature sensor", Values: "0=Enabled, 1=Disabled"},
				{Bits: "2:0", Name: "CLKSEL", Description: "Clock source", Values: "0=Internal 20MHz, 1=Auto select best"},
			}},
		{Address: "0x6C", Name: "PWR_MGMT_2", Description: "Power Management 2", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "5", Name: "DISABLE_XA", Description: "Disable X accelerometer", Values: "0=Enabled, 1=Disabled"},
				{Bits: "4", Name: "DISABLE_YA", Description: "Disable Y accelerometer", Values: "0=Enabled, 1=Disabled"},
				{Bits: "3", Name: "DISABLE_ZA", Description: "Disable Z accelerometer", Values: "0=Enabled, 1=Disabled"},
				{Bits: "2", Name: "DISABLE_XG", Description: "Disable X gyro", Values: "0=Enabled, 1=Disabled"},
				{Bits: "1", Name: "DISABLE_YG", Description: "Disable Y gyro", Values: "0=Enabled, 1=Disabled"},
				{Bits: "0", Name: "DISABLE_ZG", Description: "Disable Z gyro", Values: "0=Enabled, 1=Disabled"},
			}},
		{Address: "0x72", Name: "FIFO_COUNTH", Description: "FIFO Count High Byte", Access: "R"},
		{Address: "0x73", Name: "FIFO_COUNTL", Description: "FIFO Count Low Byte", Access: "R"},
		{Address: "0x74", Name: "FIFO_R_W", Description: "FIFO Read Write", Access: "RW"},

		// Device Identification
		{Address: "0x75", Name: "WHO_AM_I", Description: "Device ID (should be 0x19)", Access: "R", Default: "0x19"},

		// Accelerometer Offset Adjustment
		{Address: "0x77", Name: "XA_OFFSET_H", Description: "Accelerometer X-Axis Offset High Byte", Access: "RW"},
		{Address: "0x78", Name: "XA_OFFSET_L", Description: "Accelerometer X-Axis Offset Low Byte", Access: "RW"},
		{Address: "0x7A", Name: "YA_OFFSET_H", Description: "Accelerometer Y-Axis Offset High Byte", Access: "RW"},
		{Address: "0x7B", Name: "YA_OFFSET_L", Description: "Accelerometer Y-Axis Offset Low Byte", Access: "RW"},
		{Address: "0x7D", Name: "ZA_OFFSET_H", Description: "Accelerometer Z-Axis Offset High Byte", Access: "RW"},
		{Address: "0x7E", Name: "ZA_OFFSET_L", Description: "Accelerometer Z-Axis Offset Low Byte", Access: "RW"},
	}
}

// registerAddresses returns the addresses from the register map in listed
// order, for bulk reads.
func registerAddresses() []byte {
	regs := getMPU6886RegisterMap()
	addrs := make([]byte, 0, len(regs))
	for _, r := range regs {
		var a byte
		if _, err := fmt.Sscanf(r.Address, "0x%X", &a); err == nil {
			addrs = append(addrs, a)
		}
	}
	return addrs
}
