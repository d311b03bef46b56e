// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/mpu6886/internal/config"
	"github.com/relabs-tech/mpu6886/internal/mpu6886"
	"github.com/relabs-tech/mpu6886/internal/sensors"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// RegisterDebugSession holds WebSocket connection state for register debugging
type RegisterDebugSession struct {
	Conn *websocket.Conn
}

// WebSocket message types for register debugging
type RegisterReadCmd struct {
	Action  string `json:"action"` // "read", "read_all"
	Address string `json:"addr,omitempty"`
	Nbytes  int    `json:"nbytes,omitempty"` // 1, 2 or 6, default 1
}

type RegisterWriteCmd struct {
	Action  string `json:"action"` // "write"
	Address string `json:"addr"`
	Value   string `json:"value"`
}

type RegisterInitCmd struct {
	Action string `json:"action"` // "init"
}

type RegisterSelfTestCmd struct {
	Action string `json:"action"` // "selftest"
	Sensor string `json:"sensor"` // "accel" or "gyro"
	Axes   string `json:"axes"`   // e.g. "xyz", "all"
}

type RegisterExportCmd struct {
	Action string `json:"action"` // "export_config"
}

// Response types
type RegisterResponse struct {
	Type        string            `json:"type"` // "register_data", "register_map", "self_test", "status", "error"
	Address     string            `json:"addr,omitempty"`
	Value       string            `json:"value,omitempty"`
	Registers   map[string]string `json:"registers,omitempty"` // for bulk read
	Timestamp   string            `json:"timestamp,omitempty"`
	Message     string            `json:"message,omitempty"`
	Status      string            `json:"status,omitempty"`
	SelfTest    *SelfTestReport   `json:"self_test,omitempty"`
	RegisterMap []RegisterInfo    `json:"register_map,omitempty"`
}

type RegisterInfo struct {
	Address     string             `json:"address"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Access      string             `json:"access"` // "R", "W", "RW"
	Default     string             `json:"default,omitempty"`
	BitFields   []sensors.BitField `json:"bit_fields,omitempty"`
}

// RegisterConfigFile represents the JSON structure for exported register configuration
type RegisterConfigFile struct {
	Version   int               `json:"version"`
	Device    string            `json:"device"`
	Timestamp string            `json:"timestamp"`
	Registers map[string]string `json:"registers"` // hex address -> hex value
}

// HandleRegisterDebugWS handles the WebSocket connection for register debugging
func HandleRegisterDebugWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("register_debug: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	session := &RegisterDebugSession{Conn: conn}

	// Send register map on connection
	if err := session.sendRegisterMap(); err != nil {
		log.Printf("register_debug: error sending register map: %v", err)
		return
	}

	// Message loop
	for {
		var rawMsg map[string]interface{}
		err := conn.ReadJSON(&rawMsg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("register_debug: websocket error: %v", err)
			}
			break
		}

		action, ok := rawMsg["action"].(string)
		if !ok {
			session.sendError("missing or invalid action field")
			continue
		}

		// Route based on action
		switch action {
		case "get_map":
			session.sendRegisterMap()
		case "read":
			session.handleRead(rawMsg)
		case "read_all":
			session.handleReadAll(rawMsg)
		case "write":
			session.handleWrite(rawMsg)
		case "init":
			session.handleInit(rawMsg)
		case "selftest":
			session.handleSelfTest(rawMsg)
		case "export_config":
			session.handleExportConfig(rawMsg)
		default:
			session.sendError(fmt.Sprintf("unknown action: %s", action))
		}
	}
}

func (s *RegisterDebugSession) handleRead(rawMsg map[string]interface{}) {
	addr, _ := rawMsg["addr"].(string)
	nbytesF, _ := rawMsg["nbytes"].(float64)

	if addr == "" {
		s.sendError("missing addr field")
		return
	}

	// Parse hex address
	var addrByte byte
	if _, err := fmt.Sscanf(addr, "0x%X", &addrByte); err != nil {
		s.sendError(fmt.Sprintf("invalid address format: %s", addr))
		return
	}

	// Read register via IMU manager. Wider reads decode the big-endian
	// measurement registers as signed values.
	mgr := sensors.GetIMUManager()
	var valueStr string
	if nbytes := int(nbytesF); nbytes > 1 {
		val, err := mgr.AccessRegister(addrByte, nil, nbytes)
		if err != nil {
			s.sendError(fmt.Sprintf("read error: %v", err))
			return
		}
		switch v := val.(type) {
		case mpu6886.Word:
			valueStr = fmt.Sprintf("%d", int16(v))
		case mpu6886.Triple:
			valueStr = fmt.Sprintf("%d %d %d", v[0], v[1], v[2])
		}
	} else {
		value, err := mgr.ReadRegister(addrByte)
		if err != nil {
			s.sendError(fmt.Sprintf("read error: %v", err))
			return
		}
		valueStr = fmt.Sprintf("0x%02X", value)
	}

	// Send response
	resp := RegisterResponse{
		Type:      "register_data",
		Address:   addr,
		Value:     valueStr,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	s.Conn.WriteJSON(resp)
}

func (s *RegisterDebugSession) handleReadAll(rawMsg map[string]interface{}) {
	// Read every documented register via IMU manager
	mgr := sensors.GetIMUManager()
	registers, err := mgr.ReadAllRegisters()
	if err != nil {
		s.sendError(fmt.Sprintf("read all error: %v", err))
		return
	}

	// Convert to hex string map
	regMap := make(map[string]string)
	for addr, value := range registers {
		regMap[fmt.Sprintf("0x%02X", addr)] = fmt.Sprintf("0x%02X", value)
	}

	// Send response
	resp := RegisterResponse{
		Type:      "register_data",
		Registers: regMap,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	s.Conn.WriteJSON(resp)
}

func (s *RegisterDebugSession) handleWrite(rawMsg map[string]interface{}) {
	addr, _ := rawMsg["addr"].(string)
	valueStr, _ := rawMsg["value"].(string)

	if addr == "" || valueStr == "" {
		s.sendError("missing addr or value field")
		return
	}

	// Parse hex address and value
	var addrByte, valueByte byte
	if _, err := fmt.Sscanf(addr, "0x%X", &addrByte); err != nil {
		s.sendError(fmt.Sprintf("invalid address format: %s", addr))
		return
	}
	if _, err := fmt.Sscanf(valueStr, "0x%X", &valueByte); err != nil {
		s.sendError(fmt.Sprintf("invalid value format: %s", valueStr))
		return
	}

	// Validate write range
	cfg := config.Get()
	if !isRegisterWritable(addrByte, cfg.RegisterDebugAllowedRanges) {
		s.sendError(fmt.Sprintf("register 0x%02X not in allowed write ranges", addrByte))
		return
	}

	// Write register via IMU manager, which verifies with a read-back
	mgr := sensors.GetIMUManager()
	if err := mgr.WriteRegister(addrByte, valueByte); err != nil {
		s.sendError(fmt.Sprintf("write error: %v", err))
		return
	}

	// Send confirmation
	resp := RegisterResponse{
		Type:      "register_data",
		Address:   addr,
		Value:     valueStr,
		Timestamp: time.Now().Format(time.RFC3339),
		Message:   "write successful",
	}
	s.Conn.WriteJSON(resp)
}

func (s *RegisterDebugSession) handleInit(rawMsg map[string]interface{}) {
	// Reinitialize IMU via manager
	mgr := sensors.GetIMUManager()
	if err := mgr.Reinitialize(); err != nil {
		s.sendError(fmt.Sprintf("reinit error: %v", err))
		return
	}

	// Send status response
	resp := RegisterResponse{
		Type:    "status",
		Status:  "initialized",
		Message: "IMU reinitialized successfully",
	}
	if accelRange, gyroRange, err := mgr.Ranges(); err == nil {
		resp.Message = fmt.Sprintf("IMU reinitialized, ranges %s / %s", accelRange, gyroRange)
	}
	s.Conn.WriteJSON(resp)
}

func (s *RegisterDebugSession) handleSelfTest(rawMsg map[string]interface{}) {
	sensorStr, _ := rawMsg["sensor"].(string)
	axesStr, _ := rawMsg["axes"].(string)

	if sensorStr == "" {
		s.sendError("missing sensor field")
		return
	}

	sensor, err := ParseSensor(sensorStr)
	if err != nil {
		s.sendError(err.Error())
		return
	}
	axes, err := ParseAxes(axesStr)
	if err != nil {
		s.sendError(err.Error())
		return
	}

	mgr := sensors.GetIMUManager()
	report, err := CheckSelfTest(mgr, sensor, axes)
	if err != nil {
		s.sendError(fmt.Sprintf("self-test error: %v", err))
		return
	}

	resp := RegisterResponse{
		Type:      "self_test",
		SelfTest:  &report,
		Timestamp: report.Time,
	}
	s.Conn.WriteJSON(resp)
}

func (s *RegisterDebugSession) handleExportConfig(rawMsg map[string]interface{}) {
	// Read all registers
	mgr := sensors.GetIMUManager()
	registers, err := mgr.ReadAllRegisters()
	if err != nil {
		s.sendError(fmt.Sprintf("export error: %v", err))
		return
	}

	// Convert to hex string map
	regMap := make(map[string]string)
	for addr, value := range registers {
		regMap[fmt.Sprintf("0x%02X", addr)] = fmt.Sprintf("0x%02X", value)
	}

	// Create config file structure
	configFile := RegisterConfigFile{
		Version:   1,
		Device:    "mpu6886",
		Timestamp: time.Now().Format(time.RFC3339),
		Registers: regMap,
	}

	// Send as download
	configJSON, _ := json.Marshal(configFile)
	rawResp := map[string]interface{}{
		"type":     "export_config",
		"message":  "config exported",
		"config":   string(configJSON),
		"filename": fmt.Sprintf("mpu6886_%s_registers.json", time.Now().Format("20060102_150405")),
	}
	s.Conn.WriteJSON(rawResp)
}

func (s *RegisterDebugSession) sendRegisterMap() error {
	mgr := sensors.GetIMUManager()
	regMap := mgr.GetRegisterMap()

	// Convert sensors.RegisterInfo to RegisterInfo
	mappedRegs := make([]RegisterInfo, len(regMap))
	for i, r := range regMap {
		mappedRegs[i] = RegisterInfo{
			Address:     r.Address,
			Name:        r.Name,
			Description: r.Description,
			Access:      r.Access,
			Default:     r.Default,
			BitFields:   r.BitFields, // Already sensors.BitField type
		}
	}

	resp := RegisterResponse{
		Type:        "register_map",
		RegisterMap: mappedRegs,
	}
	return s.Conn.WriteJSON(resp)
}

func (s *RegisterDebugSession) sendError(message string) {
	resp := RegisterResponse{
		Type:    "error",
		Message: message,
	}
	s.Conn.WriteJSON(resp)
}

// HandleIMUData serves live IMU data via REST API
func HandleIMUData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	mgr := sensors.GetIMUManager()
	raw, err := mgr.ReadRaw()
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error": "%v"}`, err), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(raw)
}

// registerRange is one inclusive span of writable register addresses.
type registerRange struct {
	lo, hi byte
}

// parseAllowedRanges parses a list like "0x1B-0x1D,0x6B,0x77-0x7E" into
// inclusive address ranges. A single address becomes a one-element range.
func parseAllowedRanges(allowedRanges string) ([]registerRange, error) {
	var ranges []registerRange
	for _, part := range strings.Split(allowedRanges, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		bounds := strings.Split(part, "-")
		if len(bounds) > 2 {
			return nil, fmt.Errorf("bad register range %q", part)
		}
		lo, err := strconv.ParseUint(strings.TrimSpace(bounds[0]), 0, 8)
		if err != nil {
			return nil, fmt.Errorf("bad register address %q: %v", bounds[0], err)
		}
		hi := lo
		if len(bounds) == 2 {
			hi, err = strconv.ParseUint(strings.TrimSpace(bounds[1]), 0, 8)
			if err != nil {
				return nil, fmt.Errorf("bad register address %q: %v", bounds[1], err)
			}
		}
		if hi < lo {
			return nil, fmt.Errorf("bad register range %q: end before start", part)
		}
		ranges = append(ranges, registerRange{lo: byte(lo), hi: byte(hi)})
	}
	return ranges, nil
}

// isRegisterWritable checks if a register address is in the allowed write ranges
func isRegisterWritable(addr byte, allowedRanges string) bool {
	if allowedRanges == "" {
		return false // Empty means no writes allowed by default
	}

	ranges, err := parseAllowedRanges(allowedRanges)
	if err != nil {
		log.Printf("register_debug: %v", err)
		return false
	}
	for _, r := range ranges {
		if addr >= r.lo && addr <= r.hi {
			return true
		}
	}
	return false
}
