package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/mpu6886/internal/config"
	"github.com/relabs-tech/mpu6886/internal/imu"
)

// consoleState holds the most recent message seen on each topic.
type consoleState struct {
	mu         sync.RWMutex
	raw        imu.Raw
	sample     imu.Sample
	tempC      float64
	tempF      float64
	haveRaw    bool
	haveSample bool
	haveTemp   bool
}

// RunConsole subscribes to the producer topics and prints the latest values
// on the configured interval.
func RunConsole() error {
	log.Println("starting mpu6886 console")

	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("MQTT connect error: %v", token.Error())
		return token.Error()
	}
	defer client.Disconnect(250)

	topicRaw := cfg.TopicIMURaw
	if topicRaw == "" {
		topicRaw = "mpu6886/imu/raw"
	}
	topicIMU := cfg.TopicIMU
	if topicIMU == "" {
		topicIMU = "mpu6886/imu"
	}
	topicTemp := cfg.TopicTemperature
	if topicTemp == "" {
		topicTemp = "mpu6886/temperature"
	}

	state := &consoleState{}

	if token := client.Subscribe(topicRaw, 0, func(client mqtt.Client, msg mqtt.Message) {
		var raw imu.Raw
		if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
			log.Printf("bad raw message: %v", err)
			return
		}
		state.mu.Lock()
		state.raw = raw
		state.haveRaw = true
		state.mu.Unlock()
	}); token.Wait() && token.Error() != nil {
		log.Fatalf("MQTT subscribe error (%s): %v", topicRaw, token.Error())
		return token.Error()
	}

	if token := client.Subscribe(topicIMU, 0, func(client mqtt.Client, msg mqtt.Message) {
		var sample imu.Sample
		if err := json.Unmarshal(msg.Payload(), &sample); err != nil {
			log.Printf("bad sample message: %v", err)
			return
		}
		state.mu.Lock()
		state.sample = sample
		state.haveSample = true
		state.mu.Unlock()
	}); token.Wait() && token.Error() != nil {
		log.Fatalf("MQTT subscribe error (%s): %v", topicIMU, token.Error())
		return token.Error()
	}

	if token := client.Subscribe(topicTemp, 0, func(client mqtt.Client, msg mqtt.Message) {
		var temp struct {
			TempC float64 `json:"temp_c"`
			TempF float64 `json:"temp_f"`
		}
		if err := json.Unmarshal(msg.Payload(), &temp); err != nil {
			log.Printf("bad temperature message: %v", err)
			return
		}
		state.mu.Lock()
		state.tempC = temp.TempC
		state.tempF = temp.TempF
		state.haveTemp = true
		state.mu.Unlock()
	}); token.Wait() && token.Error() != nil {
		log.Fatalf("MQTT subscribe error (%s): %v", topicTemp, token.Error())
		return token.Error()
	}

	log.Printf("subscribed to %s, %s, %s", topicRaw, topicIMU, topicTemp)

	ticker := time.NewTicker(time.Duration(cfg.ConsoleLogInterval) * time.Millisecond)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			state.mu.RLock()
			if !state.haveRaw && !state.haveSample && !state.haveTemp {
				fmt.Println("[....] waiting for data")
			}
			if state.haveRaw {
				fmt.Printf("[IMU ] ax=%6d ay=%6d az=%6d | gx=%6d gy=%6d gz=%6d | temp=%6d\n",
					state.raw.Ax, state.raw.Ay, state.raw.Az,
					state.raw.Gx, state.raw.Gy, state.raw.Gz,
					state.raw.Temp)
			}
			if state.haveSample {
				fmt.Printf("[PHYS] ax=%7.3f ay=%7.3f az=%7.3f m/s² | gx=%8.3f gy=%8.3f gz=%8.3f °/s\n",
					state.sample.Ax, state.sample.Ay, state.sample.Az,
					state.sample.Gx, state.sample.Gy, state.sample.Gz)
			}
			if state.haveTemp {
				fmt.Printf("[TEMP] %5.1f°C / %5.1f°F\n", state.tempC, state.tempF)
			}
			state.mu.RUnlock()
		case <-sigCh:
			log.Println("shutting down console")
			return nil
		}
	}
}
