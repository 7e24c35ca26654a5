package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/agusx1211/ambience/internal/control"
	"github.com/agusx1211/ambience/internal/soundscape"
)

// OffOption is the select entry that stops playback.
const OffOption = "Off"

// State is what the client publishes; the engine satisfies it.
type State interface {
	Active() (string, bool)
	Volume() float64
}

type Client struct {
	client      mqtt.Client
	topic       string
	state       State
	roster      []soundscape.Info
	commandChan chan<- control.Command
}

func NewClient(broker string, port int, user, password, topic string, state State, cmdChan chan<- control.Command) (*Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("%s:%d", broker, port))
	opts.SetClientID(fmt.Sprintf("ambience-%d", time.Now().Unix()))

	if user != "" {
		opts.SetUsername(user)
	}
	if password != "" {
		opts.SetPassword(password)
	}

	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)

	c := &Client{
		topic:       topic,
		state:       state,
		roster:      soundscape.List(),
		commandChan: cmdChan,
	}

	opts.OnConnect = c.onConnect
	opts.OnConnectionLost = c.onConnectionLost
	opts.SetWill(topic+"/availability", "offline", 0, true)

	c.client = mqtt.NewClient(opts)
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}

	return c, nil
}

func (c *Client) onConnect(client mqtt.Client) {
	log.Println("Connected to MQTT broker")

	client.Publish(c.topic+"/availability", 0, true, "online")

	subs := map[string]mqtt.MessageHandler{
		c.topic + "/sound/set":  c.handleSound,
		c.topic + "/volume/set": c.handleVolume,
		c.topic + "/stop/set":   c.handleStop,
	}
	for _, info := range c.roster {
		id := info.ID
		subs[c.topic+"/toggle/"+id+"/set"] = func(mqtt.Client, mqtt.Message) {
			c.sendCommand(control.Command{Action: control.Toggle, Sound: id})
		}
	}

	for topic, handler := range subs {
		if token := client.Subscribe(topic, 0, handler); token.Wait() && token.Error() != nil {
			log.Printf("Failed to subscribe to %s: %v", topic, token.Error())
		}
	}

	c.publishDiscovery()
	c.PublishState()
}

func (c *Client) onConnectionLost(client mqtt.Client, err error) {
	log.Printf("MQTT connection lost: %v", err)
}

func (c *Client) handleSound(client mqtt.Client, msg mqtt.Message) {
	if cmd, ok := c.soundCommand(string(msg.Payload())); ok {
		c.sendCommand(cmd)
	}
}

func (c *Client) handleVolume(client mqtt.Client, msg mqtt.Message) {
	if cmd, ok := volumeCommand(string(msg.Payload())); ok {
		c.sendCommand(cmd)
	}
}

func (c *Client) handleStop(client mqtt.Client, msg mqtt.Message) {
	c.sendCommand(control.Command{Action: control.Stop})
}

// soundCommand maps a select payload, either a label or an id, to a command.
func (c *Client) soundCommand(payload string) (control.Command, bool) {
	name := strings.TrimSpace(payload)
	if strings.EqualFold(name, OffOption) {
		return control.Command{Action: control.Stop}, true
	}
	for _, info := range c.roster {
		if name == info.Label || name == info.ID {
			return control.Command{Action: control.Play, Sound: info.ID}, true
		}
	}
	log.Printf("Ignoring unknown soundscape %q", name)
	return control.Command{}, false
}

// volumeCommand parses a 0-100 percentage.
func volumeCommand(payload string) (control.Command, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(payload), 64)
	if err != nil {
		return control.Command{}, false
	}
	return control.Command{Action: control.SetVolume, Value: control.PercentToVolume(v)}, true
}

func (c *Client) sendCommand(cmd control.Command) {
	select {
	case c.commandChan <- cmd:
	default:
		log.Println("Command channel full")
	}
}

func (c *Client) publishDiscovery() {
	device := map[string]interface{}{
		"identifiers":  []string{"ambience_generator"},
		"name":         "Ambience",
		"manufacturer": "Ambience",
		"model":        "Soundscape Player",
	}

	availability := map[string]interface{}{
		"topic": c.topic + "/availability",
	}

	options := make([]string, 0, len(c.roster)+1)
	options = append(options, OffOption)
	for _, info := range c.roster {
		options = append(options, info.Label)
	}

	c.publishEntity("select", "ambience_sound", map[string]interface{}{
		"name":           "Soundscape",
		"unique_id":      "ambience_sound",
		"device":         device,
		"availability":   availability,
		"command_topic":  c.topic + "/sound/set",
		"state_topic":    c.topic + "/state",
		"value_template": "{{ value_json.sound }}",
		"options":        options,
		"icon":           "mdi:weather-rainy",
	})

	c.publishEntity("number", "ambience_volume", map[string]interface{}{
		"name":                "Volume",
		"unique_id":           "ambience_volume",
		"device":              device,
		"availability":        availability,
		"command_topic":       c.topic + "/volume/set",
		"state_topic":         c.topic + "/state",
		"value_template":      "{{ (value_json.volume * 100) | round(0) }}",
		"min":                 0,
		"max":                 100,
		"step":                1,
		"unit_of_measurement": "%",
		"icon":                "mdi:volume-high",
	})

	c.publishEntity("button", "ambience_stop", map[string]interface{}{
		"name":          "Stop",
		"unique_id":     "ambience_stop",
		"device":        device,
		"availability":  availability,
		"command_topic": c.topic + "/stop/set",
		"icon":          "mdi:stop",
	})

	for _, info := range c.roster {
		id := "ambience_toggle_" + info.ID
		c.publishEntity("button", id, map[string]interface{}{
			"name":          info.Icon + " " + info.Label,
			"unique_id":     id,
			"device":        device,
			"availability":  availability,
			"command_topic": c.topic + "/toggle/" + info.ID + "/set",
			"icon":          "mdi:play-pause",
		})
	}

	log.Printf("Published MQTT discovery (%d entities)", 3+len(c.roster))
}

func (c *Client) publishEntity(domain, entityID string, config map[string]interface{}) {
	data, _ := json.Marshal(config)
	topic := fmt.Sprintf("homeassistant/%s/%s/config", domain, entityID)
	if token := c.client.Publish(topic, 0, true, data); token.Wait() && token.Error() != nil {
		log.Printf("Failed to publish discovery for %s: %v", entityID, token.Error())
	}
}

type publishedState struct {
	Sound   string  `json:"sound"`
	Playing bool    `json:"playing"`
	Volume  float64 `json:"volume"`
}

func (c *Client) snapshot() publishedState {
	state := publishedState{Sound: OffOption, Volume: c.state.Volume()}
	if id, ok := c.state.Active(); ok {
		state.Playing = true
		state.Sound = id
		for _, info := range c.roster {
			if info.ID == id {
				state.Sound = info.Label
			}
		}
	}
	return state
}

func (c *Client) PublishState() {
	data, _ := json.Marshal(c.snapshot())
	c.client.Publish(c.topic+"/state", 0, true, data)
}

func (c *Client) Close() {
	if c.client != nil {
		c.client.Publish(c.topic+"/availability", 0, true, "offline")
		c.client.Disconnect(250)
	}
}
