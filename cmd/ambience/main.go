package main

import (
	"encoding/binary"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/agusx1211/ambience/internal/audio"
	"github.com/agusx1211/ambience/internal/cli"
	"github.com/agusx1211/ambience/internal/config"
	"github.com/agusx1211/ambience/internal/control"
	"github.com/agusx1211/ambience/internal/engine"
	"github.com/agusx1211/ambience/internal/mqtt"
)

var version = "0.1.0"

type CLI struct {
	Version versionFlag `short:"v" help:"Show version information"`

	Serve ServeCmd `cmd:"" default:"1" help:"Run the daemon, controlled over MQTT"`
	Play  PlayCmd  `cmd:"" help:"Play a soundscape until interrupted"`
	List  ListCmd  `cmd:"" help:"List available soundscapes"`
}

// versionFlag prints the styled version and exits before any command runs.
type versionFlag bool

func (versionFlag) BeforeReset(app *kong.Kong) error {
	cli.PrintVersion(version)
	app.Exit(0)
	return nil
}

type ServeCmd struct{}

type PlayCmd struct {
	Sound  string   `arg:"" help:"Soundscape id (see 'list')"`
	Volume *float64 `short:"V" help:"Volume in percent, 0-100"`
}

type ListCmd struct{}

func main() {
	var c CLI
	ctx := kong.Parse(&c,
		kong.Name("ambience"),
		kong.Description("Procedural ambient soundscapes"),
		kong.UsageOnError(),
	)
	if err := ctx.Run(); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

func newEngine(cfg *config.Config) *engine.Engine {
	e := engine.New(engine.Options{
		SampleRate:    cfg.SampleRate,
		BufferSeconds: cfg.BufferSeconds,
		Open:          audio.Opener(cfg.BufferSize),
	})
	e.SetVolume(cfg.DefaultVolume)
	return e
}

func (ListCmd) Run() error {
	cli.PrintRoster(engine.New(engine.Options{}).Definitions())
	return nil
}

func (p *PlayCmd) Run() error {
	cfg := config.Load()
	e := newEngine(cfg)
	defer e.Close()

	if p.Volume != nil {
		e.SetVolume(control.PercentToVolume(*p.Volume))
	}
	reseed(e)
	if err := e.Play(p.Sound); err != nil {
		if errors.Is(err, engine.ErrUnknownSoundscape) {
			cli.PrintRoster(e.Definitions())
		}
		return err
	}

	waitForSignal()
	log.Println("Shutting down...")
	return nil
}

func (ServeCmd) Run() error {
	cfg := config.Load()
	e := newEngine(cfg)
	defer e.Close()

	commandChan := make(chan control.Command, 100)

	mqttClient, err := mqtt.NewClient(
		cfg.MQTTBroker,
		cfg.MQTTPort,
		cfg.MQTTUser,
		cfg.MQTTPassword,
		cfg.MQTTTopic,
		e,
		commandChan,
	)
	if err != nil {
		log.Fatalf("Failed to create MQTT client: %v", err)
	}
	defer mqttClient.Close()

	go reseedLoop(e)

	if cfg.DefaultSound != "" {
		if err := e.Play(cfg.DefaultSound); err != nil {
			log.Printf("Failed to start default soundscape: %v", err)
		}
	}

	go processCommands(e, commandChan, mqttClient)

	waitForSignal()
	log.Println("Shutting down...")
	return nil
}

func waitForSignal() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
}

func reseedLoop(e *engine.Engine) {
	reseed(e)
	for range time.Tick(10 * time.Minute) {
		reseed(e)
	}
}

func reseed(e *engine.Engine) {
	f, err := os.Open("/dev/random")
	if err != nil {
		log.Printf("Failed to open /dev/random: %v", err)
		return
	}
	defer f.Close()

	var seed int64
	if err := binary.Read(f, binary.LittleEndian, &seed); err != nil {
		log.Printf("Failed to read /dev/random: %v", err)
		return
	}
	e.Reseed(seed)
	log.Printf("Re-seeded RNG from /dev/random")
}

func processCommands(e *engine.Engine, cmdChan <-chan control.Command, mqttClient *mqtt.Client) {
	stateTicker := time.NewTicker(2 * time.Second)
	defer stateTicker.Stop()

	for {
		select {
		case cmd, ok := <-cmdChan:
			if !ok {
				return
			}
			if err := control.Apply(e, cmd); err != nil {
				log.Printf("Command %s failed: %v", cmd.Action, err)
			}
			mqttClient.PublishState()
		case <-stateTicker.C:
			mqttClient.PublishState()
		}
	}
}
