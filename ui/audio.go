package ui

import (
	"fmt"

	"github.com/golang/glog"
	"github.com/gordonklaus/portaudio"
)

// Audio plays APU samples on the default output device. The sample channel
// is the only buffer, a larger one means more latency.
type Audio struct {
	stream         *portaudio.Stream
	sampleRate     float64
	outputChannels int
	channel        chan float32
	done           chan struct{}
}

func NewAudio() *Audio {
	return &Audio{
		channel: make(chan float32, 8192),
		done:    make(chan struct{}),
	}
}

// Start opens and starts the output stream and returns the device sample
// rate, which the console must be set to.
func (audio *Audio) Start() (float64, error) {
	if err := portaudio.Initialize(); err != nil {
		return 0, fmt.Errorf("audio: %w", err)
	}
	api, err := portaudio.DefaultHostApi()
	if err != nil {
		portaudio.Terminate()
		return 0, fmt.Errorf("audio: %w", err)
	}
	parameters := portaudio.HighLatencyParameters(nil, api.DefaultOutputDevice)
	stream, err := portaudio.OpenStream(parameters, audio.Callback)
	if err != nil {
		portaudio.Terminate()
		return 0, fmt.Errorf("audio: open stream: %w", err)
	}
	audio.stream = stream
	audio.sampleRate = parameters.SampleRate
	audio.outputChannels = parameters.Output.Channels
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return 0, fmt.Errorf("audio: start stream: %w", err)
	}
	glog.Infof("audio: %s at %.0f Hz, %d channels", api.DefaultOutputDevice.Name, audio.sampleRate, audio.outputChannels)
	return audio.sampleRate, nil
}

// Sink is the console's audio sink. It blocks while the buffer is full,
// which paces the emulation to the sound card.
func (audio *Audio) Sink(sample float32) {
	select {
	case audio.channel <- sample:
	case <-audio.done:
	}
}

func (audio *Audio) Stop() error {
	close(audio.done)
	if audio.stream == nil {
		return nil
	}
	defer portaudio.Terminate()
	if err := audio.stream.Stop(); err != nil {
		return err
	}
	return audio.stream.Close()
}

// Callback fills every output channel with the same mono sample, silence
// when the emulator falls behind.
func (audio *Audio) Callback(out []float32) {
	var output float32
	for i := range out {
		if i%audio.outputChannels == 0 {
			select {
			case sample := <-audio.channel:
				output = sample
			default:
				output = 0
			}
		}
		out[i] = output
	}
}
