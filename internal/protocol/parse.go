package protocol

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/lumos-project/lumos/internal/devicepipeline"
	"github.com/lumos-project/lumos/internal/profiles"
	"github.com/lumos-project/lumos/internal/sampler"
	"github.com/lumos-project/lumos/internal/sink/qmk"
	"github.com/lumos-project/lumos/internal/sink/serial"
	"github.com/lumos-project/lumos/internal/sink/wled"
)

// wledPort is WLED's fixed UDP port for the DRGB realtime protocol; the
// wire DeviceSpec carries only an IP.
const wledPort = 21324

// CommandKind discriminates a Command.
type CommandKind int

const (
	CommandDevices CommandKind = iota
	CommandProfiles
	CommandAudioDevices
	CommandShutdown
)

// Command is the parsed form of one control-plane message: a sum type
// over Devices/Profiles/AudioDevices/Shutdown.
type Command struct {
	Kind         CommandKind
	Devices      []DeviceInstance
	Profiles     []profiles.ApplicationProfile
	AudioDevices []string
}

// DeviceInstance pairs a parsed devicepipeline.Spec with the concrete
// output sink constructed for it; Sink is nil only if construction
// ultimately failed and the caller chose to skip it (Parse itself already
// skips failed devices, so callers normally never see a nil Sink here).
type DeviceInstance struct {
	Spec devicepipeline.Spec
	Sink devicepipeline.Sink
}

// Parse decodes one raw control-plane text message into a Command.
// Malformed top-level JSON or an unknown subject is a hard error; per-entry
// parse failures within a devices/profiles message are reported through
// the returned per-entry errors (for the caller to log) and the entry is
// skipped, never failing the whole message.
func Parse(raw []byte) (Command, []error, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Command{}, nil, fmt.Errorf("protocol: malformed message: %w", err)
	}

	switch env.Subject {
	case SubjectDevices:
		return parseDevices(raw)
	case SubjectProfiles:
		return parseProfiles(raw)
	case SubjectAudioDevices:
		return parseAudioDevices(raw)
	case SubjectShutdown:
		return Command{Kind: CommandShutdown}, nil, nil
	default:
		return Command{}, nil, fmt.Errorf("protocol: unknown subject %q", env.Subject)
	}
}

func parseDevices(raw []byte) (Command, []error, error) {
	var msg devicesMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Command{}, nil, fmt.Errorf("protocol: malformed devices message: %w", err)
	}

	var out []DeviceInstance
	var errs []error
	for i, entry := range msg.Contents {
		if !entry.Enabled {
			continue
		}
		inst, err := parseDevice(entry.Device)
		if err != nil {
			errs = append(errs, fmt.Errorf("device %d (%q): %w", i, entry.Device.Name, err))
			continue
		}
		out = append(out, inst)
	}
	return Command{Kind: CommandDevices, Devices: out}, errs, nil
}

func parseDevice(d deviceDTO) (DeviceInstance, error) {
	if d.NumberOfLEDs <= 0 {
		return DeviceInstance{}, fmt.Errorf("numberOfLeds must be positive, got %d", d.NumberOfLEDs)
	}

	var orient sampler.Orientation
	switch d.SamplingType {
	case 0:
		orient = sampler.Horizontal
	case 1:
		orient = sampler.Vertical
	default:
		return DeviceInstance{}, fmt.Errorf("unsupported sampling type %d", d.SamplingType)
	}

	var sink devicepipeline.Sink
	var err error
	switch d.Type {
	case outputWLED:
		if d.WLEDData == nil {
			return DeviceInstance{}, fmt.Errorf("expected wledData, got none")
		}
		sink, err = wled.New(d.NumberOfLEDs, d.WLEDData.IPAddress, wledPort)
	case outputQMK:
		if d.QMKData == nil {
			return DeviceInstance{}, fmt.Errorf("expected qmkData, got none")
		}
		sink, err = qmk.New(d.NumberOfLEDs, d.QMKData.VendorID, d.QMKData.ProductID)
	case outputSerial:
		if d.SerialData == nil {
			return DeviceInstance{}, fmt.Errorf("expected serialData, got none")
		}
		sink, err = serial.New(d.NumberOfLEDs, d.SerialData.PortName)
	default:
		return DeviceInstance{}, fmt.Errorf("unsupported device type %d", d.Type)
	}
	if err != nil {
		return DeviceInstance{}, err
	}

	var audioAmount float32
	if d.AudioAmount > 0 {
		audioAmount = d.AudioAmount / 100
	}

	spec := devicepipeline.Spec{
		Name:        d.Name,
		StripLength: d.NumberOfLEDs,
		Sampling:    orient,
		HSVOffset: devicepipeline.HSVOffset{
			DH: 0,
			DS: float32(d.SaturationAdjustment) / 100,
			DV: float32(d.ValueAdjustment) / 100,
		},
		AudioAmount: audioAmount,
		Gamma:       d.Gamma,
	}
	return DeviceInstance{Spec: spec, Sink: sink}, nil
}

func parseProfiles(raw []byte) (Command, []error, error) {
	var msg profilesMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Command{}, nil, fmt.Errorf("protocol: malformed profiles message: %w", err)
	}

	var out []profiles.ApplicationProfile
	var errs []error
	for _, entry := range msg.Contents {
		p, err := parseProfile(entry)
		if err != nil {
			errs = append(errs, fmt.Errorf("profile %q: %w", entry.Regex, err))
			continue
		}
		out = append(out, p)
	}
	return Command{Kind: CommandProfiles, Profiles: out}, errs, nil
}

func parseProfile(entry profileEntry) (profiles.ApplicationProfile, error) {
	re, err := regexp.Compile(entry.Regex)
	if err != nil {
		return profiles.ApplicationProfile{}, fmt.Errorf("invalid title regex: %w", err)
	}

	areas := make([]profiles.MonitorAreaSpec, 0, len(entry.Areas))
	for _, a := range entry.Areas {
		area, err := parseArea(a)
		if err != nil {
			return profiles.ApplicationProfile{}, err
		}
		areas = append(areas, area)
	}

	return profiles.ApplicationProfile{
		ID:         entry.ID,
		Priority:   entry.Priority,
		TitleRegex: re,
		Areas:      areas,
	}, nil
}

func parseArea(a areaDTO) (profiles.MonitorAreaSpec, error) {
	var direction profiles.Direction
	switch a.Direction {
	case "horizontal":
		direction = profiles.DirectionHorizontal
	case "vertical":
		direction = profiles.DirectionVertical
	case "both":
		direction = profiles.DirectionBoth
	default:
		return profiles.MonitorAreaSpec{}, fmt.Errorf("invalid direction %q", a.Direction)
	}

	left, err := parseDistance(a.X)
	if err != nil {
		return profiles.MonitorAreaSpec{}, fmt.Errorf("x: %w", err)
	}
	top, err := parseDistance(a.Y)
	if err != nil {
		return profiles.MonitorAreaSpec{}, fmt.Errorf("y: %w", err)
	}
	width, err := parseDistance(a.Width)
	if err != nil {
		return profiles.MonitorAreaSpec{}, fmt.Errorf("width: %w", err)
	}
	height, err := parseDistance(a.Height)
	if err != nil {
		return profiles.MonitorAreaSpec{}, fmt.Errorf("height: %w", err)
	}

	area := profiles.MonitorAreaSpec{
		Direction: direction,
		Left:      left,
		Top:       top,
		Width:     width,
		Height:    height,
	}
	if a.Selector != nil {
		area.Resolution = &profiles.Resolution{Width: a.Selector.Width, Height: a.Selector.Height}
	}
	return area, nil
}

func parseDistance(d monitorDistanceDTO) (profiles.MonitorDistance, error) {
	if d.Px == nil && d.Percentage == nil {
		return profiles.MonitorDistance{}, fmt.Errorf("must specify either px or percentage")
	}
	if d.Px != nil {
		return profiles.PixelDistance(*d.Px), nil
	}
	pct := *d.Percentage / 100
	if pct < 0 || pct > 1 {
		return profiles.MonitorDistance{}, fmt.Errorf("percentage must be in [0,100], got %v", *d.Percentage)
	}
	return profiles.ProportionDistance(pct), nil
}

func parseAudioDevices(raw []byte) (Command, []error, error) {
	var msg audioDevicesMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Command{}, nil, fmt.Errorf("protocol: malformed audio-devices message: %w", err)
	}
	return Command{Kind: CommandAudioDevices, AudioDevices: msg.Contents}, nil, nil
}
