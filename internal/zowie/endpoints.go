package zowie

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

var groupAll = request{Group: "all"}

// Status fetches the full video status (encoders, decoders, resolutions).
func (c *Client) Status(ctx context.Context) (Response, error) {
	return c.getInfo(ctx, EndpointVideo, groupAll)
}

// Devices returns the devices attached to the box. The firmware exposes no
// device list, so a single record is synthesized from a successful status
// call. A non-success status yields an empty list.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	status, err := c.Status(ctx)
	if err != nil {
		return nil, err
	}
	if !status.OK() {
		return []Device{}, nil
	}
	return []Device{SynthesizeDevice(status)}, nil
}

// SynthesizeDevice builds the single device record from a status reply.
// Control values present in status.all are carried over.
func SynthesizeDevice(status Response) Device {
	dev := Device{
		ID:           DefaultDeviceID,
		Name:         DefaultDeviceName,
		Type:         DeviceTypeCamera,
		State:        "on",
		Model:        DefaultModel,
		Status:       "online",
		Capabilities: append([]string(nil), DefaultCapabilities...),
	}
	// Unknown or mistyped control values are not fatal for the record.
	_, _ = status.DecodeField("all", &dev.Controls)
	return dev
}

// CameraInfo queries the legacy camera info endpoint.
func (c *Client) CameraInfo(ctx context.Context) (Response, error) {
	return c.do(ctx, http.MethodGet, endpointCameraInfo, nil)
}

// ControlDevice sends a command to a device.
func (c *Client) ControlDevice(ctx context.Context, deviceID, command string, value any) (Response, error) {
	data := map[string]any{"device_id": deviceID, "command": command}
	if value != nil {
		data["value"] = value
	}
	return c.setInfo(ctx, EndpointSystem, request{Group: "device", Opt: "control_device", Data: data})
}

// InputInfo reports the HDMI input signal.
func (c *Client) InputInfo(ctx context.Context) (Response, error) {
	return c.getInfo(ctx, EndpointVideo, request{Group: "hdmi", Opt: "get_input_info"})
}

// OutputInfo reports the HDMI output configuration.
func (c *Client) OutputInfo(ctx context.Context) (Response, error) {
	return c.getInfo(ctx, EndpointVideo, request{Group: "hdmi", Opt: "get_output_info"})
}

// SetOutputInfo updates the HDMI output configuration.
func (c *Client) SetOutputInfo(ctx context.Context, settings OutputSettings) (Response, error) {
	return c.setInfo(ctx, EndpointVideo, request{Group: "hdmi", Opt: "set_output_info", Data: settings})
}

// EncodingInfo fetches encoder parameters.
func (c *Client) EncodingInfo(ctx context.Context) (Response, error) {
	return c.getInfo(ctx, EndpointVideo, groupAll)
}

// SetEncodingInfo writes encoder parameters for several streams at once.
func (c *Client) SetEncodingInfo(ctx context.Context, venc []VencSettings) (Response, error) {
	return c.setInfo(ctx, EndpointVideo, map[string]any{"group": "venc", "venc": venc})
}

func (c *Client) setVenc(ctx context.Context, opt string, data map[string]any) (Response, error) {
	return c.setInfo(ctx, EndpointVideo, request{Group: "venc", Opt: opt, Data: data})
}

// SetStreamSwitch enables or disables one encoder stream.
func (c *Client) SetStreamSwitch(ctx context.Context, streamID int, on bool) (Response, error) {
	return c.setVenc(ctx, "set_output_switch", map[string]any{"stream_id": streamID, "switch": boolInt(on)})
}

// SetStreamResolution sets one stream's output resolution.
func (c *Client) SetStreamResolution(ctx context.Context, streamID, width, height int) (Response, error) {
	return c.setVenc(ctx, "set_resolution", map[string]any{"stream_id": streamID, "width": width, "height": height})
}

// SetStreamCodec selects a codec by its index in the stream's codec list.
func (c *Client) SetStreamCodec(ctx context.Context, streamID, codecID int) (Response, error) {
	return c.setVenc(ctx, "set_codec", map[string]any{"stream_id": streamID, "codec": codecID})
}

// SetStreamBitrate sets one stream's bitrate in bits per second.
func (c *Client) SetStreamBitrate(ctx context.Context, streamID, bitrate int) (Response, error) {
	return c.setVenc(ctx, "set_bitrate", map[string]any{"stream_id": streamID, "bitrate": bitrate})
}

// SetStreamFramerate sets one stream's framerate.
func (c *Client) SetStreamFramerate(ctx context.Context, streamID int, fps float64) (Response, error) {
	return c.setVenc(ctx, "set_framerate", map[string]any{"stream_id": streamID, "framerate": fps})
}

// StreamInfo fetches the publish, RTSP, SRT, streamplay and NDI status.
func (c *Client) StreamInfo(ctx context.Context) (Response, error) {
	return c.getInfo(ctx, EndpointStream, request{Group: "getStreamStatus"})
}

// AddPublishInfo registers a new publish target.
func (c *Client) AddPublishInfo(ctx context.Context, info PublishInfo) (Response, error) {
	return c.setInfo(ctx, EndpointStream, request{Group: "publish", Opt: "add_publish_info", Data: info})
}

// SetPublishSwitch starts or stops a publish target.
func (c *Client) SetPublishSwitch(ctx context.Context, index int, on bool) (Response, error) {
	return c.setInfo(ctx, EndpointStream, request{
		Group: "publish",
		Opt:   "update_publish_switch",
		Data:  map[string]any{"index": index, "switch": boolInt(on)},
	})
}

// SetOutputProtocolSwitch toggles an RTSP or SRT output.
func (c *Client) SetOutputProtocolSwitch(ctx context.Context, protocol string, streamID int, on bool) (Response, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	if protocol != "rtsp" && protocol != "srt" {
		return Response{}, fmt.Errorf("unsupported protocol %q", protocol)
	}
	return c.setInfo(ctx, EndpointStream, request{
		Group: protocol,
		Opt:   "set_" + protocol + "_switch",
		Data:  map[string]any{"stream_id": streamID, "switch": boolInt(on)},
	})
}

// SetStreamplaySwitch toggles a decoding source.
func (c *Client) SetStreamplaySwitch(ctx context.Context, index int, on bool) (Response, error) {
	return c.setInfo(ctx, EndpointStreamplay, request{
		Group: "streamplay",
		Opt:   "update_streamplay_switch",
		Data:  map[string]any{"index": index, "switch": boolInt(on)},
	})
}

// PTZInfo reports the PTZ control link configuration.
func (c *Client) PTZInfo(ctx context.Context) (Response, error) {
	return c.getInfo(ctx, EndpointPTZ, request{Group: "ptz", Opt: "get_ptz_info"})
}

// SetPTZInfo updates the PTZ control link configuration.
func (c *Client) SetPTZInfo(ctx context.Context, settings PTZSettings) (Response, error) {
	return c.setInfo(ctx, EndpointPTZ, request{Group: "ptz", Opt: "set_ptz_info", Data: settings})
}

// PTZControl moves the head.
func (c *Client) PTZControl(ctx context.Context, move PTZMove) (Response, error) {
	return c.setInfo(ctx, EndpointPTZ, request{Group: "ptz", Opt: "ptz_control", Data: move})
}

// FocusControl drives the focus motor.
func (c *Client) FocusControl(ctx context.Context, settings FocusSettings) (Response, error) {
	return c.setInfo(ctx, EndpointPTZ, request{Group: "ptz", Opt: "focus_control", Data: settings})
}

// ExposureControl updates exposure settings.
func (c *Client) ExposureControl(ctx context.Context, settings ExposureSettings) (Response, error) {
	return c.setInfo(ctx, EndpointVideo, request{Group: "image", Opt: "exposure_control", Data: settings})
}

// WhiteBalanceControl updates white balance settings.
func (c *Client) WhiteBalanceControl(ctx context.Context, settings WhiteBalanceSettings) (Response, error) {
	return c.setInfo(ctx, EndpointVideo, request{Group: "image", Opt: "white_balance_control", Data: settings})
}

// ImageControl updates picture adjustments.
func (c *Client) ImageControl(ctx context.Context, settings ImageSettings) (Response, error) {
	return c.setInfo(ctx, EndpointVideo, request{Group: "image", Opt: "image_control", Data: settings})
}

// AudioInfo fetches the audio configuration.
func (c *Client) AudioInfo(ctx context.Context) (Response, error) {
	return c.getInfo(ctx, EndpointAudio, groupAll)
}

// SetAudioInfo writes raw audio configuration keys.
func (c *Client) SetAudioInfo(ctx context.Context, audio map[string]any) (Response, error) {
	return c.setInfo(ctx, EndpointAudio, map[string]any{"group": "audio", "audio": audio})
}

// AudioSwitch turns audio on or off.
func (c *Client) AudioSwitch(ctx context.Context, on bool) (Response, error) {
	return c.setInfo(ctx, EndpointAudio, map[string]any{"group": "audio_switch", "switch": boolInt(on)})
}

// SetAudioVolume sets the audio volume (0..100).
func (c *Client) SetAudioVolume(ctx context.Context, volume int) (Response, error) {
	return c.SetAudioInfo(ctx, map[string]any{"volume": volume})
}

// StorageStatus reports attached storage.
func (c *Client) StorageStatus(ctx context.Context) (Response, error) {
	return c.getInfo(ctx, EndpointStorage, request{Group: "storage_status"})
}

// RecordingTasks lists recording tasks.
func (c *Client) RecordingTasks(ctx context.Context) (Response, error) {
	return c.getInfo(ctx, EndpointRecord, request{Group: "record", Opt: "get_task_list"})
}

// SetRecordingTask enables or disables a recording task.
func (c *Client) SetRecordingTask(ctx context.Context, index string, enable bool) (Response, error) {
	return c.setInfo(ctx, EndpointRecord, request{
		Group: "record",
		Opt:   "set_task_enable",
		Data:  map[string]any{"index": index, "enable": boolInt(enable)},
	})
}

// TallyControl sets the tally light.
func (c *Client) TallyControl(ctx context.Context, settings TallySettings) (Response, error) {
	return c.setInfo(ctx, EndpointSystem, request{Group: "tally", Opt: "set_tally_info", Data: settings})
}

// NDIInfo reports the NDI configuration.
func (c *Client) NDIInfo(ctx context.Context) (Response, error) {
	return c.getInfo(ctx, EndpointStream, request{Group: "ndi", Opt: "get_ndi_info"})
}

// SetNDISwitch turns NDI output on or off.
func (c *Client) SetNDISwitch(ctx context.Context, on bool) (Response, error) {
	return c.setInfo(ctx, EndpointStream, request{
		Group: "ndi",
		Opt:   "set_ndi_switch",
		Data:  map[string]any{"switch": boolInt(on)},
	})
}

// SystemTime reads the device clock.
func (c *Client) SystemTime(ctx context.Context) (Response, error) {
	return c.getInfo(ctx, EndpointSystem, request{Group: "systime", Opt: "get_systime_info"})
}

// SetSystemTime sets the device clock.
func (c *Client) SetSystemTime(ctx context.Context, t SystemTime) (Response, error) {
	return c.setInfo(ctx, EndpointSystem, request{Group: "systime", Opt: "set_systime_info", Data: t.payload()})
}

// NetworkInfo reports the wired LAN configuration.
func (c *Client) NetworkInfo(ctx context.Context) (Response, error) {
	return c.getInfo(ctx, EndpointNetwork, request{Group: "lan", Opt: "get_lan_info"})
}

// WifiInfo reports the Wi-Fi configuration.
func (c *Client) WifiInfo(ctx context.Context) (Response, error) {
	return c.getInfo(ctx, EndpointNetwork, request{Group: "wifi", Opt: "get_wifi_info"})
}

// Validate checks connectivity at setup time. Transport failures and
// non-success replies both match ErrCannotConnect; the latter carries the
// device's rsp text as its message.
func (c *Client) Validate(ctx context.Context) (Response, error) {
	resp, err := c.Status(ctx)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrCannotConnect, err)
	}
	if !resp.OK() {
		msg := resp.Rsp()
		if msg == "" {
			msg = fmt.Sprintf("device returned status %q", resp.Status())
		}
		return resp, &ConnectError{Message: msg}
	}
	return resp, nil
}
