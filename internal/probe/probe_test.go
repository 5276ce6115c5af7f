package probe

import (
	"errors"
	"testing"
)

func TestParseProbeOutput(t *testing.T) {
	data := []byte(`{
		"format": {"format_name": "mov,mp4,m4a,3gp,3g2,mj2", "duration": "10.500000"},
		"streams": [
			{
				"codec_type": "video",
				"codec_name": "h264",
				"width": 1920,
				"height": 1080,
				"avg_frame_rate": "30000/1001",
				"r_frame_rate": "30000/1001",
				"nb_frames": "315",
				"duration": "10.510500"
			},
			{
				"codec_type": "audio",
				"codec_name": "aac"
			}
		]
	}`)

	info, err := parseProbeOutput(data)
	if err != nil {
		t.Fatalf("parseProbeOutput returned error: %v", err)
	}

	if info.VideoCodec != "h264" {
		t.Errorf("Expected video codec h264, got %q", info.VideoCodec)
	}
	if info.Width != 1920 || info.Height != 1080 {
		t.Errorf("Expected 1920x1080, got %dx%d", info.Width, info.Height)
	}
	if info.TotalFrames != 315 {
		t.Errorf("Expected 315 frames, got %d", info.TotalFrames)
	}
	if !info.HasAudio || info.AudioCodec != "aac" {
		t.Errorf("Expected aac audio stream, got %q (has audio: %v)", info.AudioCodec, info.HasAudio)
	}
	if info.FrameRate < 29.9 || info.FrameRate > 30.0 {
		t.Errorf("Expected ~29.97 fps, got %f", info.FrameRate)
	}
}

func TestParseProbeOutputEstimatesFrames(t *testing.T) {
	// No nb_frames: total is estimated from duration and frame rate.
	data := []byte(`{
		"format": {"format_name": "matroska,webm", "duration": "20.0"},
		"streams": [
			{
				"codec_type": "video",
				"codec_name": "vp9",
				"width": 1280,
				"height": 720,
				"avg_frame_rate": "25/1"
			}
		]
	}`)

	info, err := parseProbeOutput(data)
	if err != nil {
		t.Fatalf("parseProbeOutput returned error: %v", err)
	}

	if info.TotalFrames != 500 {
		t.Errorf("Expected 500 estimated frames, got %d", info.TotalFrames)
	}
	if info.HasAudio {
		t.Error("Expected no audio stream")
	}
}

func TestParseProbeOutputEstimatesFramesWithoutRate(t *testing.T) {
	// Unknown rate falls back to a 30 fps estimate.
	data := []byte(`{
		"format": {"format_name": "mpegts", "duration": "10.0"},
		"streams": [
			{
				"codec_type": "video",
				"codec_name": "mpeg2video",
				"width": 720,
				"height": 576,
				"avg_frame_rate": "0/0",
				"r_frame_rate": "0/0"
			}
		]
	}`)

	info, err := parseProbeOutput(data)
	if err != nil {
		t.Fatalf("parseProbeOutput returned error: %v", err)
	}
	if info.TotalFrames != 300 {
		t.Errorf("Expected 300 estimated frames, got %d", info.TotalFrames)
	}
}

func TestParseProbeOutputNoVideoStream(t *testing.T) {
	data := []byte(`{
		"format": {"format_name": "mp3"},
		"streams": [
			{"codec_type": "audio", "codec_name": "mp3"}
		]
	}`)

	_, err := parseProbeOutput(data)
	if !errors.Is(err, ErrNoVideoStream) {
		t.Errorf("Expected ErrNoVideoStream, got %v", err)
	}
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{name: "pal rational", input: "25/1", expected: 25},
		{name: "plain integer", input: "25", expected: 25},
		{name: "zero rational", input: "0/0", expected: 0},
		{name: "empty", input: "", expected: 0},
		{name: "zero denominator", input: "30/0", expected: 0},
		{name: "garbage", input: "abc/def", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseRate(tt.input); got != tt.expected {
				t.Errorf("parseRate(%q) = %f, expected %f", tt.input, got, tt.expected)
			}
		})
	}

	if ntsc := parseRate("30000/1001"); ntsc < 29.96 || ntsc > 29.98 {
		t.Errorf("parseRate(30000/1001) = %f, expected ~29.97", ntsc)
	}
}
