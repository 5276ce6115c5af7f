package hardware

import (
	"testing"
)

const sampleEncoderOutput = `Encoders:
 V..... = Video
 A..... = Audio
 S..... = Subtitle
 .F.... = Frame-level multithreading
 ..S... = Slice-level multithreading
 ...X.. = Codec is experimental
 ....B. = Supports draw_horiz_band
 .....D = Supports direct rendering method 1
 ------
 V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC (codec h264)
 V..... libx265              libx265 H.265 / HEVC (codec hevc)
 V....D libvpx-vp9           libvpx VP9 (codec vp9)
 V..... libsvtav1            SVT-AV1(Scalable Video Technology for AV1) encoder (codec av1)
 V....D h264_nvenc           NVIDIA NVENC H.264 encoder (codec h264)
 V....D hevc_nvenc           NVIDIA NVENC hevc encoder (codec hevc)
 A....D aac                  AAC (Advanced Audio Coding)
 S..... srt                  SubRip subtitle
`

func TestParseEncoderList(t *testing.T) {
	encoders := parseEncoderList([]byte(sampleEncoderOutput))

	for _, want := range []string{"libx264", "libx265", "libvpx-vp9", "libsvtav1", "h264_nvenc", "hevc_nvenc", "aac"} {
		if !encoders[want] {
			t.Errorf("Expected encoder %q in parsed set", want)
		}
	}

	if encoders["srt"] {
		t.Error("Subtitle encoders should not be included")
	}
	if encoders["Video"] {
		t.Error("Legend lines should not be parsed as encoders")
	}
}

func TestParseEncoderListEmpty(t *testing.T) {
	encoders := parseEncoderList(nil)
	if len(encoders) != 0 {
		t.Errorf("Expected empty set, got %v", encoders)
	}
}

func TestFilterEncoders(t *testing.T) {
	set := map[string]bool{"h264_nvenc": true, "libx264": true}

	got := filterEncoders(set, "h264_nvenc", "hevc_nvenc", "libx264")
	if len(got) != 2 {
		t.Fatalf("Expected 2 encoders, got %v", got)
	}
	if got[0] != "h264_nvenc" || got[1] != "libx264" {
		t.Errorf("Expected requested order preserved, got %v", got)
	}
}
