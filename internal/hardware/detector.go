// Package hardware reports available hardware acceleration for encoding.
package hardware

import (
	"bufio"
	"bytes"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alharthydev/compresspro/internal/types"
)

// detectCacheTTL bounds how often the system is rescanned.
const detectCacheTTL = 5 * time.Minute

// Capability describes one acceleration backend and the encoders it offers.
type Capability struct {
	Type       types.HardwareType `json:"type"`
	DeviceName string             `json:"device_name,omitempty"`
	Encoders   []string           `json:"encoders"`
	Available  bool               `json:"available"`
}

// Detector identifies acceleration backends present on the system.
//
// Detection is advisory: it feeds the system report, while real encoder
// availability is discovered by attempting candidates in order.
type Detector struct {
	ffmpegPath string
	logger     *logrus.Logger

	mu       sync.Mutex
	cached   []Capability
	lastScan time.Time
}

// NewDetector creates a new hardware detector instance.
func NewDetector(ffmpegPath string, logger *logrus.Logger) *Detector {
	return &Detector{
		ffmpegPath: ffmpegPath,
		logger:     logger,
	}
}

// Detect scans the system for acceleration backends. Results are cached
// for a few minutes since hardware does not come and go mid-session.
func (d *Detector) Detect() []Capability {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cached != nil && time.Since(d.lastScan) < detectCacheTTL {
		return d.cached
	}

	encoders := d.listEncoders()
	var caps []Capability

	if nvidia := d.checkNVENC(encoders); nvidia != nil {
		caps = append(caps, *nvidia)
	}
	if intel := d.checkQSV(encoders); intel != nil {
		caps = append(caps, *intel)
	}
	if vaapi := d.checkVAAPI(encoders); vaapi != nil {
		caps = append(caps, *vaapi)
	}
	if vt := d.checkVideoToolbox(encoders); vt != nil {
		caps = append(caps, *vt)
	}

	// CPU is always the guaranteed backend.
	caps = append(caps, Capability{
		Type:      types.HardwareCPU,
		Encoders:  filterEncoders(encoders, "libx264", "libx265", "libvpx-vp9", "libsvtav1", "libaom-av1"),
		Available: true,
	})

	for _, c := range caps {
		d.logger.WithFields(logrus.Fields{
			"backend":  c.Type,
			"encoders": c.Encoders,
		}).Info("Detected encoding backend")
	}

	d.cached = caps
	d.lastScan = time.Now()
	return caps
}

// listEncoders parses `ffmpeg -encoders` into a set of encoder names.
func (d *Detector) listEncoders() map[string]bool {
	cmd := exec.Command(d.ffmpegPath, "-hide_banner", "-encoders")
	output, err := cmd.Output()
	if err != nil {
		d.logger.WithError(err).Warn("Failed to list ffmpeg encoders")
		return nil
	}
	return parseEncoderList(output)
}

// parseEncoderList extracts encoder names from ffmpeg -encoders output.
// Entries look like " V....D libx264    libx264 H.264 / AVC ...".
func parseEncoderList(output []byte) map[string]bool {
	encoders := make(map[string]bool)

	scanner := bufio.NewScanner(bytes.NewReader(output))
	inList := false
	for scanner.Scan() {
		line := scanner.Text()
		if !inList {
			if strings.HasPrefix(strings.TrimSpace(line), "---") {
				inList = true
			}
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		// fields[0] is the capability flag column, e.g. "V....D".
		if !strings.HasPrefix(fields[0], "V") && !strings.HasPrefix(fields[0], "A") {
			continue
		}
		encoders[fields[1]] = true
	}

	return encoders
}

func (d *Detector) checkNVENC(encoders map[string]bool) *Capability {
	available := filterEncoders(encoders, "h264_nvenc", "hevc_nvenc", "av1_nvenc")
	if len(available) == 0 {
		return nil
	}

	// nvidia-smi confirms an actual GPU behind the compiled-in encoders.
	cmd := exec.Command("nvidia-smi", "--query-gpu=name", "--format=csv,noheader")
	output, err := cmd.Output()
	if err != nil {
		d.logger.Debug("NVENC encoders compiled in but nvidia-smi not available")
		return nil
	}

	name := strings.TrimSpace(strings.SplitN(string(output), "\n", 2)[0])
	return &Capability{
		Type:       types.HardwareNVENC,
		DeviceName: name,
		Encoders:   available,
		Available:  true,
	}
}

func (d *Detector) checkQSV(encoders map[string]bool) *Capability {
	available := filterEncoders(encoders, "h264_qsv", "hevc_qsv", "av1_qsv")
	if len(available) == 0 {
		return nil
	}
	return &Capability{
		Type:      types.HardwareQSV,
		Encoders:  available,
		Available: true,
	}
}

func (d *Detector) checkVAAPI(encoders map[string]bool) *Capability {
	if runtime.GOOS != "linux" {
		return nil
	}

	available := filterEncoders(encoders, "h264_vaapi", "hevc_vaapi", "vp9_vaapi", "av1_vaapi")
	if len(available) == 0 {
		return nil
	}

	renderNodes, err := filepath.Glob("/dev/dri/renderD*")
	if err != nil || len(renderNodes) == 0 {
		d.logger.Debug("VAAPI encoders compiled in but no render nodes found")
		return nil
	}

	return &Capability{
		Type:       types.HardwareVAAPI,
		DeviceName: renderNodes[0],
		Encoders:   available,
		Available:  true,
	}
}

func (d *Detector) checkVideoToolbox(encoders map[string]bool) *Capability {
	if runtime.GOOS != "darwin" {
		return nil
	}

	available := filterEncoders(encoders, "h264_videotoolbox", "hevc_videotoolbox")
	if len(available) == 0 {
		return nil
	}
	return &Capability{
		Type:      types.HardwareVideoToolbox,
		Encoders:  available,
		Available: true,
	}
}

// filterEncoders returns the names present in the encoder set, in the
// order they were asked for.
func filterEncoders(encoders map[string]bool, names ...string) []string {
	var found []string
	for _, name := range names {
		if encoders[name] {
			found = append(found, name)
		}
	}
	return found
}
