package headset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/airobo-data/neurotrainer/internal/eeg"
)

// ParseSampleLine parses one amplifier line into an electrode sample. The
// wire format is `left,center,right` in microvolts, one sample per line.
// Lines starting with '#' are device chatter and parse as not-a-sample.
func ParseSampleLine(line string) (eeg.Sample, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return eeg.Sample{}, false, nil
	}

	segments := strings.Split(line, ",")
	if len(segments) != 3 {
		return eeg.Sample{}, false, fmt.Errorf("expected 3 channel values, got %d", len(segments))
	}

	var values [3]float64
	for i, seg := range segments {
		v, err := strconv.ParseFloat(strings.TrimSpace(seg), 64)
		if err != nil {
			return eeg.Sample{}, false, fmt.Errorf("failed to parse channel %d: %v", i, err)
		}
		values[i] = v
	}

	return eeg.Sample{Left: values[0], Center: values[1], Right: values[2]}, true, nil
}
