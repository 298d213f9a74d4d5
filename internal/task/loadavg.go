package task

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const loadAvgPath = "/proc/loadavg"

// readLoadAverage returns the one-minute system load average. On hosts
// without /proc it returns an error and the runner skips load throttling.
func readLoadAverage() (float64, error) {
	data, err := os.ReadFile(loadAvgPath)
	if err != nil {
		return 0, fmt.Errorf("failed to read load average: %w", err)
	}

	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return 0, fmt.Errorf("malformed load average data")
	}

	load, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse load average %q: %w", fields[0], err)
	}

	return load, nil
}
