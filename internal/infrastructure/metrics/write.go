package metrics

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// RecordOperation writes one completed bridge operation to InfluxDB.
//
// The write is non-blocking; points are batched and sent asynchronously,
// so recording never delays the database operation it describes.
//
// Parameters:
//   - op: Operation name (open, load, select, execute, pragma, batch)
//   - path: Logical database path the operation targeted
//   - duration: Wall-clock time the operation held the registry lock
//   - success: Whether the operation completed without error
func (c *Client) RecordOperation(op, path string, duration time.Duration, success bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"bridge_operations",
		map[string]string{
			"operation": op,
			"path":      path,
		},
		map[string]interface{}{
			"duration_ms": float64(duration.Microseconds()) / millisecondsPerSecond,
			"success":     success,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
