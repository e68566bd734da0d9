// Package metrics records graybridge operation metrics to InfluxDB.
//
// It wraps the official influxdb-client-go v2 library and implements the
// bridge.Recorder interface: every command-layer operation (open, load,
// select, execute, pragma, batch) produces one point carrying the
// operation name, target database path, duration, and outcome.
//
// # Usage
//
//	cfg := config.MetricsConfig{
//	    Enabled: true,
//	    URL:     "http://localhost:8086",
//	    Token:   "your-token",
//	    Org:     "graybridge",
//	    Bucket:  "operations",
//	}
//
//	rec, err := metrics.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rec.Close()
//
//	registry.SetMetrics(rec)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Writes are non-blocking; batch errors are delivered via a callback.
// Connection and health check errors are returned directly. Recording
// never slows down or fails a database operation.
package metrics
