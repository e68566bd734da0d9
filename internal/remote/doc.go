// Package remote dispatches database commands received over MQTT.
//
// It is the second command boundary next to the HTTP API: requests arrive
// on graybridge/command/<op> with a JSON payload carrying a correlation ID,
// and the response is published on graybridge/response/<correlation_id>.
//
// The dispatcher is transport-thin. It decodes the payload, invokes the
// corresponding registry operation, and encodes either the result or the
// structured error envelope. All database semantics live in the bridge
// package.
//
// Usage:
//
//	d := remote.NewDispatcher(registry, client, cfg.MQTT.QoS, logger)
//	if err := d.Start(); err != nil {
//	    return err
//	}
package remote
