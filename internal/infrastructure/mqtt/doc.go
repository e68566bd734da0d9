// Package mqtt provides MQTT client connectivity for graybridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with automatic restoration on reconnect
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// MQTT is graybridge's optional second command transport: host
// applications publish command requests to graybridge/command/<op> and
// receive correlated responses on graybridge/response/<correlation_id>.
// The request/response mapping lives in the remote package; this package
// only moves bytes.
//
// # Security Considerations
//
//   - TLS should be enabled for anything beyond a local broker
//   - Credentials are validated against the broker ACL
//   - Payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.CommandPattern(), 1,
//	    func(topic string, payload []byte) error {
//	        // dispatch command
//	        return nil
//	    })
package mqtt
