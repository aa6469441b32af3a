// Package config loads hapsync settings.
//
// Settings are resolved in order: built-in defaults, then a YAML file, then
// HAPSYNC_* environment variables. The result is checked by Validate before
// any channel is opened, so an invalid address or port never reaches the
// wire.
//
//	timeline: show.json
//	pre_send_offset: 30ms
//	strength: {min: 30, max: 60}
//	motors: [0, 1]
//	network:
//	  enabled: true
//	  address: 192.168.1.87
//	  port: 12345
//	  redundancy: 3
//	serial:
//	  enabled: false
//	  port: /dev/ttyUSB0
//	audio:
//	  enabled: true
//	  frequency: 15
//
// Environment variables use the YAML path in upper case with "_" joins,
// e.g. HAPSYNC_NETWORK_ADDRESS or HAPSYNC_AUDIO_BOOST.
package config
