// Package config loads and validates the YAML service configuration: the
// pipeline's stage chain, queue sizing, the metrics endpoint, and logging.
//
// A minimal configuration:
//
//	pipeline:
//	  name: framepipe
//	  stages:
//	    - name: frames
//	      codec: json-lines
//	      accepted_types: ["core.raw.v1"]
//	metrics:
//	  enabled: true
//
// Load applies defaults for unset fields and rejects structurally invalid
// files with classified errors.
package config
