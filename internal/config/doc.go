// Package config provides configuration parsing for bind servers.
//
// The configuration is stored in bind.json. Every field is optional; missing
// values take the defaults shown below.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "host": "localhost",
//	    "port": 3000,
//	    "wsPath": "/_bind/live",
//	    "readTimeout": "60s",
//	    "writeTimeout": "10s",
//	    "maxMessageSize": 65536,
//	    "eventQueue": 256
//	  },
//	  "render": {
//	    "slowRenderThreshold": "16ms",
//	    "sweepInterval": "30s",
//	    "identityAttr": "data-rx-id"
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "bind",
//	    "path": "/metrics"
//	  },
//	  "publish": {
//	    "bucket": "",
//	    "prefix": "slots/",
//	    "region": "us-east-1",
//	    "endpoint": ""
//	  }
//	}
//
// Durations are Go duration strings. Publishing is disabled while bucket is
// empty.
package config
