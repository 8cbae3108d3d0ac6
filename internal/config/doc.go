// Package config provides configuration parsing for the facility finder.
//
// The configuration is stored in finder.json. Missing fields take their
// defaults and every field can be overridden from the environment:
//
//	{
//	  "name": "Facility Finder",
//	  "host": "0.0.0.0",
//	  "port": 3000,
//	  "base": "/finder",
//	  "loadTimeout": "5s",
//	  "logLevel": "info",
//	  "assets": {
//	    "dir": "assets",
//	    "s3": {"bucket": "finder-assets", "prefix": "views/", "region": "ap-southeast-2"}
//	  },
//	  "metrics": {"enabled": true, "path": "/metrics"},
//	  "tracing": {"endpoint": "localhost:4318", "insecure": true}
//	}
//
// Environment variables are named FINDER_<FIELD>, e.g. FINDER_PORT,
// FINDER_BASE, FINDER_S3_BUCKET, FINDER_TRACING_ENDPOINT.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    errors.Fprint(os.Stderr, err, errors.ModePretty)
//	    os.Exit(1)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
