// Package manifest models the language-server version manifest and retrieves
// it through the fetch pipeline.
//
// The manifest is a JSON catalogue of available server builds per platform and
// architecture, each carrying integrity hashes:
//
//	{
//	  "manifestSchemaVersion": "1.0.0",
//	  "versions": [
//	    {
//	      "version": "1.2.0",
//	      "isDelisted": false,
//	      "targets": [
//	        {"platform": "linux", "arch": "x64", "contents": [
//	          {"filename": "server.zip", "url": "https://...", "hashes": ["sha384:..."]}
//	        ]}
//	      ]
//	    }
//	  ]
//	}
//
// Manager downloads the manifest, validates it against the expected schema
// major version, and keeps a last-known-good copy on disk that is used when
// the remote is unavailable.
package manifest
