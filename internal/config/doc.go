// Package config loads endpoint catalogues.
//
// A catalogue names request templates and, optionally, environments that
// supply a base URL, default headers and {{variable}} values:
//
//	environments:
//	  dev:
//	    baseUrl: https://api-dev.example.com
//	    variables:
//	      userId: "1"
//	endpoints:
//	  getUser:
//	    url: /users/{{userId}}
//	    method: GET
//	    headers:
//	      Accept: application/json
//	    query:
//	      expand: profile
//	    timeout: 10s
//
// Documents are checked against an embedded JSON Schema before decoding.
// Config.Record turns an endpoint into a fluent.Record ready for a builder.
package config
