package config

import (
	"fmt"
	"os"
	"text/template"
)

// Environment variables
const (
	ACT_CACHE_PERMISSION_SIZE          = "ACT_CACHE_PERMISSION_SIZE"
	ACT_CACHE_PERMISSION_TTL           = "ACT_CACHE_PERMISSION_TTL"
	ACT_DB_CONN_PARAMS                 = "ACT_DB_CONN_PARAMS"
	ACT_DB_CONNMAXLIFETIME             = "ACT_DB_CONNMAXLIFETIME"
	ACT_DB_HOST                        = "ACT_DB_HOST"
	ACT_DB_MAXIDLECONNS                = "ACT_DB_MAXIDLECONNS"
	ACT_DB_MAXOPENCONNS                = "ACT_DB_MAXOPENCONNS"
	ACT_DB_PASSWORD                    = "ACT_DB_PASSWORD"
	ACT_DB_PORT                        = "ACT_DB_PORT"
	ACT_DB_SCHEMA                      = "ACT_DB_SCHEMA"
	ACT_DB_USERNAME                    = "ACT_DB_USERNAME"
	ACT_ENCRYPT_ITERATIONS             = "ACT_ENCRYPT_ITERATIONS"
	ACT_ENCRYPT_KEY_CACHE              = "ACT_ENCRYPT_KEY_CACHE"
	ACT_ENCRYPT_MASTERKEY              = "ACT_ENCRYPT_MASTERKEY"
	ACT_ENCRYPT_MASTERKEY_FILE         = "ACT_ENCRYPT_MASTERKEY_FILE"
	ACT_EVENT_KAFKA_ADDRS              = "ACT_EVENT_KAFKA_ADDRS"
	ACT_EVENT_PUBLISH_FAILURE_ACTIONS  = "ACT_EVENT_PUBLISH_FAILURE_ACTIONS"
	ACT_EVENT_PUBLISH_SUCCESS_ACTIONS  = "ACT_EVENT_PUBLISH_SUCCESS_ACTIONS"
	ACT_EVENT_TOPIC                    = "ACT_EVENT_TOPIC"
	ACT_EVENT_ZK_ADDRS                 = "ACT_EVENT_ZK_ADDRS"
	ACT_EVENT_ZK_PATH                  = "ACT_EVENT_ZK_PATH"
	ACT_EVENT_ZK_TIMEOUT               = "ACT_EVENT_ZK_TIMEOUT"
	ACT_LOG_LEVEL                      = "ACT_LOG_LEVEL"
	ACT_LOG_MODE                       = "ACT_LOG_MODE"
	ACT_SERVER_BASEPATH                = "ACT_SERVER_BASEPATH"
	ACT_SERVER_BINDADDRESS             = "ACT_SERVER_BINDADDRESS"
	ACT_SERVER_IMPERSONATION_WHITELIST = "ACT_SERVER_IMPERSONATION_WHITELIST"
	ACT_SERVER_PORT                    = "ACT_SERVER_PORT"
	ACT_SERVER_TIMEOUT_IDLE            = "ACT_SERVER_TIMEOUT_IDLE"
	ACT_SERVER_TIMEOUT_READ            = "ACT_SERVER_TIMEOUT_READ"
	ACT_SERVER_TIMEOUT_WRITE           = "ACT_SERVER_TIMEOUT_WRITE"
	ACT_SHARE_DEFAULT_TTL              = "ACT_SHARE_DEFAULT_TTL"
	ACT_SHARE_MAX_ACCESSES             = "ACT_SHARE_MAX_ACCESSES"
)

// Vars must contain every const. We should be able to use the values in this slice
// to inspect all the config in the current environment provided by env vars.
var Vars = []string{
	ACT_CACHE_PERMISSION_SIZE,
	ACT_CACHE_PERMISSION_TTL,
	ACT_DB_CONN_PARAMS,
	ACT_DB_CONNMAXLIFETIME,
	ACT_DB_HOST,
	ACT_DB_MAXIDLECONNS,
	ACT_DB_MAXOPENCONNS,
	ACT_DB_PASSWORD,
	ACT_DB_PORT,
	ACT_DB_SCHEMA,
	ACT_DB_USERNAME,
	ACT_ENCRYPT_ITERATIONS,
	ACT_ENCRYPT_KEY_CACHE,
	ACT_ENCRYPT_MASTERKEY,
	ACT_ENCRYPT_MASTERKEY_FILE,
	ACT_EVENT_KAFKA_ADDRS,
	ACT_EVENT_PUBLISH_FAILURE_ACTIONS,
	ACT_EVENT_PUBLISH_SUCCESS_ACTIONS,
	ACT_EVENT_TOPIC,
	ACT_EVENT_ZK_ADDRS,
	ACT_EVENT_ZK_PATH,
	ACT_EVENT_ZK_TIMEOUT,
	ACT_LOG_LEVEL,
	ACT_LOG_MODE,
	ACT_SERVER_BASEPATH,
	ACT_SERVER_BINDADDRESS,
	ACT_SERVER_IMPERSONATION_WHITELIST,
	ACT_SERVER_PORT,
	ACT_SERVER_TIMEOUT_IDLE,
	ACT_SERVER_TIMEOUT_READ,
	ACT_SERVER_TIMEOUT_WRITE,
	ACT_SHARE_DEFAULT_TTL,
	ACT_SHARE_MAX_ACCESSES,
}

// PrintEnvironment prints the content of all environment variables consumed
// by the access service. Sensitive values are redacted.
func PrintEnvironment() {
	var filtered = []string{
		ACT_DB_PASSWORD,
		ACT_ENCRYPT_MASTERKEY,
	}
	redact := func(envVar, value string) string {
		for _, restricted := range filtered {
			if envVar == restricted && value != "" {
				return "<redacted>"
			}
		}
		return value
	}
	fmt.Println("tracker-access environment variables. Number of vars:", len(Vars))
	for _, variable := range Vars {
		fmt.Printf("%s=%s\n", variable, redact(variable, os.Getenv(variable)))
	}
}

// GenerateSourceEnvScript creates a bash script that can be used
// as a template with all the variables exported.
func GenerateSourceEnvScript() {
	tmpl, err := template.New("script").Parse(`#!/bin/bash

{{ range $i, $v := .Variables }}export {{ $v }}=
{{ end }}

`)
	exitOnErr(err)
	data := struct{ Variables []string }{Variables: Vars}
	tmpl.Execute(os.Stdout, data)
}

func exitOnErr(err error) {
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
