package config

import "time"

var defaults = map[string]any{
	"http.addr":             ":8080",
	"http.shutdown_timeout": 10 * time.Second,

	"storage.driver":       "sqlite",
	"storage.sqlite_path":  "./peoplenet.db",
	"storage.postgres_dsn": "",

	"blob.driver":               "fs",
	"blob.fs_root":              "./blobdata",
	"blob.s3.bucket":            "",
	"blob.s3.region":            "us-east-1",
	"blob.s3.endpoint":          "",
	"blob.s3.access_key_id":     "",
	"blob.s3.secret_access_key": "",
	"blob.s3.path_style":        false,

	"neo4j.uri":      "",
	"neo4j.username": "neo4j",
	"neo4j.password": "",
	"neo4j.database": "",

	"exports.queue_size": 32,

	"logging.level":  "info",
	"logging.format": "json",
	"logging.audit":  false,

	"tracing.provider":     "none",
	"tracing.endpoint":     "localhost:4317",
	"tracing.insecure":     false,
	"tracing.sample_rate":  1.0,
	"tracing.service_name": "peoplenet",

	"seed.file": "",
}

// envAliases are accepted in addition to the derived PEOPLENET_<SECTION>_<KEY> names.
var envAliases = map[string]string{
	"storage.sqlite_path":  "PEOPLENET_SQLITE_PATH",
	"storage.postgres_dsn": "PEOPLENET_POSTGRES_DSN",
}
