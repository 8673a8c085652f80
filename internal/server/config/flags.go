package config

import (
	"flag"
	"os"
	"time"

	"github.com/dbelovs/syncbox/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-m string   MongoDB connection URI
//	-n string   MongoDB database name
//	-e string   MinIO endpoint (e.g., "127.0.0.1:9000")
//	-u string   MinIO access key
//	-p string   MinIO secret key
//	-b string   MinIO bucket name
//	-s          use TLS when talking to MinIO (pass as -s=true)
//	-o string   OTLP/HTTP collector endpoint, empty disables tracing
//	-z int      maximum accepted archive size, megabytes
//	-w int      shutdown grace period, seconds
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - The shutdown timeout flag is accepted as an integer in seconds and then
//     converted to a time.Duration value.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-m", "-n", "-e", "-u", "-p", "-b", "-s", "-o", "-z", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.MongoURI, "m", config.MongoURI, "MongoDB connection URI")
	fs.StringVar(&config.MongoDatabase, "n", config.MongoDatabase, "MongoDB database name")
	fs.StringVar(&config.MinioEndpoint, "e", config.MinioEndpoint, "MinIO endpoint")
	fs.StringVar(&config.MinioAccessKey, "u", config.MinioAccessKey, "MinIO access key")
	fs.StringVar(&config.MinioSecretKey, "p", config.MinioSecretKey, "MinIO secret key")
	fs.StringVar(&config.MinioBucket, "b", config.MinioBucket, "MinIO bucket")
	fs.BoolVar(&config.MinioUseSSL, "s", config.MinioUseSSL, "use TLS for MinIO")
	fs.StringVar(&config.OTLPEndpoint, "o", config.OTLPEndpoint, "OTLP collector endpoint")
	fs.Int64Var(&config.MaxArchiveSizeMB, "z", config.MaxArchiveSizeMB, "max archive size (in megabytes)")

	shutdownTimeout := fs.Int("w", int(config.ShutdownTimeout.Seconds()), "shutdown timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.ShutdownTimeout = time.Duration(*shutdownTimeout) * time.Second
}
