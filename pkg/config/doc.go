// Package config loads service configuration from environment variables into
// tagged structs using github.com/caarlos0/env, with optional dotenv files
// read through github.com/joho/godotenv.
//
// Every package that needs configuration declares a Config struct with env
// and envDefault tags; services embed those structs and call Load once at
// startup. See Load for an example.
package config
